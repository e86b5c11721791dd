package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duaragha/job-tracker-sub001/internal/model"
)

// Postgres persists records in a PostgreSQL jobs table via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Postgres store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// NewPool connects and verifies a pgx pool sized for the tracker's write
// pattern: short single-row statements from debounced saves plus one full
// scan per refresh, so a handful of connections suffices.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	pc.MaxConns = 8
	pc.MinConns = 1
	pc.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Migrate creates the jobs table when it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	job_site TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	applied_date DATE,
	rejection_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("migrate jobs table: %w", err)
	}
	return nil
}

const selectColumns = `id::text, COALESCE(company, ''), COALESCE(position, ''),
	COALESCE(location, ''), COALESCE(job_site, ''), COALESCE(url, ''),
	COALESCE(status, ''), applied_date, rejection_date, created_at`

// Select returns all rows ordered by applied date, newest first, rows
// without an applied date last.
func (p *Postgres) Select(ctx context.Context) ([]model.JobRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+selectColumns+`
		 FROM jobs
		 ORDER BY applied_date DESC NULLS LAST, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	defer rows.Close()

	records := make([]model.JobRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("select jobs scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Insert stores a new row and returns it with the server-assigned id.
func (p *Postgres) Insert(ctx context.Context, rec model.JobRecord) (model.JobRecord, error) {
	fields := RowFields(rec)
	row := p.pool.QueryRow(ctx,
		`INSERT INTO jobs (company, position, location, job_site, url, status,
		                   applied_date, rejection_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+selectColumns,
		fields[model.FieldCompany], fields[model.FieldPosition],
		fields[model.FieldLocation], fields[model.FieldJobSite],
		fields[model.FieldURL], fields[model.FieldStatus],
		fields[model.FieldAppliedDate], fields[model.FieldRejectionDate],
	)
	stored, err := scanRecord(row)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("insert job: %w", err)
	}
	return stored, nil
}

// Update applies a partial row and returns the stored record.
func (p *Postgres) Update(ctx context.Context, id string, fields Fields) (model.JobRecord, error) {
	names, err := validateFields(fields)
	if err != nil {
		return model.JobRecord{}, err
	}

	set := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		set = append(set, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, fields[name])
	}
	args = append(args, id)

	row := p.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d RETURNING %s`,
			strings.Join(set, ", "), len(args), selectColumns),
		args...,
	)
	stored, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.JobRecord{}, ErrNotFound
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("update job %s: %w", id, err)
	}
	return stored, nil
}

// Delete removes the identified row.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanRecord reads one jobs row in selectColumns order. Date columns are
// NULLable and come back as the empty-string sentinel when absent.
func scanRecord(row pgx.Row) (model.JobRecord, error) {
	var (
		rec        model.JobRecord
		status     string
		applied    *time.Time
		rejection  *time.Time
	)
	if err := row.Scan(
		&rec.ID, &rec.Company, &rec.Position, &rec.Location, &rec.JobSite,
		&rec.URL, &status, &applied, &rejection, &rec.CreatedAt,
	); err != nil {
		return model.JobRecord{}, err
	}
	// Stored status values come from ParseStatus-validated writes; an
	// unknown value here means outside writes, which we pass through.
	rec.Status = model.Status(status)
	if applied != nil {
		rec.AppliedDate = applied.Format(model.DateLayout)
	}
	if rejection != nil {
		rec.RejectionDate = rejection.Format(model.DateLayout)
	}
	return rec, nil
}
