// Package backend abstracts the external data service that persists job
// records. The tracker treats it as an opaque CRUD surface over a single
// jobs table: every call is independently atomic at single-row granularity
// and no ordering between two calls is assumed.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/duaragha/job-tracker-sub001/internal/model"
)

// Table is the one table this service touches.
const Table = "jobs"

// Fields is a partial row for updates: column name to value. A nil value
// writes SQL NULL (the data service rejects empty strings for date columns,
// so absent dates must be sent as NULL).
type Fields map[string]any

// Store is the CRUD contract the tracker core requires from the data
// service.
type Store interface {
	// Select returns all rows, newest applied date first.
	Select(ctx context.Context) ([]model.JobRecord, error)
	// Insert persists a record that has no identity yet and returns the
	// stored row including its server-assigned ID.
	Insert(ctx context.Context, rec model.JobRecord) (model.JobRecord, error)
	// Update applies a partial row to the identified record and returns the
	// stored row.
	Update(ctx context.Context, id string, fields Fields) (model.JobRecord, error)
	// Delete removes the identified record.
	Delete(ctx context.Context, id string) error
}

// ErrNotFound is returned when an update or delete targets an identity the
// data service does not know.
var ErrNotFound = errors.New("record not found")

// columns lists every writable column, in the fixed order used to build
// statements.
var columns = []string{
	model.FieldCompany,
	model.FieldPosition,
	model.FieldLocation,
	model.FieldJobSite,
	model.FieldURL,
	model.FieldStatus,
	model.FieldAppliedDate,
	model.FieldRejectionDate,
}

// validateFields rejects unknown column names before they reach a statement
// builder, and returns the accepted names sorted for deterministic SQL.
func validateFields(fields Fields) ([]string, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		ok := false
		for _, c := range columns {
			if name == c {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("backend: unknown column %q", name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("backend: empty field set")
	}
	sort.Strings(names)
	return names, nil
}

// RowFields flattens a record into the full writable column set, normalizing
// empty date strings to NULL. This is the shape every flush sends.
func RowFields(rec model.JobRecord) Fields {
	return Fields{
		model.FieldCompany:       rec.Company,
		model.FieldPosition:      rec.Position,
		model.FieldLocation:      rec.Location,
		model.FieldJobSite:       rec.JobSite,
		model.FieldURL:           rec.URL,
		model.FieldStatus:        string(rec.Status),
		model.FieldAppliedDate:   nullableDate(rec.AppliedDate),
		model.FieldRejectionDate: nullableDate(rec.RejectionDate),
	}
}

// nullableDate maps the in-memory empty-string sentinel to NULL.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}
