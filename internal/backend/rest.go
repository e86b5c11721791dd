package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/duaragha/job-tracker-sub001/internal/model"
)

const restTimeout = 15 * time.Second

// REST talks to a hosted data service that exposes the jobs table over a
// PostgREST-style HTTP API, authenticated with an opaque API key sent on
// every request. The key is passed through unmodified.
type REST struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewREST constructs a REST store with a shared HTTP client. baseURL is the
// service root, e.g. "https://xyz.example.co/rest/v1".
func NewREST(baseURL, apiKey string) *REST {
	return &REST{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: restTimeout},
	}
}

// restRow mirrors one jobs row on the wire. Date columns are nullable, so
// they travel as pointers.
type restRow struct {
	ID            string  `json:"id,omitempty"`
	Company       string  `json:"company"`
	Position      string  `json:"position"`
	Location      string  `json:"location"`
	JobSite       string  `json:"job_site"`
	URL           string  `json:"url"`
	Status        string  `json:"status"`
	AppliedDate   *string `json:"applied_date"`
	RejectionDate *string `json:"rejection_date"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// Select returns all rows ordered by applied date, newest first.
func (s *REST) Select(ctx context.Context) ([]model.JobRecord, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "applied_date.desc.nullslast")

	body, err := s.do(ctx, http.MethodGet, Table+"?"+params.Encode(), nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}

	var rows []restRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("select jobs unmarshal: %w", err)
	}

	records := make([]model.JobRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// Insert stores a new row and returns it with the server-assigned id.
func (s *REST) Insert(ctx context.Context, rec model.JobRecord) (model.JobRecord, error) {
	body, err := s.do(ctx, http.MethodPost, Table, RowFields(rec), http.StatusCreated)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("insert job: %w", err)
	}
	stored, err := singleRow(body)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("insert job: %w", err)
	}
	return stored, nil
}

// Update applies a partial row, addressed by id=eq.{id}, and returns the
// stored record.
func (s *REST) Update(ctx context.Context, id string, fields Fields) (model.JobRecord, error) {
	if _, err := validateFields(fields); err != nil {
		return model.JobRecord{}, err
	}
	params := url.Values{}
	params.Set("id", "eq."+id)

	body, err := s.do(ctx, http.MethodPatch, Table+"?"+params.Encode(), fields, http.StatusOK)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("update job %s: %w", id, err)
	}
	rec, err := singleRow(body)
	if errors.Is(err, errNoRows) {
		// The filter matched nothing: the row is gone.
		return model.JobRecord{}, ErrNotFound
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("update job %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the identified row.
func (s *REST) Delete(ctx context.Context, id string) error {
	params := url.Values{}
	params.Set("id", "eq."+id)
	if _, err := s.do(ctx, http.MethodDelete, Table+"?"+params.Encode(), nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// do issues one request and returns the response body, enforcing the
// expected status code.
func (s *REST) do(ctx context.Context, method, path string, payload any, wantStatus int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		// Ask the service to echo the stored row back.
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("data service returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// errNoRows marks a well-formed but empty row array in a write response.
var errNoRows = errors.New("no rows in response")

// singleRow decodes a one-element row array, the shape the service returns
// for writes with return=representation.
func singleRow(body []byte) (model.JobRecord, error) {
	var rows []restRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return model.JobRecord{}, fmt.Errorf("unmarshal row: %w", err)
	}
	switch len(rows) {
	case 0:
		return model.JobRecord{}, errNoRows
	case 1:
		return rows[0].toRecord(), nil
	}
	return model.JobRecord{}, fmt.Errorf("expected 1 row, got %d", len(rows))
}

func (r restRow) toRecord() model.JobRecord {
	rec := model.JobRecord{
		ID:       r.ID,
		Company:  r.Company,
		Position: r.Position,
		Location: r.Location,
		JobSite:  r.JobSite,
		URL:      r.URL,
		Status:   model.Status(r.Status),
	}
	if r.AppliedDate != nil {
		rec.AppliedDate = *r.AppliedDate
	}
	if r.RejectionDate != nil {
		rec.RejectionDate = *r.RejectionDate
	}
	if r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec
}
