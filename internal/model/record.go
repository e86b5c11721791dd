// Package model defines the job application record and its field-level
// mutation rules.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status values mirror the status column in the jobs table.
type Status string

const (
	StatusNone         Status = ""
	StatusApplied      Status = "Applied"
	StatusAssessment   Status = "Assessment"
	StatusInterviewing Status = "Interviewing"
	StatusRejected     Status = "Rejected"
	StatusScreening    Status = "Screening"
)

// AllStatuses lists every non-empty status, in display order.
var AllStatuses = []Status{
	StatusApplied,
	StatusAssessment,
	StatusInterviewing,
	StatusRejected,
	StatusScreening,
}

// ParseStatus converts a raw string to a Status. The empty string is valid
// (status not set); any other unknown value is rejected.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNone, StatusApplied, StatusAssessment, StatusInterviewing, StatusRejected, StatusScreening:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Field names accepted by ApplyField. They match the column names of the
// jobs table in the external data service.
const (
	FieldCompany       = "company"
	FieldPosition      = "position"
	FieldLocation      = "location"
	FieldJobSite       = "job_site"
	FieldURL           = "url"
	FieldStatus        = "status"
	FieldAppliedDate   = "applied_date"
	FieldRejectionDate = "rejection_date"
)

// DateLayout is the date-only format used for applied_date and
// rejection_date. Empty string means the date is not set.
const DateLayout = "2006-01-02"

// JobRecord is one job application entry.
//
// Key is a client-generated identity assigned when the record enters the
// in-memory store and stable for the record's whole lifetime. ID is the
// identity assigned by the external data service; it is empty until the
// record has been persisted at least once.
type JobRecord struct {
	Key           string    `json:"key"`
	ID            string    `json:"id,omitempty"`
	Company       string    `json:"company"`
	Position      string    `json:"position"`
	Location      string    `json:"location"`
	JobSite       string    `json:"jobSite"`
	URL           string    `json:"url"`
	Status        Status    `json:"status"`
	AppliedDate   string    `json:"appliedDate,omitempty"`
	RejectionDate string    `json:"rejectionDate,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Persisted reports whether the external store has assigned this record an
// identity.
func (r *JobRecord) Persisted() bool { return r.ID != "" }

// ApplyField sets a single named field from its string form. Setting
// rejection_date to a non-empty value also forces Status to Rejected, as one
// combined mutation. Unknown fields and unknown status values are rejected;
// everything else is accepted as-is.
func (r *JobRecord) ApplyField(field, value string) error {
	switch field {
	case FieldCompany:
		r.Company = value
	case FieldPosition:
		r.Position = value
	case FieldLocation:
		r.Location = value
	case FieldJobSite:
		r.JobSite = value
	case FieldURL:
		r.URL = value
	case FieldStatus:
		st, err := ParseStatus(value)
		if err != nil {
			return err
		}
		r.Status = st
	case FieldAppliedDate:
		r.AppliedDate = value
	case FieldRejectionDate:
		r.RejectionDate = value
		if value != "" {
			r.Status = StatusRejected
		}
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// SearchText returns the lowercase space-joined text the search index is
// built over.
func (r *JobRecord) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		r.Company, r.Position, r.Location, string(r.Status), r.JobSite, r.URL,
	}, " "))
}

// MonthKey derives the record's month group key ("March 2024") from the year
// and month components of AppliedDate. The components are read directly from
// the string rather than parsed into a time.Time, so a date-only value can
// never shift across a month boundary through timezone conversion. Returns
// "" when AppliedDate is absent or does not have a usable year-month shape.
func (r *JobRecord) MonthKey() string {
	year, month, ok := splitYearMonth(r.AppliedDate)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

func splitYearMonth(date string) (year, month int, ok bool) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[0], "%d", &year); err != nil || year <= 0 {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &month); err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
