package views_test

import (
	"reflect"
	"testing"

	"github.com/duaragha/job-tracker-sub001/internal/model"
	"github.com/duaragha/job-tracker-sub001/internal/views"
)

func rec(key, company, position, date string, st model.Status) model.JobRecord {
	return model.JobRecord{Key: key, Company: company, Position: position, AppliedDate: date, Status: st}
}

// ── GroupByMonth ───────────────────────────────────────────────────────────

func TestGroupByMonth_SingleRecord(t *testing.T) {
	g := views.GroupByMonth([]model.JobRecord{
		rec("a", "Acme", "Engineer", "2024-03-01", model.StatusApplied),
	})
	if len(g.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(g.Groups))
	}
	if g.Groups[0].Key != "March 2024" {
		t.Errorf("group key = %q, want \"March 2024\"", g.Groups[0].Key)
	}
	if len(g.Groups[0].Records) != 1 || g.Groups[0].Records[0].Key != "a" {
		t.Errorf("group records = %v, want [a]", g.Groups[0].Records)
	}
	if len(g.Pending) != 0 {
		t.Errorf("pending = %v, want empty", g.Pending)
	}
}

func TestGroupByMonth_PreservesOrderAndPending(t *testing.T) {
	g := views.GroupByMonth([]model.JobRecord{
		rec("a", "Acme", "", "2024-04-15", model.StatusApplied),
		rec("b", "Globex", "", "2024-04-02", model.StatusApplied),
		rec("c", "Initech", "", "", model.StatusNone),
		rec("d", "Hooli", "", "2024-03-20", model.StatusApplied),
	})

	if len(g.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(g.Groups))
	}
	if g.Groups[0].Key != "April 2024" || g.Groups[1].Key != "March 2024" {
		t.Errorf("group keys = [%q, %q], want [April 2024, March 2024]", g.Groups[0].Key, g.Groups[1].Key)
	}
	if g.Groups[0].Records[0].Key != "a" || g.Groups[0].Records[1].Key != "b" {
		t.Errorf("April group order wrong: %v", g.Groups[0].Records)
	}
	if len(g.Pending) != 1 || g.Pending[0].Key != "c" {
		t.Errorf("pending = %v, want [c]", g.Pending)
	}
}

// ── CountByStatus ──────────────────────────────────────────────────────────

func TestCountByStatus(t *testing.T) {
	s := views.CountByStatus([]model.JobRecord{
		rec("a", "", "", "", model.StatusApplied),
		rec("b", "", "", "", model.StatusApplied),
		rec("c", "", "", "", model.StatusRejected),
		rec("d", "", "", "", model.StatusNone),
	})
	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.ByStatus[model.StatusApplied] != 2 {
		t.Errorf("Applied = %d, want 2", s.ByStatus[model.StatusApplied])
	}
	if s.ByStatus[model.StatusRejected] != 1 {
		t.Errorf("Rejected = %d, want 1", s.ByStatus[model.StatusRejected])
	}
	if s.ByStatus[model.StatusScreening] != 0 {
		t.Errorf("Screening = %d, want 0", s.ByStatus[model.StatusScreening])
	}
	// Every known status is present even at zero.
	for _, st := range model.AllStatuses {
		if _, ok := s.ByStatus[st]; !ok {
			t.Errorf("ByStatus missing %q", st)
		}
	}
}

// ── CollectSuggestions ─────────────────────────────────────────────────────

func TestCollectSuggestions_DistinctNonEmpty(t *testing.T) {
	records := []model.JobRecord{
		{Key: "a", Company: "Acme", Position: "Engineer", Location: "Berlin", JobSite: "LinkedIn"},
		{Key: "b", Company: "Acme", Position: "Designer", Location: "", JobSite: "LinkedIn"},
		{Key: "c", Company: "Globex", Position: "", Location: "Remote", JobSite: ""},
	}
	s := views.CollectSuggestions(records)

	if want := []string{"Acme", "Globex"}; !reflect.DeepEqual(s.Companies, want) {
		t.Errorf("Companies = %v, want %v", s.Companies, want)
	}
	if want := []string{"Designer", "Engineer"}; !reflect.DeepEqual(s.Positions, want) {
		t.Errorf("Positions = %v, want %v", s.Positions, want)
	}
	if want := []string{"Berlin", "Remote"}; !reflect.DeepEqual(s.Locations, want) {
		t.Errorf("Locations = %v, want %v", s.Locations, want)
	}
	if want := []string{"LinkedIn"}; !reflect.DeepEqual(s.JobSites, want) {
		t.Errorf("JobSites = %v, want %v", s.JobSites, want)
	}
}

// ── Cache ──────────────────────────────────────────────────────────────────

// The cache must serve the memoized value while the version is unchanged and
// recompute once it moves.
func TestCache_InvalidatesOnVersionChange(t *testing.T) {
	c := views.NewCache()
	v1 := []model.JobRecord{rec("a", "Acme", "", "", model.StatusApplied)}

	s := c.Stats(1, v1)
	if s.Total != 1 {
		t.Fatalf("Stats total = %d, want 1", s.Total)
	}

	// Same version: the changed slice must not be recomputed.
	v2 := append(v1, rec("b", "Globex", "", "", model.StatusApplied))
	if s := c.Stats(1, v2); s.Total != 1 {
		t.Errorf("Stats at cached version = %d, want memoized 1", s.Total)
	}

	// New version: recompute.
	if s := c.Stats(2, v2); s.Total != 2 {
		t.Errorf("Stats at new version = %d, want 2", s.Total)
	}
}

func TestCache_IndependentViews(t *testing.T) {
	c := views.NewCache()
	records := []model.JobRecord{rec("a", "Acme", "Engineer", "2024-03-01", model.StatusApplied)}

	g := c.Grouping(7, records)
	if len(g.Groups) != 1 || g.Groups[0].Key != "March 2024" {
		t.Errorf("Grouping = %v, want one March 2024 group", g.Groups)
	}
	sg := c.Suggestions(7, records)
	if !reflect.DeepEqual(sg.Companies, []string{"Acme"}) {
		t.Errorf("Suggestions companies = %v, want [Acme]", sg.Companies)
	}
}
