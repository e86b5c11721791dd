// Package views computes read-only projections of the record set: month
// groups, status counters, and autocomplete suggestion sets. None of them
// mutate anything; they are recomputed whenever the record set changes and
// memoized against the store's version counter.
package views

import (
	"sort"
	"sync"

	"github.com/duaragha/job-tracker-sub001/internal/model"
)

// MonthGroup is one "applied month" bucket, newest-first within the overall
// record ordering.
type MonthGroup struct {
	Key     string            `json:"key"` // e.g. "March 2024"
	Records []model.JobRecord `json:"records"`
}

// Grouping is the full month-group projection. Records without an applied
// date belong to no month and surface separately as Pending.
type Grouping struct {
	Groups  []MonthGroup      `json:"groups"`
	Pending []model.JobRecord `json:"pending"`
}

// Stats tallies records per status plus a grand total.
type Stats struct {
	Total    int                  `json:"total"`
	ByStatus map[model.Status]int `json:"byStatus"`
}

// Suggestions holds the distinct non-empty values seen per free-text field,
// sorted for stable output.
type Suggestions struct {
	Companies []string `json:"companies"`
	Positions []string `json:"positions"`
	Locations []string `json:"locations"`
	JobSites  []string `json:"jobSites"`
}

// GroupByMonth buckets records by the year+month of their applied date,
// preserving the input order both across groups (a group sits where its first
// record appeared) and within each group.
func GroupByMonth(records []model.JobRecord) Grouping {
	var g Grouping
	byKey := make(map[string]int)
	for _, r := range records {
		key := r.MonthKey()
		if key == "" {
			g.Pending = append(g.Pending, r)
			continue
		}
		i, ok := byKey[key]
		if !ok {
			i = len(g.Groups)
			byKey[key] = i
			g.Groups = append(g.Groups, MonthGroup{Key: key})
		}
		g.Groups[i].Records = append(g.Groups[i].Records, r)
	}
	return g
}

// CountByStatus tallies records per status value. Every known status appears
// in the map even when its count is zero; records with no status only count
// toward the total.
func CountByStatus(records []model.JobRecord) Stats {
	s := Stats{ByStatus: make(map[model.Status]int, len(model.AllStatuses))}
	for _, st := range model.AllStatuses {
		s.ByStatus[st] = 0
	}
	for _, r := range records {
		s.Total++
		if r.Status != model.StatusNone {
			s.ByStatus[r.Status]++
		}
	}
	return s
}

// CollectSuggestions gathers the distinct non-empty values per free-text
// field for autocomplete.
func CollectSuggestions(records []model.JobRecord) Suggestions {
	companies := make(map[string]struct{})
	positions := make(map[string]struct{})
	locations := make(map[string]struct{})
	jobSites := make(map[string]struct{})
	for _, r := range records {
		if r.Company != "" {
			companies[r.Company] = struct{}{}
		}
		if r.Position != "" {
			positions[r.Position] = struct{}{}
		}
		if r.Location != "" {
			locations[r.Location] = struct{}{}
		}
		if r.JobSite != "" {
			jobSites[r.JobSite] = struct{}{}
		}
	}
	return Suggestions{
		Companies: sortedKeys(companies),
		Positions: sortedKeys(positions),
		Locations: sortedKeys(locations),
		JobSites:  sortedKeys(jobSites),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Cache memoizes the three projections against a content version counter.
// A view is recomputed only when the version it was computed at no longer
// matches the caller's.
type Cache struct {
	mu sync.Mutex

	groupingVersion uint64
	grouping        Grouping
	hasGrouping     bool

	statsVersion uint64
	stats        Stats
	hasStats     bool

	suggVersion uint64
	sugg        Suggestions
	hasSugg     bool
}

// NewCache returns an empty Cache.
func NewCache() *Cache { return &Cache{} }

// Grouping returns the month-group projection for the given record set,
// recomputing only when version differs from the cached one.
func (c *Cache) Grouping(version uint64, records []model.JobRecord) Grouping {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasGrouping || c.groupingVersion != version {
		c.grouping = GroupByMonth(records)
		c.groupingVersion = version
		c.hasGrouping = true
	}
	return c.grouping
}

// Stats returns the status-counter projection, memoized per version.
func (c *Cache) Stats(version uint64, records []model.JobRecord) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasStats || c.statsVersion != version {
		c.stats = CountByStatus(records)
		c.statsVersion = version
		c.hasStats = true
	}
	return c.stats
}

// Suggestions returns the autocomplete projection, memoized per version.
func (c *Cache) Suggestions(version uint64, records []model.JobRecord) Suggestions {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasSugg || c.suggVersion != version {
		c.sugg = CollectSuggestions(records)
		c.suggVersion = version
		c.hasSugg = true
	}
	return c.sugg
}
