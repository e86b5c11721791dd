// Package tracker contains the in-memory record store, the debounced sync
// engine, and the HTTP handlers of the tracker service.
//
// The store is the optimistic source of truth: every mutation commits to it
// synchronously and the caller sees the result immediately, while the sync
// engine persists to the external data service in the background.
package tracker

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duaragha/job-tracker-sub001/internal/model"
	"github.com/duaragha/job-tracker-sub001/internal/search"
)

// ErrNoRecord is returned when a mutation targets a key the store does not
// hold.
var ErrNoRecord = errors.New("record not found in store")

// Store holds the ordered in-memory record set and its search index. The
// ordering is whatever the data service returned at load time (newest
// applied date first); locally added records are prepended.
//
// The index is owned by the store and kept in lockstep with it: single-record
// mutations update it incrementally, a reload rebuilds it. The version
// counter increments on every committed mutation and drives derived-view
// memoization.
type Store struct {
	mu      sync.Mutex
	records []*model.JobRecord
	byKey   map[string]*model.JobRecord
	index   *search.Index
	version uint64
}

// NewStore returns an empty Store with its own index.
func NewStore() *Store {
	return &Store{
		byKey: make(map[string]*model.JobRecord),
		index: search.New(),
	}
}

// Load replaces the record set with rows from the data service, preserving
// the given order. Identity survives the swap: a row whose server ID is
// already in the store keeps that record's client key, and local records not
// yet persisted stay at the front instead of vanishing, so debounce slots
// keyed by those keys still resolve. Rows new to the store get a fresh key.
// The index is rebuilt from scratch.
func (s *Store) Load(records []model.JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyByID := make(map[string]string, len(s.records))
	var local []*model.JobRecord
	for _, r := range s.records {
		if r.Persisted() {
			keyByID[r.ID] = r.Key
		} else {
			local = append(local, r)
		}
	}

	s.records = make([]*model.JobRecord, 0, len(records)+len(local))
	s.byKey = make(map[string]*model.JobRecord, len(records)+len(local))
	docs := make(map[string]string, len(records)+len(local))
	for _, r := range local {
		s.records = append(s.records, r)
		s.byKey[r.Key] = r
		docs[r.Key] = r.SearchText()
	}
	for i := range records {
		rec := records[i]
		if key, ok := keyByID[rec.ID]; ok {
			rec.Key = key
		} else if rec.Key == "" {
			rec.Key = uuid.NewString()
		}
		s.records = append(s.records, &rec)
		s.byKey[rec.Key] = &rec
		docs[rec.Key] = rec.SearchText()
	}
	s.index.Build(docs)
	s.version++
}

// Add prepends a new record with default field values: status Applied,
// applied date today. The record is local-only until the sync engine
// persists it.
func (s *Store) Add() model.JobRecord {
	now := time.Now()
	rec := &model.JobRecord{
		Key:         uuid.NewString(),
		Status:      model.StatusApplied,
		AppliedDate: now.Format(model.DateLayout),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]*model.JobRecord{rec}, s.records...)
	s.byKey[rec.Key] = rec
	s.index.Add(rec.Key, rec.SearchText())
	s.version++
	return *rec
}

// SetField applies one field-level edit to the identified record and stamps
// its last-modified marker. The rejection-date side effect (forcing status
// to Rejected) commits atomically with the edit. Returns the updated record.
func (s *Store) SetField(key, field, value string) (model.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byKey[key]
	if !ok {
		return model.JobRecord{}, ErrNoRecord
	}
	if err := rec.ApplyField(field, value); err != nil {
		return model.JobRecord{}, err
	}
	rec.UpdatedAt = time.Now()
	s.index.Add(rec.Key, rec.SearchText())
	s.version++
	return *rec, nil
}

// Remove takes the record out of the store and the index. The caller is
// responsible for deleting it from the data service if it was persisted.
func (s *Store) Remove(key string) (model.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byKey[key]
	if !ok {
		return model.JobRecord{}, false
	}
	delete(s.byKey, key)
	for i, r := range s.records {
		if r.Key == key {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	s.index.Remove(key)
	s.version++
	return *rec, true
}

// AdoptIdentity merges a server-assigned id into the record after a
// successful insert. The client key stays unchanged; only the server
// identity transfers. A no-op when the record has been removed meanwhile.
func (s *Store) AdoptIdentity(key, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byKey[key]
	if !ok {
		return
	}
	rec.ID = id
	s.version++
}

// Get returns a snapshot of one record.
func (s *Store) Get(key string) (model.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byKey[key]
	if !ok {
		return model.JobRecord{}, false
	}
	return *rec, true
}

// Records returns a snapshot of the full ordered record set.
func (s *Store) Records() []model.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.JobRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Version returns the content version counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Search returns records matching the query via the prefix index, in store
// order. When the index finds nothing for a usable query, it falls back to a
// linear substring scan over company, position, location and status — the
// prefix index cannot see matches that start mid-token.
func (s *Store) Search(q string) []model.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.index.Query(q)
	if len(keys) > 0 {
		out := make([]model.JobRecord, 0, len(keys))
		for _, r := range s.records {
			if _, ok := keys[r.Key]; ok {
				out = append(out, *r)
			}
		}
		return out
	}

	terms := usableTerms(q)
	if terms == nil {
		return nil
	}
	var out []model.JobRecord
	for _, r := range s.records {
		if containsAllTerms(r, terms) {
			out = append(out, *r)
		}
	}
	return out
}

// usableTerms splits a query into lowercase terms, returning nil unless
// every term meets the minimum length. Mirrors the index's query rules so
// the fallback never answers queries the index would refuse.
func usableTerms(q string) []string {
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 {
		return nil
	}
	for _, t := range terms {
		if len([]rune(t)) < search.MinTermLen {
			return nil
		}
	}
	return terms
}

// containsAllTerms reports whether every term appears (case-insensitive)
// anywhere in the combined company + position + location + status text.
func containsAllTerms(r *model.JobRecord, terms []string) bool {
	combined := strings.ToLower(r.Company + " " + r.Position + " " + r.Location + " " + string(r.Status))
	for _, t := range terms {
		if !strings.Contains(combined, t) {
			return false
		}
	}
	return true
}
