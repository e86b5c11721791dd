// Package scheduler wires up the cron job that periodically reloads the
// record set from the external data service, picking up rows written by
// other clients of the same table.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/duaragha/job-tracker-sub001/internal/backend"
	"github.com/duaragha/job-tracker-sub001/internal/tracker"
)

// Scheduler wraps robfig/cron and manages the refresh loop.
type Scheduler struct {
	cron    *cron.Cron
	store   *tracker.Store
	syncer  *tracker.Syncer
	backend backend.Store
	events  tracker.EventPublisher
	spec    string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that refreshes every intervalHours hours.
func New(store *tracker.Store, syncer *tracker.Syncer, b backend.Store, events tracker.EventPublisher, intervalHours int) *Scheduler {
	if events == nil {
		events = tracker.NopPublisher{}
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		store:   store,
		syncer:  syncer,
		backend: b,
		events:  events,
		spec:    fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. The initial load runs
// synchronously first so the store is populated before the HTTP surface
// comes up; its failure leaves the record set empty (logged, no retry until
// the next tick).
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		s.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.Refresh(ctx)
	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// Refresh loads all rows from the data service and replaces the in-memory
// record set, rebuilding the search index. Pending debounced saves are
// drained first, so local edits reach the data service before the snapshot
// is taken and come back in it rather than being lost to the reload.
func (s *Scheduler) Refresh(ctx context.Context) {
	s.syncer.Wait()

	records, err := s.backend.Select(ctx)
	if err != nil {
		log.Printf("[scheduler] Refresh failed: %v", err)
		return
	}

	s.store.Load(records)
	log.Printf("[scheduler] Refresh complete — %d record(s)", len(records))

	payload, _ := json.Marshal(map[string]int{"count": len(records)})
	if err := s.events.Publish(ctx, tracker.EventRecordsRefreshed, payload); err != nil {
		log.Printf("[scheduler] publish %s failed: %v", tracker.EventRecordsRefreshed, err)
	}
}
