package tracker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/duaragha/job-tracker-sub001/internal/backend"
)

// Default sync engine timings.
const (
	// DefaultDebounce is how long after the most recent edit a save is
	// actually issued. Edits inside the window restart it, so rapid
	// consecutive edits to one record collapse into a single save.
	DefaultDebounce = 800 * time.Millisecond
	// DefaultIndicatorGrace keeps the saving indicator visible briefly
	// after a save completes, smoothing the UI feedback.
	DefaultIndicatorGrace = 600 * time.Millisecond
	// DefaultSaveTimeout bounds one data-service call.
	DefaultSaveTimeout = 10 * time.Second
)

// slotState tracks where a record's save bookkeeping stands.
type slotState int

const (
	slotPending slotState = iota // debounce timer armed
	slotSaving                   // save in flight
)

// slot is the per-record save bookkeeping, keyed by the record's stable
// client key — never by list position, so reordering cannot misattribute a
// save.
type slot struct {
	state slotState
	timer *time.Timer
	// rerun queues exactly one follow-up save for edits that arrive while
	// a save for this record is already in flight. The in-flight save is
	// never raced against; the follow-up re-enters the debounce window
	// after it completes.
	rerun bool
}

// Syncer is the sync engine: it debounces record saves and flushes them to
// the external data service. Saves are best-effort and at-most-once —
// failures are logged and published, never retried, and the optimistic
// in-memory state is not rolled back.
type Syncer struct {
	store   *Store
	backend backend.Store
	events  EventPublisher

	debounce time.Duration
	grace    time.Duration
	timeout  time.Duration

	mu         sync.Mutex
	slots      map[string]*slot
	indicators map[string]time.Time // key -> saving indicator expiry
	wg         sync.WaitGroup
}

// SyncerOpts holds parameters for creating a Syncer. Zero durations fall
// back to the defaults; a nil Events falls back to NopPublisher.
type SyncerOpts struct {
	Store    *Store
	Backend  backend.Store
	Events   EventPublisher
	Debounce time.Duration
	Grace    time.Duration
	Timeout  time.Duration
}

// NewSyncer creates a Syncer.
func NewSyncer(opts SyncerOpts) *Syncer {
	events := opts.Events
	if events == nil {
		events = NopPublisher{}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultIndicatorGrace
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	return &Syncer{
		store:      opts.Store,
		backend:    opts.Backend,
		events:     events,
		debounce:   debounce,
		grace:      grace,
		timeout:    timeout,
		slots:      make(map[string]*slot),
		indicators: make(map[string]time.Time),
	}
}

// Schedule queues a save for the record. A pending timer is restarted; a
// save already in flight gets a single follow-up queued behind it.
func (s *Syncer) Schedule(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[key]; ok {
		switch sl.state {
		case slotSaving:
			sl.rerun = true
			return
		case slotPending:
			s.stopTimer(sl)
			sl.timer = s.armTimer(key)
			return
		}
	}
	s.slots[key] = &slot{state: slotPending, timer: s.armTimer(key)}
}

// armTimer starts the debounce timer for key. Caller holds s.mu.
func (s *Syncer) armTimer(key string) *time.Timer {
	s.wg.Add(1)
	return time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()
		s.flush(key)
	})
}

// SaveNow flushes the record synchronously, bypassing the debounce window.
// Used by bulk edits, which persist each selected record in turn. If a save
// for the record is already in flight, a follow-up is queued instead and nil
// is returned.
func (s *Syncer) SaveNow(key string) error {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if ok && sl.state == slotSaving {
		sl.rerun = true
		s.mu.Unlock()
		return nil
	}
	if ok && sl.state == slotPending {
		// If the timer already fired, its flush sees a non-pending slot
		// and backs off.
		s.stopTimer(sl)
		sl.state = slotSaving
		sl.timer = nil
	} else {
		sl = &slot{state: slotSaving}
		s.slots[key] = sl
	}
	s.mu.Unlock()

	err := s.save(key)
	s.finish(key)
	return err
}

// Cancel drops any pending save for the record, used when the record is
// deleted. A save already in flight is not cancellable.
func (s *Syncer) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok || sl.state != slotPending {
		return
	}
	s.stopTimer(sl)
	delete(s.slots, key)
	delete(s.indicators, key)
}

// stopTimer stops a pending slot's timer, releasing its WaitGroup slot when
// the stop actually prevented the callback from running. Caller holds s.mu.
func (s *Syncer) stopTimer(sl *slot) {
	if sl.timer != nil && sl.timer.Stop() {
		s.wg.Done()
	}
}

// Saving reports whether the record's saving indicator should show: a save
// pending or in flight, or one that completed within the grace period.
func (s *Syncer) Saving(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[key]; ok {
		return true
	}
	until, ok := s.indicators[key]
	if !ok {
		return false
	}
	if time.Now().Before(until) {
		return true
	}
	delete(s.indicators, key)
	return false
}

// Wait blocks until every armed debounce timer has fired and its save
// completed. Used in shutdown and tests.
func (s *Syncer) Wait() { s.wg.Wait() }

// flush is the timer callback: moves the slot from pending to saving and
// performs the save.
func (s *Syncer) flush(key string) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok || sl.state != slotPending {
		s.mu.Unlock()
		return
	}
	sl.state = slotSaving
	sl.timer = nil
	s.mu.Unlock()

	if err := s.save(key); err != nil {
		slog.Error("record save failed", "key", key, "err", err)
	}
	s.finish(key)
}

// save snapshots the record and issues an insert (no server identity yet) or
// an update. On a successful insert the server-assigned id is merged back
// into the store. No lock is held across the data-service call.
func (s *Syncer) save(key string) error {
	rec, ok := s.store.Get(key)
	if !ok {
		// Deleted while the save was queued.
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if !rec.Persisted() {
		stored, err := s.backend.Insert(ctx, rec)
		if err != nil {
			s.publish(ctx, EventRecordSaveFailed, savePayload{Key: key, Action: "insert", Error: err.Error()})
			return err
		}
		s.store.AdoptIdentity(key, stored.ID)
		s.publish(ctx, EventRecordSaved, savePayload{Key: key, ID: stored.ID, Action: "insert"})
		return nil
	}

	if _, err := s.backend.Update(ctx, rec.ID, backend.RowFields(rec)); err != nil {
		s.publish(ctx, EventRecordSaveFailed, savePayload{Key: key, ID: rec.ID, Action: "update", Error: err.Error()})
		return err
	}
	s.publish(ctx, EventRecordSaved, savePayload{Key: key, ID: rec.ID, Action: "update"})
	return nil
}

// finish returns the slot to idle, starts the indicator grace period, and
// re-enters the debounce window when a follow-up was queued during the save.
// A record deleted while its save was in flight gets neither: its indicator
// entry is cleared rather than left to expire unobserved.
func (s *Syncer) finish(key string) {
	_, live := s.store.Get(key)

	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	rerun := sl.rerun && live
	delete(s.slots, key)
	if live {
		s.indicators[key] = time.Now().Add(s.grace)
	} else {
		delete(s.indicators, key)
	}
	s.mu.Unlock()

	if rerun {
		s.Schedule(key)
	}
}

// savePayload is the JSON body of save lifecycle events.
type savePayload struct {
	Key    string `json:"key"`
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

// publish sends one event, logging instead of failing on error.
func (s *Syncer) publish(ctx context.Context, channel string, payload savePayload) {
	raw, _ := json.Marshal(payload)
	if err := s.events.Publish(ctx, channel, raw); err != nil {
		slog.Warn("event publish failed", "channel", channel, "err", err)
	}
}
