// HTTP handlers for the tracker service.
//
// Routes:
//
//	GET    /jobs                → full ordered record list
//	POST   /jobs                → add a record with default values
//	POST   /jobs/{key}/field    → apply one field edit, schedule its save
//	DELETE /jobs/{key}          → remove a record
//	POST   /jobs/bulk           → apply one edit to many records, save each
//	GET    /jobs/search?q=      → prefix search (+ substring fallback)
//	GET    /jobs/groups         → records grouped by applied month
//	GET    /jobs/stats          → per-status tallies
//	GET    /jobs/suggestions    → autocomplete value sets
package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/duaragha/job-tracker-sub001/internal/backend"
	"github.com/duaragha/job-tracker-sub001/internal/model"
	"github.com/duaragha/job-tracker-sub001/internal/views"
)

// Handler holds shared dependencies for the HTTP surface.
type Handler struct {
	store   *Store
	syncer  *Syncer
	backend backend.Store
	cache   *views.Cache
}

// NewHandler returns a configured Handler.
func NewHandler(store *Store, syncer *Syncer, b backend.Store) *Handler {
	return &Handler{store: store, syncer: syncer, backend: b, cache: views.NewCache()}
}

// RegisterRoutes mounts all tracker routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/search", h.searchJobs)
	mux.HandleFunc("/jobs/groups", h.groupJobs)
	mux.HandleFunc("/jobs/stats", h.jobStats)
	mux.HandleFunc("/jobs/suggestions", h.jobSuggestions)
	mux.HandleFunc("/jobs/bulk", h.bulkEdit)
	mux.HandleFunc("/jobs/", h.handleJobAction)
}

// jobView is a record plus its transient saving indicator.
type jobView struct {
	model.JobRecord
	Saving bool `json:"saving"`
}

func (h *Handler) viewsOf(records []model.JobRecord) []jobView {
	out := make([]jobView, 0, len(records))
	for _, r := range records {
		out = append(out, jobView{JobRecord: r, Saving: h.syncer.Saving(r.Key)})
	}
	return out
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleJobs handles GET /jobs and POST /jobs.
func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonOK(w, h.viewsOf(h.store.Records()))
	case http.MethodPost:
		rec := h.store.Add()
		h.syncer.Schedule(rec.Key)
		jsonOK(w, jobView{JobRecord: rec, Saving: true})
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobAction handles POST /jobs/{key}/field and DELETE /jobs/{key}.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.deleteJob(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "field" && r.Method == http.MethodPost:
		h.setField(w, r, parts[1])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) setField(w http.ResponseWriter, r *http.Request, key string) {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Field == "" {
		jsonError(w, "body must contain field", http.StatusBadRequest)
		return
	}

	rec, err := h.store.SetField(key, body.Field, body.Value)
	if errors.Is(err, ErrNoRecord) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.syncer.Schedule(key)
	jsonOK(w, jobView{JobRecord: rec, Saving: true})
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request, key string) {
	rec, ok := h.store.Remove(key)
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	h.syncer.Cancel(key)

	// Never-persisted records exist only locally; nothing to delete remotely.
	if rec.Persisted() {
		if err := h.backend.Delete(r.Context(), rec.ID); err != nil {
			log.Printf("[tracker] delete job %s: %v", rec.ID, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// bulkEdit applies one field edit to every listed record and persists each
// in turn. Best-effort: a failure on one record is reported and the rest
// still proceed.
func (h *Handler) bulkEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Keys  []string `json:"keys"`
		Field string   `json:"field"`
		Value string   `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Field == "" || len(body.Keys) == 0 {
		jsonError(w, "body must contain keys and field", http.StatusBadRequest)
		return
	}

	result := struct {
		Updated int      `json:"updated"`
		Failed  []string `json:"failed,omitempty"`
	}{}
	for _, key := range body.Keys {
		if _, err := h.store.SetField(key, body.Field, body.Value); err != nil {
			log.Printf("[tracker] bulk edit %s: %v", key, err)
			result.Failed = append(result.Failed, key)
			continue
		}
		if err := h.syncer.SaveNow(key); err != nil {
			log.Printf("[tracker] bulk save %s: %v", key, err)
			result.Failed = append(result.Failed, key)
			continue
		}
		result.Updated++
	}
	jsonOK(w, result)
}

func (h *Handler) searchJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query().Get("q")
	records := h.store.Search(q)
	if records == nil {
		records = []model.JobRecord{}
	}
	jsonOK(w, h.viewsOf(records))
}

func (h *Handler) groupJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.cache.Grouping(h.store.Version(), h.store.Records()))
}

func (h *Handler) jobStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.cache.Stats(h.store.Version(), h.store.Records()))
}

func (h *Handler) jobSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.cache.Suggestions(h.store.Version(), h.store.Records()))
}

// ─── JSON helpers ─────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[tracker] encode response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":%q}`+"\n", msg)
}
