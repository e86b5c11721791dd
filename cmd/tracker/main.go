// job-tracker — tracker service
//
// Hosts the optimistic state layer for a job-application tracker:
//   - in-memory record store with instant field-level edits
//   - token-prefix search index with substring fallback
//   - debounced sync engine persisting to the external data service
//   - derived views: month groups, status tallies, autocomplete sets
//
// Save lifecycle events are published to Redis for SSE forwarding.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/duaragha/job-tracker-sub001/internal/backend"
	"github.com/duaragha/job-tracker-sub001/internal/config"
	"github.com/duaragha/job-tracker-sub001/internal/scheduler"
	"github.com/duaragha/job-tracker-sub001/internal/tracker"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("[tracker] No .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[tracker] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Data service ─────────────────────────────────────────────────────────
	var store backend.Store
	switch cfg.Backend {
	case config.BackendPostgres:
		log.Println("[tracker] Connecting to PostgreSQL…")
		pool, err := backend.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[tracker] PostgreSQL: %v", err)
		}
		defer pool.Close()
		log.Println("[tracker] PostgreSQL connected ✓")
		pg := backend.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("[tracker] Migrate: %v", err)
		}
		store = pg
	case config.BackendREST:
		log.Printf("[tracker] Using REST data service at %s", cfg.DataAPIURL)
		store = backend.NewREST(cfg.DataAPIURL, cfg.DataAPIKey)
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[tracker] Connecting to Redis…")
	events, err := tracker.NewRedisPublisherFromURL(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[tracker] Redis: %v", err)
	}
	defer events.Close()
	log.Println("[tracker] Redis connected ✓")

	// ── Core state layer ─────────────────────────────────────────────────────
	records := tracker.NewStore()
	syncer := tracker.NewSyncer(tracker.SyncerOpts{
		Store:    records,
		Backend:  store,
		Events:   events,
		Debounce: cfg.SaveDebounce,
	})

	// ── Refresh scheduler (runs the initial load) ────────────────────────────
	sched := scheduler.New(records, syncer, store, events, cfg.RefreshIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[tracker] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := tracker.NewHandler(records, syncer, store)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[tracker] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[tracker] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[tracker] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[tracker] Shutdown error: %v", err)
	}

	// Let pending debounced saves flush before the process exits.
	syncer.Wait()
	log.Println("[tracker] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "tracker",
		"version": version,
	})
}
