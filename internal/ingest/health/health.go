// Package health exposes the poll loop's liveness and cycle counters over HTTP.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of the pipeline.
type Status string

const (
	// StatusOK indicates polling is running normally.
	StatusOK Status = "ok"

	// StatusDegraded indicates polling has stalled or publishes keep failing.
	StatusDegraded Status = "degraded"
)

// Report is the full health report.
type Report struct {
	Status          Status     `json:"status"`
	Uptime          string     `json:"uptime"`
	StartedAt       time.Time  `json:"startedAt"`
	LastPoll        *time.Time `json:"lastPoll,omitempty"`
	Polls           int64      `json:"polls"`
	EventsPublished int64      `json:"eventsPublished"`
	PublishErrors   int64      `json:"publishErrors"`
	DeadLettered    int64      `json:"deadLettered"`
}

// Checker tracks poll cycle outcomes for the health endpoint.
type Checker struct {
	startedAt  time.Time
	staleAfter time.Duration

	mu            sync.RWMutex
	lastPoll      *time.Time
	polls         int64
	published     int64
	publishErrors int64
	deadLettered  int64
}

// NewChecker creates a health checker. The status degrades when no poll
// has completed within staleAfter.
func NewChecker(staleAfter time.Duration) *Checker {
	return &Checker{
		startedAt:  time.Now(),
		staleAfter: staleAfter,
	}
}

// RecordPoll records a completed poll cycle.
func (h *Checker) RecordPoll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.lastPoll = &now
	h.polls++
}

// RecordPublish records a publish attempt outcome.
func (h *Checker) RecordPublish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.publishErrors++
	} else {
		h.published++
	}
}

// RecordDeadLetter records an event routed to the dead-letter sink.
func (h *Checker) RecordDeadLetter() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deadLettered++
}

// Report builds the current health report.
func (h *Checker) Report() Report {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := StatusOK
	if h.lastPoll != nil && h.staleAfter > 0 && time.Since(*h.lastPoll) > h.staleAfter {
		status = StatusDegraded
	}

	return Report{
		Status:          status,
		Uptime:          time.Since(h.startedAt).Round(time.Second).String(),
		StartedAt:       h.startedAt,
		LastPoll:        h.lastPoll,
		Polls:           h.polls,
		EventsPublished: h.published,
		PublishErrors:   h.publishErrors,
		DeadLettered:    h.deadLettered,
	}
}

// Handler returns an http.Handler serving the JSON report.
func (h *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := h.Report()

		w.Header().Set("Content-Type", "application/json")
		if report.Status != StatusOK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(report); err != nil {
			slog.Error("Failed to encode health report", "error", err)
		}
	})
}

// Serve runs the health endpoint until ctx is cancelled.
func (h *Checker) Serve(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, h.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Health endpoint listening", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
