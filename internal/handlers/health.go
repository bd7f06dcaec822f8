package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/hanko-field/namedmenus/internal/platform/httpx"
)

const defaultReadinessTimeout = 3 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	startedAt time.Time
	clock     func() time.Time
	timeout   time.Duration
	checks    map[string]ReadinessCheck
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithHealthClock overrides the clock used for uptime and timestamps.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if now != nil {
			h.clock = now
		}
	}
}

// WithHealthStartedAt sets the process start time reported as uptime.
func WithHealthStartedAt(t time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if !t.IsZero() {
			h.startedAt = t
		}
	}
}

// WithReadinessCheck registers a named dependency check for /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// NewHealthHandlers constructs the health handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		startedAt: time.Now(),
		clock:     time.Now,
		timeout:   defaultReadinessTimeout,
		checks:    map[string]ReadinessCheck{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Healthz reports liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).Round(time.Second).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz runs every readiness check and answers 503 when any fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	httpx.WriteJSON(w, status, map[string]any{
		"status":    overall,
		"checks":    results,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
