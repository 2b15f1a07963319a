package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReadinessPinger verifies that the backing dependencies are reachable.
type ReadinessPinger interface {
	Ping(ctx context.Context) error
}

// BuildInfo carries the version metadata reported on /healthz.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	build  BuildInfo
	pinger ReadinessPinger
	clock  func() time.Time
}

// HealthOption customises HealthHandlers construction.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo sets the build metadata reported by /healthz.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthPinger sets the dependency checker used by /readyz.
func WithHealthPinger(pinger ReadinessPinger) HealthOption {
	return func(h *HealthHandlers) {
		h.pinger = pinger
	}
}

// WithHealthClock injects a custom clock (useful for tests).
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs HealthHandlers with the provided options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	handlers := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(handlers)
		}
	}
	if handlers.build.StartedAt.IsZero() {
		handlers.build.StartedAt = handlers.clock()
	}
	return handlers
}

// Healthz reports liveness and build metadata. It never touches dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz reports readiness by probing the backing dependencies.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.pinger == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	if err := h.pinger.Ping(r.Context()); err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}
