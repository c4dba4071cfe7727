package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eugenenazirov/amplify-core-api/internal/validation"
)

// HealthModule serves GET /api/health.
type HealthModule struct {
	version   string
	clock     func() time.Time
	startedAt time.Time
}

// HealthOption configures HealthModule behaviour.
type HealthOption func(*HealthModule)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HealthOption {
	return func(h *HealthModule) {
		h.clock = clock
	}
}

// NewHealthModule constructs the health module reporting the given build version.
func NewHealthModule(version string, opts ...HealthOption) *HealthModule {
	h := &HealthModule{
		version: version,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.startedAt = h.clock()
	return h
}

// Mount implements Module.
func (h *HealthModule) Mount(r chi.Router, deps Dependencies) {
	r.Get("/health", h.handleHealth(deps.Validator))
}

func (h *HealthModule) handleHealth(v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var query healthQuery
		if err := v.DecodeQuery(r, &query); err != nil {
			WriteDecodeError(w, err)
			return
		}

		now := h.clock()
		resp := healthResponse{
			Status:    "ok",
			Timestamp: now,
		}
		if query.Verbose {
			startedAt := h.startedAt
			resp.Version = h.version
			resp.StartedAt = &startedAt
			resp.Uptime = now.Sub(h.startedAt).String()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

type healthQuery struct {
	Verbose bool `json:"verbose"`
}

type healthResponse struct {
	Status    string     `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Version   string     `json:"version,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	Uptime    string     `json:"uptime,omitempty"`
}
