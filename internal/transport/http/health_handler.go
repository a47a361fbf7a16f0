package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves liveness checks.
type HealthHandler struct {
	version   string
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, startedAt: time.Now()}
}

// Routes returns the health endpoint routes
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	return r
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Render implements the render.Renderer interface
func (h *HealthResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// Health responds with the service status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, &HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startedAt).Round(time.Second).String(),
	})
}
