package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/adapters/render"
	"github.com/okian/snnvision/pkg/metrics"
)

// VisualizationHandler renders the event scatter plot of a session.
type VisualizationHandler struct {
	deps    Dependencies
	cookies *session.Cookies
}

// NewVisualizationHandler creates a new visualization handler.
func NewVisualizationHandler(deps Dependencies, cookies *session.Cookies) *VisualizationHandler {
	return &VisualizationHandler{deps: deps, cookies: cookies}
}

// Handler returns the handler for GET /api/visualization.<format>.
// An empty session renders an empty SVG canvas but 404s as PNG.
func (h *VisualizationHandler) Handler(f render.Format) http.HandlerFunc {
	op := "api.visualization_" + string(f)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		snap, err := h.deps.Snapshot(r.Context(), h.cookies.ID(w, r))
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}

		start := time.Now()
		var buf bytes.Buffer
		plot := render.Plot{
			Dataset:    snap.Dataset,
			Events:     snap.Events,
			Processing: snap.Processing(),
		}
		if err := render.Render(&buf, f, plot); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		metrics.RecordRenderLatency(string(f), float64(time.Since(start).Microseconds())/1000)

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
