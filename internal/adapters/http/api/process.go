package api

import (
	"net/http"
	"time"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/domain/dataset"
)

// ProcessHandler starts processing runs.
type ProcessHandler struct {
	deps    Dependencies
	cookies *session.Cookies
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(deps Dependencies, cookies *session.Cookies) *ProcessHandler {
	return &ProcessHandler{deps: deps, cookies: cookies}
}

type processResponse struct {
	Status     string     `json:"status"`
	Dataset    dataset.ID `json:"dataset"`
	Generation uint64     `json:"generation"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}

// HandleProcess handles POST /api/process requests. A run already in
// flight yields 409 and a saturated worker queue 503.
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	const op = "api.process"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id := h.cookies.ID(w, r)
	job, err := h.deps.Process(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, processResponse{
		Status:     "accepted",
		Dataset:    job.Dataset,
		Generation: job.Generation,
		EnqueuedAt: job.EnqueuedAt,
	})
}
