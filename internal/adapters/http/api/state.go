package api

import (
	"net/http"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/panels"
)

// StateHandler exposes the session snapshot.
type StateHandler struct {
	deps    Dependencies
	cookies *session.Cookies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps Dependencies, cookies *session.Cookies) *StateHandler {
	return &StateHandler{deps: deps, cookies: cookies}
}

// HandleState handles GET /api/state requests.
func (h *StateHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	const op = "api.state"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Snapshot(r.Context(), h.cookies.ID(w, r))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(snap))
}

type eventsResponse struct {
	Dataset    dataset.ID    `json:"dataset"`
	Generation uint64        `json:"generation"`
	Count      int           `json:"count"`
	Caption    string        `json:"caption,omitempty"`
	Events     []model.Event `json:"events"`
}

// HandleEvents handles GET /api/events requests.
func (h *StateHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.events"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Snapshot(r.Context(), h.cookies.ID(w, r))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	resp := eventsResponse{
		Dataset:    snap.Dataset,
		Generation: snap.Generation,
		Count:      len(snap.Events),
		Events:     snap.Events,
	}
	if resp.Events == nil {
		resp.Events = []model.Event{}
	}
	if snap.HasEvents() {
		resp.Caption = panels.Caption(len(snap.Events), snap.Dataset)
	}
	writeJSON(w, http.StatusOK, resp)
}
