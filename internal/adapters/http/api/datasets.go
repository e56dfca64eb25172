package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/panels"
)

// DatasetHandler serves the dataset cards and the selection endpoint.
type DatasetHandler struct {
	deps    Dependencies
	cookies *session.Cookies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps Dependencies, cookies *session.Cookies) *DatasetHandler {
	return &DatasetHandler{deps: deps, cookies: cookies}
}

type datasetsResponse struct {
	Selected dataset.ID    `json:"selected"`
	Datasets []panels.Card `json:"datasets"`
}

// selectRequest mirrors the OpenAPI schema for POST /api/dataset.
type selectRequest struct {
	Dataset string `json:"dataset"`
}

// HandleList handles GET /api/datasets requests.
func (h *DatasetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_datasets"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := h.cookies.ID(w, r)
	snap, err := h.deps.Snapshot(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, datasetsResponse{
		Selected: snap.Dataset,
		Datasets: panels.DatasetCards(snap.Dataset),
	})
}

// HandleSelect handles POST /api/dataset requests.
func (h *DatasetHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_dataset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ds, err := dataset.Parse(req.Dataset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id := h.cookies.ID(w, r)
	snap, err := h.deps.Select(r.Context(), id, ds)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(snap))
}
