package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valmatch-sync/internal/application/icon"
	"github.com/valmatch-sync/internal/domain"
)

// IconHandler serves the shared tournament-icon document.
type IconHandler struct {
	svc icon.Service
}

func NewIconHandler(svc icon.Service) *IconHandler {
	return &IconHandler{svc: svc}
}

func (h *IconHandler) List(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read icons")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type mergeIconsRequest struct {
	Icons []domain.TournamentIcon `json:"icons"`
}

// Merge accepts a batch of icons discovered by an installation and adds
// the names not seen before.
func (h *IconHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeIconsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Icons == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.Merge(r.Context(), req.Icons); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update icons")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Icons updated successfully"})
}
