package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valmatch-sync/internal/application/notification"
	"github.com/valmatch-sync/internal/domain"
	"github.com/valmatch-sync/internal/pkg/validate"
)

// NotificationHandler exposes the per-user notification-set document:
// whole-document GET and POST, single-match DELETE.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// Get returns the caller's notification set. The envelope always carries
// a notifiedMatches object so clients can fail open to empty.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, NotificationEnvelope{
			NotifiedMatches: domain.NotificationSet{},
			Error:           "Missing userId parameter",
		})
		return
	}

	set, err := h.svc.Fetch(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, NotificationEnvelope{
			NotifiedMatches: domain.NotificationSet{},
			Error:           "Failed to read notifications",
		})
		return
	}
	writeJSON(w, http.StatusOK, NotificationEnvelope{NotifiedMatches: set})
}

type saveRequest struct {
	UserID          string                 `json:"userId" validate:"required"`
	NotifiedMatches domain.NotificationSet `json:"notifiedMatches"`
}

// Save replaces the caller's whole notification set. An empty object is a
// legal document (the cleanup pass prunes sets down to nothing); only a
// missing field is rejected.
func (h *NotificationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	// An empty map is a legal document; only nil means the field was absent.
	if validate.Struct(req) != nil || req.NotifiedMatches == nil {
		writeError(w, http.StatusBadRequest, "Missing userId or notifiedMatches in request body")
		return
	}

	if err := h.svc.Replace(r.Context(), req.UserID, req.NotifiedMatches); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save notifications")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success: true,
		Message: "Notifications saved successfully",
	})
}

type deleteRequest struct {
	UserID  string `json:"userId" validate:"required"`
	MatchID string `json:"matchId" validate:"required"`
}

// Delete removes one match from the caller's set. Deleting an absent
// match still succeeds — cancels race with fired triggers across devices.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing userId or matchId in request body")
		return
	}

	if err := h.svc.DeleteOne(r.Context(), req.UserID, req.MatchID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success: true,
		Message: "Notification deleted successfully",
	})
}
