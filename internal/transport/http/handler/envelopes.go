package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valmatch-sync/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NotificationEnvelope wraps notification-set reads. NotifiedMatches is
// always present, even on errors — clients fail open to an empty set.
type NotificationEnvelope struct {
	NotifiedMatches domain.NotificationSet `json:"notifiedMatches"`
	Error           string                 `json:"error,omitempty"`
}

// UpstreamErrorEnvelope relays an upstream failure with its original status.
type UpstreamErrorEnvelope struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
