package handler

import (
	"errors"
	"net/http"

	"github.com/valmatch-sync/internal/upstream"
)

// ProxyHandler forwards match-data queries to the public upstream API.
type ProxyHandler struct {
	client *upstream.Client
}

func NewProxyHandler(client *upstream.Client) *ProxyHandler {
	return &ProxyHandler{client: client}
}

// Forward relays GET /proxy?q=<feed> to the upstream and passes the JSON
// payload through untouched. Upstream errors keep their original status.
func (h *ProxyHandler) Forward(w http.ResponseWriter, r *http.Request) {
	feed := r.URL.Query().Get("q")

	data, err := h.client.Matches(r.Context(), feed)
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) {
			writeJSON(w, se.Code, UpstreamErrorEnvelope{
				Error:   "Error from upstream match API",
				Status:  se.Code,
				Message: se.Body,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
