package realtime

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// WebSocketHandler handles WebSocket upgrade requests for match viewers
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm}
}

// HandleMatchConnection streams snapshots of the match named by the match_id
// query parameter. Viewing is public.
func (h *WebSocketHandler) HandleMatchConnection(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match_id")
	if matchID == "" {
		http.Error(w, "match_id is required", http.StatusBadRequest)
		return
	}

	err := h.connectionManager.UpgradeConnection(w, r, matchID)
	switch {
	case err == nil:
	case errors.Is(err, errUpgrade):
		// The upgrader has already replied.
		log.Warn().Err(err).Str("match_id", matchID).Msg("failed to upgrade WebSocket connection")
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "match not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Str("match_id", matchID).Msg("failed to open match watch")
		http.Error(w, "failed to open match watch", http.StatusInternalServerError)
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/match", h.HandleMatchConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}
