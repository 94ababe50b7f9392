package api

import (
	"encoding/json"
	"net/http"

	"card-battle-server/config"
)

// SessionCounter reports active-session counts; implemented by the room
// registry.
type SessionCounter interface {
	Count() int
}

// ConnectionCounter reports live-connection counts; implemented by the ws
// hub.
type ConnectionCounter interface {
	ConnectionCount() int
}

// Handler holds dependencies for the HTTP surface. The probe is read-only
// and has no effect on core behavior.
type Handler struct {
	Config      *config.Config
	Sessions    SessionCounter
	Connections ConnectionCounter
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, sessions SessionCounter, connections ConnectionCounter) *Handler {
	return &Handler{
		Config:      cfg,
		Sessions:    sessions,
		Connections: connections,
	}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

type healthResponse struct {
	Status            string `json:"status"`
	ActiveSessions    int    `json:"activeSessions"`
	ActiveConnections int    `json:"activeConnections"`
}

// Health answers the liveness probe with active-session and
// active-connection counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{Status: "ok"}
	if h.Sessions != nil {
		resp.ActiveSessions = h.Sessions.Count()
	}
	if h.Connections != nil {
		resp.ActiveConnections = h.Connections.ConnectionCount()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
