package api

import (
	"net/http"

	"grindhouse/scoreboard/internal/logging"

	"github.com/gorilla/websocket"
)

// newUpgrader accepts browser origins listed in CORS_ORIGINS and any client that sends no Origin.
func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// ServeWS handles GET /ws
func (h *Handlers) ServeWS() http.HandlerFunc {
	upgrader := newUpgrader(h.deps.Config.CORSOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the error response.
			logging.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
			return
		}

		if _, err := h.deps.Services.Hub.Attach(conn); err != nil {
			logging.Warn("Rejecting websocket connection", "error", err.Error())
			conn.Close()
		}
	}
}
