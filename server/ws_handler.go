package server

import (
	"net/http"

	"tunehub/core/live"
	"tunehub/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StatsWSHandler upgrades the connection and hands it to the live stats hub,
// which pushes counter updates for the songs the client subscribes to.
func (h *APIHandler) StatsWSHandler(hub *live.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade failed", logger.ErrorField(err))
			return
		}
		hub.Register(conn)
	}
}
