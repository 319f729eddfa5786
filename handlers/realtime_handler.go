package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub *services.RealtimeHub
}

func NewRealtimeHandler(hub *services.RealtimeHub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /api/v1/realtime?access_token=...&tables=match_requests,messages
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	tables := services.ParseTables(r.URL.Query().Get("tables"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logging.WithUser(sess.UserID.String()).WithError(err).Warn("Realtime: upgrade failed")
		return
	}

	client := services.NewRealtimeClient(h.hub, conn, sess.UserID, tables)
	if !h.hub.Attach(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
