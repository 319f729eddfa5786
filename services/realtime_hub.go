package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pickYourSocksAPI/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

const (
	TableMatchRequests = "match_requests"
	TableMatchResults  = "match_results"
	TableMessages      = "messages"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent is a row change pushed to the users in Audience.
type ChangeEvent struct {
	Table    string      `json:"table"`
	Event    string      `json:"event"`
	Record   any         `json:"record"`
	Audience []uuid.UUID `json:"-"`
}

type EventPublisher interface {
	Publish(ev ChangeEvent)
}

type subscription struct {
	client *RealtimeClient
	tables map[string]bool
}

// RealtimeHub fans change events out to subscribed websocket clients.
// All client bookkeeping happens on the Run goroutine.
type RealtimeHub struct {
	clients map[*RealtimeClient]bool

	Register   chan *RealtimeClient
	Unregister chan *RealtimeClient
	broadcast  chan ChangeEvent
	subscribe  chan subscription
	stop       chan struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{
		clients:    make(map[*RealtimeClient]bool),
		Register:   make(chan *RealtimeClient),
		Unregister: make(chan *RealtimeClient),
		broadcast:  make(chan ChangeEvent, 256),
		subscribe:  make(chan subscription),
		stop:       make(chan struct{}),
	}
}

func (h *RealtimeHub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true

		case client := <-h.Unregister:
			h.drop(client)

		case sub := <-h.subscribe:
			if h.clients[sub.client] {
				sub.client.tables = sub.tables
			}

		case ev := <-h.broadcast:
			h.deliver(ev)

		case <-h.stop:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

func (h *RealtimeHub) drop(client *RealtimeClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *RealtimeHub) deliver(ev ChangeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Log.WithError(err).WithField("table", ev.Table).Error("Realtime: failed to encode event")
		return
	}

	audience := make(map[uuid.UUID]bool, len(ev.Audience))
	for _, id := range ev.Audience {
		audience[id] = true
	}

	for client := range h.clients {
		if !audience[client.UserID] || !client.tables[ev.Table] {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			// Slow consumer; it re-fetches after reconnecting.
			h.drop(client)
		}
	}
}

// Publish never blocks the caller. Events are dropped when the buffer is full.
func (h *RealtimeHub) Publish(ev ChangeEvent) {
	if len(ev.Audience) == 0 {
		return
	}
	select {
	case h.broadcast <- ev:
	default:
		logging.Log.WithField("table", ev.Table).Warn("Realtime: event buffer full, dropping event")
	}
}

// Attach registers a client unless the hub has stopped.
func (h *RealtimeHub) Attach(c *RealtimeClient) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.stop:
		return false
	}
}

func (h *RealtimeHub) Stop() {
	close(h.stop)
}

// ParseTables reads a comma separated subscription list. Empty means every table.
func ParseTables(raw string) map[string]bool {
	known := map[string]bool{TableMatchRequests: true, TableMatchResults: true, TableMessages: true}
	out := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if known[t] {
			out[t] = true
		}
	}
	if len(out) == 0 {
		return known
	}
	return out
}

// RealtimeClient sits between one websocket connection and the hub.
type RealtimeClient struct {
	Hub    *RealtimeHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID

	tables map[string]bool
}

func NewRealtimeClient(hub *RealtimeHub, conn *websocket.Conn, userID uuid.UUID, tables map[string]bool) *RealtimeClient {
	return &RealtimeClient{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
		tables: tables,
	}
}

type realtimeCommand struct {
	Action string   `json:"action"`
	Tables []string `json:"tables"`
}

// ReadPump only understands subscription changes; anything else is ignored.
func (c *RealtimeClient) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.stop:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WithUser(c.UserID.String()).WithError(err).Info("Realtime: connection closed")
			}
			return
		}

		var cmd realtimeCommand
		if err := json.Unmarshal(message, &cmd); err != nil || cmd.Action != "subscribe" {
			continue
		}
		select {
		case c.Hub.subscribe <- subscription{client: c, tables: ParseTables(strings.Join(cmd.Tables, ","))}:
		case <-c.Hub.stop:
			return
		}
	}
}

// WritePump handles messages going to the client.
func (c *RealtimeClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
