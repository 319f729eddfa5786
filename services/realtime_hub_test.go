package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *RealtimeHub {
	t.Helper()
	hub := NewRealtimeHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *RealtimeClient) map[string]any {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var out map[string]any
		require.NoError(t, json.Unmarshal(msg, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return nil
}

func assertNothing(t *testing.T, c *RealtimeClient) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected event: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRealtimeHub_DeliversToAudienceAndTable(t *testing.T) {
	hub := startHub(t)

	aliceClient := NewRealtimeClient(hub, nil, alice, ParseTables(""))
	bobClient := NewRealtimeClient(hub, nil, bob, ParseTables(TableMessages))
	carolClient := NewRealtimeClient(hub, nil, carol, ParseTables(""))
	for _, c := range []*RealtimeClient{aliceClient, bobClient, carolClient} {
		hub.Register <- c
	}

	hub.Publish(ChangeEvent{
		Table:    TableMatchRequests,
		Event:    EventUpdate,
		Record:   map[string]any{"id": "m1"},
		Audience: []uuid.UUID{alice, bob},
	})

	got := receive(t, aliceClient)
	assert.Equal(t, TableMatchRequests, got["table"])
	assert.Equal(t, EventUpdate, got["event"])
	assert.Equal(t, "m1", got["record"].(map[string]any)["id"])
	assert.NotContains(t, got, "Audience")

	assertNothing(t, bobClient)   // not subscribed to match_requests
	assertNothing(t, carolClient) // not in the audience
}

func TestRealtimeHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	c := NewRealtimeClient(hub, nil, alice, ParseTables(""))
	hub.Register <- c
	hub.Unregister <- c

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestRealtimeHub_PublishWithoutAudienceIsDropped(t *testing.T) {
	hub := startHub(t)
	c := NewRealtimeClient(hub, nil, alice, ParseTables(""))
	hub.Register <- c

	hub.Publish(ChangeEvent{Table: TableMessages, Event: EventInsert})
	assertNothing(t, c)
}

func TestParseTables(t *testing.T) {
	all := ParseTables("")
	assert.Len(t, all, 3)

	some := ParseTables(" messages , bogus,match_results")
	assert.Equal(t, map[string]bool{TableMessages: true, TableMatchResults: true}, some)

	assert.Len(t, ParseTables("bogus"), 3)
}

func TestRealtimeClient_WebsocketRoundTrip(t *testing.T) {
	hub := startHub(t)
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewRealtimeClient(hub, conn, alice, ParseTables(TableMatchResults))
		hub.Register <- c
		close(registered)
		go c.WritePump()
		c.ReadPump()
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()
	<-registered

	// Switch the subscription to messages, then give the hub a moment to apply it.
	require.NoError(t, ws.WriteJSON(map[string]any{"action": "subscribe", "tables": []string{TableMessages}}))
	time.Sleep(50 * time.Millisecond)

	hub.Publish(ChangeEvent{Table: TableMatchResults, Event: EventInsert, Record: map[string]any{"id": "r1"}, Audience: []uuid.UUID{alice}})
	hub.Publish(ChangeEvent{Table: TableMessages, Event: EventInsert, Record: map[string]any{"id": "msg1"}, Audience: []uuid.UUID{alice}})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]any
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, TableMessages, ev["table"])
	assert.Equal(t, "msg1", ev["record"].(map[string]any)["id"])
}
