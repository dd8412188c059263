package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Add(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := dialHub(t, hub)
	require.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(map[string]string{"type": "enrolled"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"enrolled"}`, string(payload))
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := dialHub(t, hub)
	require.Equal(t, 1, hub.ClientCount())

	// collect the server-side conn to remove it twice
	hub.mu.Lock()
	var server *websocket.Conn
	for conn := range hub.clients {
		server = conn
	}
	hub.mu.Unlock()
	require.NotNil(t, server)

	hub.Remove(server)
	hub.Remove(server)
	assert.Equal(t, 0, hub.ClientCount())

	// a broadcast after removal reaches nobody and does not panic
	hub.Broadcast(map[string]string{"type": "payment"})

	client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}
