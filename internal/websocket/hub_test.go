package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newTestServer starts a hub behind an httptest server and returns both.
func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeWS(hub, conn)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.BroadcastUpdate("operation:progress", "scraping", "running", map[string]interface{}{
		"progress": 50,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "operation:progress", msg["type"])
	assert.Equal(t, "scraping", msg["step"])
	assert.Equal(t, "running", msg["status"])
	assert.NotEmpty(t, msg["timestamp"])

	meta, ok := msg["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(50), meta["progress"])
}

func TestHubMultipleClients(t *testing.T) {
	hub, srv := newTestServer(t)

	c1 := dial(t, srv)
	c2 := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.BroadcastUpdate("operation:complete", "", "completed", nil)

	for _, conn := range []*websocket.Conn{c1, c2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(data), "operation:complete")
	}
}

func TestHubClientDisconnect(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	stats := hub.Stats()
	assert.Equal(t, int64(1), stats["total_connections"])
}

func TestHubStartIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	// Should not block or panic with nobody connected.
	hub.BroadcastUpdate("operation:status", "", "running", nil)
	assert.Equal(t, 0, hub.ClientCount())
}
