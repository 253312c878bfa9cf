package realtime

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

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(http.HandlerFunc(NewHandler(hub, nil, nil).ServeWS))
	t.Cleanup(server.Close)
	return hub, server
}

func TestHub_PublishReachesProjectSubscribers(t *testing.T) {
	hub, server := startHub(t)

	p1 := dial(t, server, "?project=p1")
	all := dial(t, server, "")
	assert.Equal(t, "welcome", readMessage(t, p1).Type)
	assert.Equal(t, "welcome", readMessage(t, all).Type)

	// The welcome is only written once the hub has registered the client.
	hub.Publish("p1", "edit", map[string]int{"version": 1})

	msg := readMessage(t, p1)
	assert.Equal(t, "edit", msg.Type)
	assert.Equal(t, "p1", msg.ProjectID)
	assert.Equal(t, "edit", readMessage(t, all).Type)
}

func TestHub_ProjectFilter(t *testing.T) {
	hub, server := startHub(t)

	other := dial(t, server, "?project=p2")
	readMessage(t, other)

	hub.Publish("p1", "edit", nil)
	hub.Publish("p2", "seek", map[string]float64{"time": 3})

	msg := readMessage(t, other)
	assert.Equal(t, "seek", msg.Type)
	assert.Equal(t, "p2", msg.ProjectID)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(NewHandler(hub, nil, nil).ServeWS))
	defer server.Close()

	conn := dial(t, server, "")
	readMessage(t, conn)

	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHandler_ForbiddenOrigin(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(NewHandler(hub, []string{"http://localhost:3000"}, nil).ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	header.Set("Origin", "http://evil.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish("p", "edit", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}
