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

func TestHub_SendToUserReachesOnlyThatUser(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, r.URL.Query().Get("user"))
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	dial := func(user string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}

	alice := dial("alice")
	defer alice.Close()
	bob := dial("bob")
	defer bob.Close()

	require.Eventually(t, func() bool {
		return hub.Connected("alice") == 1 && hub.Connected("bob") == 1
	}, time.Second, 10*time.Millisecond)

	hub.SendToUser("alice", "match", map[string]string{"matchId": "m1"})

	alice.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "match", frame.Type)
	assert.Equal(t, "m1", frame.Payload["matchId"])

	bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond)) //nolint:errcheck
	_, _, err = bob.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's frame")
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "carol")
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Connected("carol") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connected("carol") == 0 }, time.Second, 10*time.Millisecond)
}
