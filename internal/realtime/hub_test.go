package realtime_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/realtime"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server, userID uuid.UUID) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID.String()
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *realtime.Hub, userID uuid.UUID, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ConnectionCount(userID) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SendToUser(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, uuid.MustParse(r.URL.Query().Get("user")))
	}))
	defer srv.Close()

	alice := uuid.New()
	bob := uuid.New()
	aliceConn := dial(t, srv, alice)
	bobConn := dial(t, srv, bob)
	waitForConnections(t, hub, alice, 1)
	waitForConnections(t, hub, bob, 1)

	hub.SendToUser(alice, realtime.Event{Type: realtime.EventNotificationCreated, ID: "n1", Action: "create"})

	_ = aliceConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := aliceConn.ReadMessage()
	require.NoError(t, err)

	var evt realtime.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, realtime.EventNotificationCreated, evt.Type)
	assert.Equal(t, "n1", evt.ID)

	// Bob receives nothing
	_ = bobConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, uuid.MustParse(r.URL.Query().Get("user")))
	}))
	defer srv.Close()

	user := uuid.New()
	conn := dial(t, srv, user)
	waitForConnections(t, hub, user, 1)

	require.NoError(t, conn.Close())
	waitForConnections(t, hub, user, 0)

	// Sending to a user with no connections is a no-op
	hub.SendToUser(user, realtime.Event{Type: realtime.EventMessageCreated})
}
