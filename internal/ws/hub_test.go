package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)
	go hub.Run()
	return hub, cancel
}

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, hub, userID)
		hub.Register(client)
		client.Run(context.Background())
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	owner, other := uuid.New(), uuid.New()
	ownerConn := dial(t, hub, owner)
	otherConn := dial(t, hub, other)
	waitClients(t, hub, 2)

	require.NoError(t, hub.BroadcastToUser(owner, "item.resolved", map[string]any{"reputation": 10}))

	_ = ownerConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := ownerConn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "item.resolved", ev.Type)
	assert.EqualValues(t, 10, ev.Data["reputation"])

	_ = otherConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = otherConn.ReadMessage()
	assert.Error(t, err, "чужой пользователь не получает событие")
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	conn := dial(t, hub, uuid.New())
	waitClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitClients(t, hub, 0)
}

type loopbackRelay struct {
	mu        sync.Mutex
	deliver   func(uuid.UUID, []byte)
	published int
	fail      bool
	ready     chan struct{}
}

func (r *loopbackRelay) Publish(ctx context.Context, userID uuid.UUID, payload []byte) error {
	if r.fail {
		return errors.New("redis down")
	}
	r.mu.Lock()
	r.published++
	deliver := r.deliver
	r.mu.Unlock()
	deliver(userID, payload)
	return nil
}

func (r *loopbackRelay) Subscribe(ctx context.Context, deliver func(uuid.UUID, []byte)) error {
	r.mu.Lock()
	r.deliver = deliver
	r.mu.Unlock()
	close(r.ready)
	<-ctx.Done()
	return nil
}

func TestHub_RelayRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(ctx)
	relay := &loopbackRelay{ready: make(chan struct{})}
	hub.SetRelay(relay)
	go hub.Run()
	<-relay.ready

	userID := uuid.New()
	conn := dial(t, hub, userID)
	waitClients(t, hub, 1)

	require.NoError(t, hub.BroadcastToUser(userID, "message.new", "hi"))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "message.new")
	assert.Equal(t, 1, relay.published)

	relay.fail = true
	require.NoError(t, hub.BroadcastToUser(userID, "message.new", "fallback"))
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "fallback")
}

func TestParseUserChannel(t *testing.T) {
	id := uuid.New()
	got, err := parseUserChannel(userChannelPrefix + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseUserChannel("other:" + id.String())
	assert.Error(t, err)
}
