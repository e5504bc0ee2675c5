package chathub_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"babelbye/backend/internal/chathub"
	"babelbye/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func (p *fakePresence) MarkOnline(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[id] = true
	return nil
}

func (p *fakePresence) MarkOffline(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, id)
	return nil
}

func (p *fakePresence) isOnline(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

type sessionServer struct {
	srv      *httptest.Server
	registry *chathub.Registry
	presence *fakePresence
	store    *memStore
}

func newSessionServer(t *testing.T) *sessionServer {
	t.Helper()
	store := newMemStore()
	store.connect(userA, userB)
	store.addUser(userB, "fr", 1)
	tr := new(MockTranslator)
	tr.On("Translate", mock.Anything, "hello", "fr").Return("bonjour", nil)

	ss := &sessionServer{
		registry: chathub.NewRegistry(discardLogger()),
		presence: &fakePresence{online: map[string]bool{}},
		store:    store,
	}
	relay := chathub.NewRelay(store, tr, ss.registry, discardLogger())
	upgrader := websocket.Upgrader{}

	ss.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		chathub.NewWebSocketClient(r.URL.Query().Get("user_id"), conn, relay, ss.registry,
			ss.presence, discardLogger(), 8).Run()
	}))
	t.Cleanup(ss.srv.Close)
	return ss
}

func (ss *sessionServer) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ss.srv.URL, "http") + "/?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return ss.registry.IsOnline(userID) }, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestWebSocketClient_RelaysBetweenSessions(t *testing.T) {
	ss := newSessionServer(t)
	a := ss.dial(t, userA)
	b := ss.dial(t, userB)

	require.NoError(t, a.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"message","to":"`+userB+`","text":"hello","client_id":"c1"}`)))

	assert.Equal(t, map[string]any{
		"type": "message", "from": userA, "text": "bonjour", "original": "hello",
		"translated": true, "client_id": "c1",
	}, readFrame(t, b))
	assert.Equal(t, map[string]any{
		"type": "delivery", "to": userB, "status": "sent", "client_id": "c1",
	}, readFrame(t, a))
}

func TestWebSocketClient_MalformedFrameKeepsSessionOpen(t *testing.T) {
	ss := newSessionServer(t)
	a := ss.dial(t, userA)
	b := ss.dial(t, userB)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`)))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":"typing","to":"`+userB+`"}`)))

	assert.Equal(t, map[string]any{
		"type": "delivery", "to": userA, "status": "typing", "client_id": nil,
	}, readFrame(t, b))
	assert.True(t, ss.registry.IsOnline(userA))
}

func TestWebSocketClient_DisconnectReleasesSession(t *testing.T) {
	ss := newSessionServer(t)
	a := ss.dial(t, userA)
	require.Eventually(t, func() bool { return ss.presence.isOnline(userA) }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = a.Close()

	assert.Eventually(t, func() bool { return !ss.registry.IsOnline(userA) }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !ss.presence.isOnline(userA) }, time.Second, 5*time.Millisecond)
}

func TestWebSocketClient_ReplacedSessionDoesNotEvictNewOne(t *testing.T) {
	ss := newSessionServer(t)
	first := ss.dial(t, userA)
	_ = ss.dial(t, userB)

	second, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ss.srv.URL, "http")+"/?user_id="+userA, nil)
	require.NoError(t, err)
	defer second.Close()

	// Give the second handshake time to register before dropping the first.
	time.Sleep(50 * time.Millisecond)
	_ = first.Close()
	time.Sleep(50 * time.Millisecond)

	assert.True(t, ss.registry.IsOnline(userA))
	assert.True(t, ss.presence.isOnline(userA))

	ss.registry.Send(userA, models.ErrorEvent{Message: "ping"})
	assert.Equal(t, map[string]any{"type": "error", "message": "ping"}, readFrame(t, second))
}

func TestWebSocketClient_DeliverAfterCloseIsDropped(t *testing.T) {
	c := chathub.NewWebSocketClient(userA, nil, nil, chathub.NewRegistry(discardLogger()), nil, discardLogger(), 1)

	assert.True(t, c.Deliver(models.ErrorEvent{Message: "1"}))
	assert.False(t, c.Deliver(models.ErrorEvent{Message: "2"}), "queue of one is full")

	c.Close()
	c.Close()
	assert.False(t, c.Deliver(models.ErrorEvent{Message: "3"}))
}
