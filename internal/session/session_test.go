package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerroom/tableclient/internal/api"
	"github.com/pokerroom/tableclient/internal/protocol"
)

// wsTestServer is a minimal room server: it records every accepted
// connection and command, and can push frames to the latest client.
type wsTestServer struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	queries  []string
	received chan protocol.Command
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	ws := &wsTestServer{
		t:        t,
		received: make(chan protocol.Command, 16),
	}
	ws.server = httptest.NewServer(http.HandlerFunc(ws.handle))
	t.Cleanup(ws.close)
	return ws
}

func (ws *wsTestServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ws.mu.Lock()
	ws.conns = append(ws.conns, conn)
	ws.queries = append(ws.queries, r.URL.RawQuery)
	ws.mu.Unlock()

	go func() {
		for {
			var cmd protocol.Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			ws.received <- cmd
		}
	}()
}

func (ws *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(ws.server.URL, "http")
}

func (ws *wsTestServer) push(text string) {
	ws.mu.Lock()
	conn := ws.conns[len(ws.conns)-1]
	ws.mu.Unlock()
	require.NoError(ws.t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

func (ws *wsTestServer) dropClient() {
	ws.mu.Lock()
	conn := ws.conns[len(ws.conns)-1]
	ws.mu.Unlock()
	_ = conn.Close()
}

func (ws *wsTestServer) connCount() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.conns)
}

func (ws *wsTestServer) close() {
	ws.mu.Lock()
	for _, c := range ws.conns {
		_ = c.Close()
	}
	ws.mu.Unlock()
	ws.server.Close()
}

func newConnectedSession(t *testing.T, ws *wsTestServer, roomAPI RoomAPI, attempts int) *Session {
	t.Helper()
	s := New(Config{
		RoomID:            "r1",
		WSURL:             ws.url(),
		Creds:             api.Credentials{UserID: "me", Token: "tok"},
		API:               roomAPI,
		Logger:            log.New(io.Discard),
		Clock:             quartz.NewReal(),
		ReconnectAttempts: attempts,
		ReconnectDelay:    5 * time.Millisecond,
	})
	require.NoError(t, s.Connect(t.Context()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConnectSendsRoomAndToken(t *testing.T) {
	ws := newWSTestServer(t)
	newConnectedSession(t, ws, &fakeRoomAPI{}, 0)

	ws.mu.Lock()
	query := ws.queries[0]
	ws.mu.Unlock()
	assert.Contains(t, query, "roomID=r1")
	assert.Contains(t, query, "token=tok")
}

func TestConnectIsIdempotent(t *testing.T) {
	ws := newWSTestServer(t)
	s := newConnectedSession(t, ws, &fakeRoomAPI{}, 0)

	require.NoError(t, s.Connect(t.Context()))
	require.NoError(t, s.Connect(t.Context()))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, ws.connCount(), "at most one live socket per session")
}

func TestFramesFlowThroughSocket(t *testing.T) {
	ws := newWSTestServer(t)
	s := newConnectedSession(t, ws, &fakeRoomAPI{}, 0)

	ws.push("🎴 Your cards: A♠, 10♥")
	ws.push(`{"type":"update-game-state","payload":{"pot":99,"status":"playing"}}`)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Game.Pot == 99 && len(snap.MyCards) == 2
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, []string{"AS", "10H"}, snap.MyCards)
	assert.Equal(t, "playing", snap.Game.Status)
	assert.Equal(t, StateConnected, snap.Conn)
}

func TestSendActionReachesServer(t *testing.T) {
	ws := newWSTestServer(t)
	s := newConnectedSession(t, ws, &fakeRoomAPI{}, 0)

	s.SendAction(protocol.ActivityRaise, 50)

	select {
	case cmd := <-ws.received:
		assert.Equal(t, "me", cmd.UserID)
		assert.Equal(t, "r1", cmd.RoomID)
		assert.Equal(t, protocol.ActivityRaise, cmd.Activity)
		assert.Equal(t, []string{"50"}, cmd.Args)
	case <-time.After(time.Second):
		t.Fatal("command never reached the server")
	}
}

func TestSendReadyReachesServer(t *testing.T) {
	ws := newWSTestServer(t)
	s := newConnectedSession(t, ws, &fakeRoomAPI{}, 0)

	s.SendReady(true)

	select {
	case cmd := <-ws.received:
		assert.Equal(t, protocol.ActivityReady, cmd.Activity)
		assert.Equal(t, []string{"true"}, cmd.Args)
	case <-time.After(time.Second):
		t.Fatal("ready toggle never reached the server")
	}
}

func TestSendIsDroppedWhenSocketNotOpen(t *testing.T) {
	ws := newWSTestServer(t)
	s := New(Config{
		RoomID: "r1",
		WSURL:  ws.url(),
		Creds:  api.Credentials{UserID: "me", Token: "tok"},
		API:    &fakeRoomAPI{},
		Logger: log.New(io.Discard),
	})

	// Never connected: the command is silently dropped, not queued.
	s.SendAction(protocol.ActivityFold)

	require.NoError(t, s.Connect(t.Context()))
	t.Cleanup(func() { _ = s.Close() })

	select {
	case cmd := <-ws.received:
		t.Fatalf("unexpected command %v after connect; pre-connect sends must not be queued", cmd)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDroppedConnectionWithoutReconnectTerminates(t *testing.T) {
	ws := newWSTestServer(t)
	s := newConnectedSession(t, ws, &fakeRoomAPI{}, 0)

	ws.dropClient()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not terminate after connection loss")
	}
	assert.Equal(t, StateDisconnected, s.ConnectionState())

	// Post-mortem sends are dropped.
	s.SendAction(protocol.ActivityFold)
	select {
	case cmd := <-ws.received:
		t.Fatalf("unexpected command %v on dead session", cmd)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReconnectWithResync(t *testing.T) {
	ws := newWSTestServer(t)
	roomAPI := &fakeRoomAPI{
		state: &protocol.StateUpdate{Pot: 777, Status: "playing"},
	}
	s := newConnectedSession(t, ws, roomAPI, 3)

	ws.dropClient()

	require.Eventually(t, func() bool {
		return ws.connCount() == 2 && s.ConnectionState() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// The resync pull rebuilt the snapshot from REST.
	require.Eventually(t, func() bool {
		return s.Snapshot().Game.Pot == 777
	}, time.Second, 10*time.Millisecond)

	// The new socket is live: frames and commands still flow.
	ws.push(`{"type":"update-game-state","payload":{"pot":800}}`)
	require.Eventually(t, func() bool {
		return s.Snapshot().Game.Pot == 800
	}, time.Second, 5*time.Millisecond)
}

func TestCloseIsTerminal(t *testing.T) {
	ws := newWSTestServer(t)
	s := newConnectedSession(t, ws, &fakeRoomAPI{}, 3)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "double close is safe")

	assert.Equal(t, StateClosed, s.ConnectionState())
	assert.Error(t, s.Connect(t.Context()), "closed sessions do not reconnect")

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Close")
	}
}
