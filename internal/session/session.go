// Package session implements the table session client: one WebSocket per
// room, decoded frames reconciled into a single authoritative snapshot, a
// turn-triggered legal-action fetch, and best-effort outbound commands.
//
// The session is the only writer of its snapshot. Everything else — the TUI,
// the CLI, tests — observes through Snapshot and Updates and talks back
// through SendAction/SendReady.
package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pokerroom/tableclient/internal/api"
	"github.com/pokerroom/tableclient/internal/protocol"
)

// ConnState is the session's connection lifecycle phase.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
	StateClosed       ConnState = "closed"
)

const (
	// actionFetchInterval throttles available-action fetches: at most one
	// per window no matter how many turn edges arrive.
	actionFetchInterval = time.Second

	// reconnectBackoffCap bounds the exponential backoff between re-dials.
	reconnectBackoffCap = 30 * time.Second

	defaultReconnectDelay    = time.Second
	defaultReconnectAttempts = 5

	restCallTimeout = 5 * time.Second
)

// RoomAPI is the REST surface the session depends on. *api.Client
// satisfies it; tests substitute stubs.
type RoomAPI interface {
	PlayersByID(ctx context.Context, ids []string) ([]protocol.Player, error)
	AvailableActions(ctx context.Context, roomID, userID string) ([]string, error)
	RoomState(ctx context.Context, roomID string) (*protocol.StateUpdate, error)
}

// Config carries everything a session needs at construction. Credentials
// are passed explicitly; the session never reads ambient state.
type Config struct {
	RoomID string
	WSURL  string // ws/wss endpoint; roomID and token are appended as query params
	Creds  api.Credentials
	API    RoomAPI
	Logger *log.Logger
	Clock  quartz.Clock

	// ReconnectAttempts bounds the re-dial loop after a dropped
	// connection. Zero disables reconnection entirely.
	ReconnectAttempts int

	// ReconnectDelay is the initial backoff, doubled per attempt up to
	// reconnectBackoffCap. Defaults to one second.
	ReconnectDelay time.Duration
}

// GameState is the authoritative table snapshot, replaced wholesale on each
// reconciled update. RoomID is fixed for the session's lifetime.
type GameState struct {
	Players        []protocol.Player
	CommunityCards []string
	Pot            int
	CurrentTurn    string
	WinnerID       string
	RoomID         string
	Status         protocol.RoomStatus
}

// Snapshot bundles everything observers read, deep-copied so readers never
// alias session-owned memory.
type Snapshot struct {
	Game             GameState
	MyCards          []string
	AvailableActions []string
	ReadyStatus      map[string]bool
	Conn             ConnState
}

// Session is a live client for one table.
type Session struct {
	cfg    Config
	logger *log.Logger
	clock  quartz.Clock
	api    RoomAPI

	mu        sync.RWMutex
	writeMu   sync.Mutex
	conn      *websocket.Conn
	connState ConnState
	closed    bool

	game    GameState
	myCards []string
	actions []string
	ready   map[string]bool

	// Turn-edge marker plus time throttle for the action fetcher.
	lastFetchedTurn    string
	lastActionsFetchAt time.Time

	// Every state frame gets a version; roster commits are version-checked
	// so a slow players-by-id round trip can never overwrite a newer
	// roster.
	frameVersion   uint64
	playersVersion uint64

	updates chan struct{}
	done    chan struct{}
}

// New builds a session for one room. It does not dial; call Connect.
func New(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}

	id := uuid.NewString()[:8]
	return &Session{
		cfg:       cfg,
		logger:    cfg.Logger.WithPrefix("session").With("id", id, "room", cfg.RoomID),
		clock:     cfg.Clock,
		api:       cfg.API,
		connState: StateDisconnected,
		game:      GameState{RoomID: cfg.RoomID},
		ready:     make(map[string]bool),
		updates:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Connect dials the room's WebSocket and starts the read loop. It is
// idempotent: a second call while a socket is live or dialing is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	if s.connState == StateConnected || s.connState == StateConnecting || s.connState == StateReconnecting {
		s.mu.Unlock()
		return nil
	}
	s.connState = StateConnecting
	s.mu.Unlock()
	s.notify()

	conn, err := s.dial(ctx)
	if err != nil {
		s.setConnState(StateDisconnected)
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.connState = StateConnected
	s.mu.Unlock()
	s.notify()

	s.logger.Info("connected")
	go s.readLoop(conn)
	return nil
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.cfg.WSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("roomID", s.cfg.RoomID)
	q.Set("token", s.cfg.Creds.Token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

// Close tears the session down unconditionally and permanently.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connState = StateClosed
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
	close(s.done)
	s.notify()
	s.logger.Info("closed")
	return nil
}

// Done is closed when the session has terminated, either by Close or by
// exhausting its reconnect budget.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Updates signals after each committed change. It is a level trigger with
// capacity one; consumers read Snapshot after each receive.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns a deep copy of the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game := s.game
	game.Players = append([]protocol.Player(nil), s.game.Players...)
	game.CommunityCards = append([]string(nil), s.game.CommunityCards...)

	ready := make(map[string]bool, len(s.ready))
	for id, r := range s.ready {
		ready[id] = r
	}

	return Snapshot{
		Game:             game,
		MyCards:          append([]string(nil), s.myCards...),
		AvailableActions: append([]string(nil), s.actions...),
		ReadyStatus:      ready,
		Conn:             s.connState,
	}
}

// ConnectionState reports the current lifecycle phase.
func (s *Session) ConnectionState() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connState
}

// SendAction serializes a player intent onto the socket. Best effort: when
// the socket is absent or not open the command is dropped, not queued.
func (s *Session) SendAction(activity protocol.Activity, args ...any) {
	if s.cfg.Creds.UserID == "" || s.cfg.RoomID == "" {
		s.logger.Warn("dropping action, missing user or room id", "activity", activity)
		return
	}
	s.send(protocol.NewCommand(s.cfg.Creds.UserID, s.cfg.RoomID, activity, args...))
}

// SendReady serializes the readiness toggle onto the socket, best effort.
func (s *Session) SendReady(isReady bool) {
	if s.cfg.Creds.UserID == "" || s.cfg.RoomID == "" {
		s.logger.Warn("dropping ready toggle, missing user or room id")
		return
	}
	s.send(protocol.NewReadyCommand(s.cfg.Creds.UserID, s.cfg.RoomID, isReady))
}

func (s *Session) send(cmd protocol.Command) {
	s.mu.RLock()
	conn := s.conn
	open := s.connState == StateConnected
	s.mu.RUnlock()

	if conn == nil || !open {
		s.logger.Debug("dropping command, socket not open", "activity", cmd.Activity)
		return
	}

	s.writeMu.Lock()
	err := conn.WriteJSON(cmd)
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Error("write failed", "activity", cmd.Activity, "error", err)
	}
}

// readLoop processes frames strictly in delivery order until the connection
// drops, then hands off to the reconnect loop.
func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("read failed", "error", err)
			}
			s.reconnectLoop()
			return
		}
		s.handleFrame(string(data))
	}
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// reconnectLoop re-dials with bounded exponential backoff, then pulls the
// full room state over REST since the push protocol has no sequence numbers
// to detect the gap.
func (s *Session) reconnectLoop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	if s.cfg.ReconnectAttempts <= 0 {
		s.connState = StateDisconnected
		s.mu.Unlock()
		s.notify()
		s.logger.Warn("connection lost, reconnect disabled")
		s.terminate()
		return
	}
	s.connState = StateReconnecting
	s.mu.Unlock()
	s.notify()

	delay := s.cfg.ReconnectDelay
	for attempt := 1; attempt <= s.cfg.ReconnectAttempts; attempt++ {
		s.logger.Info("reconnecting", "attempt", attempt, "delay", delay)
		if !s.sleep(delay) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), restCallTimeout)
		conn, err := s.dial(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("reconnect failed", "attempt", attempt, "error", err)
			delay *= 2
			if delay > reconnectBackoffCap {
				delay = reconnectBackoffCap
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conn = conn
		s.connState = StateConnected
		s.mu.Unlock()
		s.notify()

		s.logger.Info("reconnected", "attempt", attempt)
		s.resync()
		go s.readLoop(conn)
		return
	}

	s.setConnState(StateDisconnected)
	s.logger.Error("reconnect budget exhausted", "attempts", s.cfg.ReconnectAttempts)
	s.terminate()
}

// sleep waits on the injected clock; returns false if the session closed
// while waiting.
func (s *Session) sleep(d time.Duration) bool {
	fired := make(chan struct{})
	timer := s.clock.AfterFunc(d, func() {
		close(fired)
	})
	defer timer.Stop()

	select {
	case <-fired:
		return true
	case <-s.done:
		return false
	}
}

// resync pulls the authoritative state once and commits it through the
// normal reconciler path. Failure is non-fatal; the next broadcast heals.
func (s *Session) resync() {
	if s.api == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), restCallTimeout)
	defer cancel()

	state, err := s.api.RoomState(ctx, s.cfg.RoomID)
	if err != nil {
		s.logger.Warn("resync failed", "error", err)
		return
	}
	s.applyState(state)
}

// terminate marks the session permanently dead without going through Close.
func (s *Session) terminate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
	s.notify()
}

func (s *Session) setConnState(state ConnState) {
	s.mu.Lock()
	s.connState = state
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
