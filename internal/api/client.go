// Package api is the REST side of the poker room contract. The WebSocket
// carries the live game feed; these endpoints fill the gaps: roster lookups,
// legal-action queries, room lifecycle, and the full-state pull used to
// resynchronize after a reconnect.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pokerroom/tableclient/internal/protocol"
)

var (
	// ErrUnauthorized indicates the server definitively rejected the token.
	ErrUnauthorized = errors.New("api: unauthorized")

	// ErrUnavailable indicates the server is unreachable or degraded.
	// Callers degrade to an empty result and wait for the next broadcast.
	ErrUnavailable = errors.New("api: unavailable")
)

// Credentials is the explicit session context handed to every component that
// authenticates. Nothing in this module reads tokens from ambient state.
type Credentials struct {
	UserID string
	Token  string
}

// Client talks to the room server's REST endpoints with bearer auth.
type Client struct {
	baseURL string
	creds   Credentials
	client  *http.Client
	logger  *log.Logger
}

// NewClient creates a REST client rooted at baseURL.
func NewClient(baseURL string, creds Credentials, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.WithPrefix("api"),
	}
}

// Credentials returns the session context this client authenticates with.
func (c *Client) Credentials() Credentials {
	return c.creds
}

type availableActionsResponse struct {
	Actions []string `json:"actions"`
}

// AvailableActions fetches the legal action set for the user's current turn.
func (c *Client) AvailableActions(ctx context.Context, roomID, userID string) ([]string, error) {
	q := url.Values{}
	q.Set("roomID", roomID)
	q.Set("userID", userID)

	var resp availableActionsResponse
	if err := c.get(ctx, "/room/available-actions", q, &resp); err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

type playersByIDRequest struct {
	UserID []string `json:"user_id"`
}

// PlayersByID resolves a batch of player ids into full player records.
func (c *Client) PlayersByID(ctx context.Context, ids []string) ([]protocol.Player, error) {
	var players []protocol.Player
	if err := c.post(ctx, "/room/players-by-id", playersByIDRequest{UserID: ids}, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// RoomState pulls the full current state of a room. The session uses this to
// resynchronize after a reconnect since the push protocol has no sequence
// numbers.
func (c *Client) RoomState(ctx context.Context, roomID string) (*protocol.StateUpdate, error) {
	q := url.Values{}
	q.Set("roomID", roomID)

	var state protocol.StateUpdate
	if err := c.get(ctx, "/room/state", q, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

type legacyActionRequest struct {
	Activity protocol.Activity `json:"activity"`
	RoomID   string            `json:"roomID"`
	UserID   string            `json:"userID"`
	Args     []string          `json:"args"`
}

// SubmitAction posts a player action over REST. The WebSocket command path
// supersedes this; it remains for servers that still expect it.
func (c *Client) SubmitAction(ctx context.Context, cmd protocol.Command) error {
	req := legacyActionRequest{
		Activity: cmd.Activity,
		RoomID:   cmd.RoomID,
		UserID:   cmd.UserID,
		Args:     cmd.Args,
	}
	return c.post(ctx, "/room/action", req, nil)
}

type roomIDRequest struct {
	RoomID string `json:"roomID"`
}

// StartGame triggers the owner-only game start for a room.
func (c *Client) StartGame(ctx context.Context, roomID string) error {
	return c.post(ctx, "/room/start-game", roomIDRequest{RoomID: roomID}, nil)
}

// DealCards triggers the owner-only deal for a room.
func (c *Client) DealCards(ctx context.Context, roomID string) error {
	return c.post(ctx, "/room/deal-cards", roomIDRequest{RoomID: roomID}, nil)
}

// Room is a lobby listing entry. Field casing follows the server's lobby
// payload, which differs from the in-game payloads.
type Room struct {
	Name       string `json:"Name"`
	RoomID     string `json:"RoomID"`
	Status     string `json:"Status"`
	MaxPlayers int    `json:"MaxPlayers,omitempty"`
}

type listRoomsResponse struct {
	Rooms []Room `json:"rooms"`
}

// ListRooms fetches the lobby room list.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var resp listRoomsResponse
	if err := c.get(ctx, "/room/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// RoomSpec describes a room to create.
type RoomSpec struct {
	Type       string `json:"type"`
	Limits     string `json:"limits"`
	MaxPlayers int    `json:"max_players"`
}

type createRoomRequest struct {
	Room RoomSpec `json:"room"`
}

type createRoomResponse struct {
	ID string `json:"id"`
}

// CreateRoom creates a room and returns its id.
func (c *Client) CreateRoom(ctx context.Context, spec RoomSpec) (string, error) {
	var resp createRoomResponse
	if err := c.post(ctx, "/room/create-room", createRoomRequest{Room: spec}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create room: server returned no id")
	}
	return resp.ID, nil
}

// Profile is the authenticated user as reported by the server.
type Profile struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Chips    int    `json:"chips"`
}

// Me fetches the profile behind the current token.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	// Cap the body to guard against pathological responses.
	limited := io.LimitReader(resp.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
