// Package protocol defines the wire contract between the table client and
// the poker room server: inbound frame decoding, outbound commands, and the
// card symbol normalizer shared by both.
//
// The server mixes three framings on one WebSocket: emoji-prefixed text
// lines, a typed JSON envelope, and bare JSON objects. DecodeFrame folds all
// of them into a single discriminated Frame so nothing downstream has to
// sniff strings again.
package protocol

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// FrameKind discriminates the decoded form of an inbound message.
type FrameKind string

const (
	FramePrivateHand    FrameKind = "private-hand"
	FrameReady          FrameKind = "ready"
	FrameState          FrameKind = "state"
	FrameReadyBroadcast FrameKind = "ready-broadcast"
	FrameUnknown        FrameKind = "unknown"
)

// privateHandPrefix marks a text frame carrying the viewer's hole cards.
// The hand is duplicated out-of-band from the JSON state; both paths feed
// the same normalizer.
const privateHandPrefix = "🎴 Your cards:"

var readyPattern = regexp.MustCompile(`^🎯 ([\w-]+) is (Not )?Ready$`)

// Frame is the decoded form of one inbound WebSocket message. Exactly one
// of the kind-specific field groups is populated, selected by Kind.
type Frame struct {
	Kind FrameKind

	// FramePrivateHand: normalized card codes.
	Cards []string

	// FrameReady: a single player's readiness toggle.
	PlayerID string
	IsReady  bool

	// FrameState: the raw game-state payload, not yet reconciled.
	State *StateUpdate

	// FrameReadyBroadcast: full or partial readiness map.
	ReadyByID map[string]bool

	// Raw carries the original text for FrameUnknown so callers can log it.
	Raw string
}

// stateEnvelope is the typed JSON envelope the server uses for state pushes.
type stateEnvelope struct {
	Type    string       `json:"type"`
	Payload *StateUpdate `json:"payload"`
}

const typeUpdateGameState = "update-game-state"

// DecodeFrame classifies a raw text frame. It is total: input that matches
// no known shape (including malformed JSON) comes back as FrameUnknown and
// is the caller's to log and drop.
func DecodeFrame(text string) Frame {
	if rest, ok := strings.CutPrefix(text, privateHandPrefix); ok {
		tokens := strings.Split(strings.TrimSpace(rest), ",")
		cards := make([]string, len(tokens))
		for i, tok := range tokens {
			cards[i] = NormalizeCard(strings.TrimSpace(tok))
		}
		return Frame{Kind: FramePrivateHand, Cards: cards}
	}

	if m := readyPattern.FindStringSubmatch(text); m != nil {
		return Frame{
			Kind:     FrameReady,
			PlayerID: m[1],
			IsReady:  m[2] == "",
		}
	}

	if strings.HasPrefix(text, "{") {
		return decodeJSONFrame(text)
	}

	return Frame{Kind: FrameUnknown, Raw: text}
}

func decodeJSONFrame(text string) Frame {
	var env stateEnvelope
	if err := json.Unmarshal([]byte(text), &env); err == nil && env.Type == typeUpdateGameState {
		payload := env.Payload
		if payload == nil {
			payload = &StateUpdate{}
		}
		return Frame{Kind: FrameState, State: payload}
	}

	// A bare object whose values are uniformly boolean is a readiness
	// broadcast; anything else JSON-shaped is unrecognized.
	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return Frame{Kind: FrameUnknown, Raw: text}
	}

	ready := make(map[string]bool, len(generic))
	for id, raw := range generic {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Frame{Kind: FrameUnknown, Raw: text}
		}
		ready[id] = b
	}
	if len(ready) == 0 {
		return Frame{Kind: FrameUnknown, Raw: text}
	}
	return Frame{Kind: FrameReadyBroadcast, ReadyByID: ready}
}

// RoomStatus is the server's room lifecycle phase. The server treats the
// set as open; only the values the client branches on are named here.
type RoomStatus = string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
)

// Player is a seated player as reported by the server.
type Player struct {
	ID        string   `json:"id"`
	Nickname  string   `json:"nickname"`
	AvatarURL string   `json:"avatarUrl"`
	Chips     int      `json:"chips"`
	Cards     []string `json:"cards,omitempty"`
	HasFolded bool     `json:"hasFolded,omitempty"`
}

// StateUpdate is the raw payload of an update-game-state push. Absent
// fields stay at their zero value; the reconciler treats that as a full
// replace, not a merge. Players is kept raw because the server sends either
// an array of records or a bare id-set object.
type StateUpdate struct {
	Pot            int                 `json:"pot"`
	RoomID         string              `json:"roomId"`
	Status         RoomStatus          `json:"status"`
	CurrentTurn    string              `json:"currentTurn"`
	WinnerID       string              `json:"winnerId"`
	CommunityCards []string            `json:"communityCards"`
	Players        json.RawMessage     `json:"players"`
	PlayerCards    map[string][]string `json:"playerCards"`
}

// PlayerList returns the full player records when the payload carried an
// array roster. ok is false when players was absent, null, or an id-set.
func (s *StateUpdate) PlayerList() ([]Player, bool) {
	if !rawStartsWith(s.Players, '[') {
		return nil, false
	}
	var players []Player
	if err := json.Unmarshal(s.Players, &players); err != nil {
		return nil, false
	}
	return players, true
}

// PlayerIDs returns the sorted id list when the payload carried an id-set
// object instead of full records. Values are ignored.
func (s *StateUpdate) PlayerIDs() ([]string, bool) {
	if !rawStartsWith(s.Players, '{') {
		return nil, false
	}
	var set map[string]json.RawMessage
	if err := json.Unmarshal(s.Players, &set); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, true
}

func rawStartsWith(raw json.RawMessage, c byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == c
}
