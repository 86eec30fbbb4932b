package session

import (
	"context"

	"github.com/pokerroom/tableclient/internal/protocol"
)

// handleFrame routes one decoded inbound frame. Called only from the read
// loop, so frames commit in delivery order; the roster round trip is the
// one deliberate exception and is version-guarded.
func (s *Session) handleFrame(text string) {
	frame := protocol.DecodeFrame(text)

	switch frame.Kind {
	case protocol.FramePrivateHand:
		s.mu.Lock()
		s.myCards = frame.Cards
		s.mu.Unlock()
		s.notify()

	case protocol.FrameReady:
		s.mu.Lock()
		s.ready[frame.PlayerID] = frame.IsReady
		s.mu.Unlock()
		s.notify()

	case protocol.FrameReadyBroadcast:
		s.mu.Lock()
		for id, r := range frame.ReadyByID {
			s.ready[id] = r
		}
		s.mu.Unlock()
		s.notify()

	case protocol.FrameState:
		s.applyState(frame.State)

	default:
		s.logger.Warn("unrecognized frame", "raw", truncate(text, 200))
	}
}

// applyState is the reconciler: a full replace of every field the payload
// covers, never a merge. A payload omitting a field resets it; that is
// protocol behavior, not a bug to paper over.
func (s *Session) applyState(u *protocol.StateUpdate) {
	myID := s.cfg.Creds.UserID

	s.mu.Lock()
	s.frameVersion++
	version := s.frameVersion

	s.game.Pot = u.Pot
	s.game.Status = u.Status
	s.game.CurrentTurn = u.CurrentTurn
	s.game.WinnerID = u.WinnerID
	s.game.CommunityCards = append([]string(nil), u.CommunityCards...)
	// RoomID stays what the session was built with.

	if myID != "" {
		if cards, ok := u.PlayerCards[myID]; ok && cards != nil {
			s.myCards = protocol.NormalizeCards(cards)
		}
	}

	var resolveIDs []string
	if players, ok := u.PlayerList(); ok {
		s.game.Players = players
		s.playersVersion = version
		s.pruneReadyLocked(players)
	} else if ids, ok := u.PlayerIDs(); ok {
		resolveIDs = ids
	}

	fetchActions := s.turnEdgeLocked(u.CurrentTurn, myID)
	s.mu.Unlock()
	s.notify()

	if resolveIDs != nil {
		go s.resolveRoster(resolveIDs, version)
	}
	if fetchActions {
		go s.fetchAvailableActions()
	}
}

// turnEdgeLocked reports whether the action fetcher should fire: the turn
// must have newly become ours (edge, not level) and the throttle window must
// have elapsed. The marker re-arms whenever the turn moves to anyone else,
// so the fetcher fires once per turn received, not once per session.
// Callers hold s.mu.
func (s *Session) turnEdgeLocked(turn, myID string) bool {
	if turn == s.lastFetchedTurn {
		return false
	}
	s.lastFetchedTurn = turn
	if turn == "" || myID == "" || turn != myID {
		return false
	}

	now := s.clock.Now()
	if !s.lastActionsFetchAt.IsZero() && now.Sub(s.lastActionsFetchAt) < actionFetchInterval {
		return false
	}
	s.lastActionsFetchAt = now
	return true
}

// pruneReadyLocked drops readiness entries for players no longer seated.
// Callers hold s.mu.
func (s *Session) pruneReadyLocked(players []protocol.Player) {
	seated := make(map[string]struct{}, len(players))
	for _, p := range players {
		seated[p.ID] = struct{}{}
	}
	for id := range s.ready {
		if _, ok := seated[id]; !ok {
			delete(s.ready, id)
		}
	}
}

// resolveRoster turns an id-set roster into full player records via one
// batched REST call. The commit is guarded by the originating frame's
// version: if a newer roster landed while the call was in flight, the
// resolution is discarded.
func (s *Session) resolveRoster(ids []string, version uint64) {
	var players []protocol.Player

	if len(ids) == 0 {
		s.logger.Warn("roster resolution skipped, empty id list")
	} else if s.cfg.Creds.Token == "" || s.api == nil {
		s.logger.Warn("roster resolution skipped, no access token")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), restCallTimeout)
		defer cancel()

		resolved, err := s.api.PlayersByID(ctx, ids)
		if err != nil {
			s.logger.Warn("roster resolution failed", "error", err)
		} else {
			players = resolved
		}
	}

	s.mu.Lock()
	if version <= s.playersVersion {
		s.mu.Unlock()
		s.logger.Debug("discarding stale roster resolution",
			"version", version, "current", s.playersVersion)
		return
	}
	s.game.Players = players
	s.playersVersion = version

	// Newly seen players start not-ready; this is the only path that
	// seeds readiness for a joining player.
	for _, id := range ids {
		if _, seen := s.ready[id]; !seen {
			s.ready[id] = false
		}
	}
	s.mu.Unlock()
	s.notify()
}

// fetchAvailableActions refreshes the legal action set for our turn. Any
// failure degrades to an empty set; nothing propagates to the caller.
func (s *Session) fetchAvailableActions() {
	if s.api == nil || s.cfg.Creds.Token == "" || s.cfg.Creds.UserID == "" || s.cfg.RoomID == "" {
		s.logger.Warn("skipping action fetch, missing credentials or room")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), restCallTimeout)
	defer cancel()

	actions, err := s.api.AvailableActions(ctx, s.cfg.RoomID, s.cfg.Creds.UserID)
	if err != nil {
		s.logger.Warn("action fetch failed", "error", err)
		actions = nil
	}

	s.mu.Lock()
	s.actions = actions
	s.mu.Unlock()
	s.notify()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
