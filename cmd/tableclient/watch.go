package main

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"

	"github.com/pokerroom/tableclient/internal/api"
	"github.com/pokerroom/tableclient/internal/session"
	"github.com/pokerroom/tableclient/internal/tui"
)

// WatchCmd joins a room and follows it until interrupted.
type WatchCmd struct {
	RoomID  string `arg:"" help:"Room to join"`
	TUI     bool   `help:"Render an interactive table view instead of a log stream"`
	NoColor bool   `help:"Disable color output"`
}

func (c *WatchCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.setup()
	if err != nil {
		return err
	}
	creds, err := credentials(cfg)
	if err != nil {
		return err
	}
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	client := api.NewClient(cfg.Server.APIURL, creds, logger)
	sess := session.New(session.Config{
		RoomID:            c.RoomID,
		WSURL:             cfg.Server.WSURL,
		Creds:             creds,
		API:               client,
		Logger:            logger,
		ReconnectAttempts: cfg.Server.ReconnectAttempts,
		ReconnectDelay:    time.Duration(cfg.Server.ReconnectDelay) * time.Second,
	})

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := sess.Connect(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-sess.Done():
		}
		return sess.Close()
	})
	if c.TUI {
		g.Go(func() error {
			return tui.Run(sess, logger)
		})
	} else {
		g.Go(func() error {
			return watchPlain(ctx, sess, logger)
		})
	}
	return g.Wait()
}

// watchPlain streams snapshot changes as structured log lines. It is the
// mode for piping into other tooling or running without a TTY.
func watchPlain(ctx context.Context, sess *session.Session, logger *log.Logger) error {
	prev := sess.Snapshot()
	logSnapshot(logger, prev)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.Done():
			return nil
		case <-sess.Updates():
		}

		next := sess.Snapshot()
		logChanges(logger, prev, next)
		prev = next
	}
}

func logSnapshot(logger *log.Logger, snap session.Snapshot) {
	logger.Info("watching room",
		"room", snap.Game.RoomID,
		"status", snap.Game.Status,
		"conn", snap.Conn,
		"players", len(snap.Game.Players))
}

func logChanges(logger *log.Logger, prev, next session.Snapshot) {
	if next.Conn != prev.Conn {
		logger.Info("connection state changed", "state", next.Conn)
	}
	if next.Game.Status != prev.Game.Status {
		logger.Info("room status changed", "status", next.Game.Status)
	}
	if next.Game.Pot != prev.Game.Pot {
		logger.Info("pot changed", "pot", next.Game.Pot)
	}
	if turn := next.Game.CurrentTurn; turn != prev.Game.CurrentTurn && turn != "" {
		logger.Info("turn changed", "player", nicknameFor(next, turn))
	}
	if winner := next.Game.WinnerID; winner != prev.Game.WinnerID && winner != "" {
		logger.Info("hand won", "player", nicknameFor(next, winner), "pot", next.Game.Pot)
	}
	if board := strings.Join(next.Game.CommunityCards, " "); board != strings.Join(prev.Game.CommunityCards, " ") && board != "" {
		logger.Info("board", "cards", board)
	}
	if hand := strings.Join(next.MyCards, " "); hand != strings.Join(prev.MyCards, " ") && hand != "" {
		logger.Info("hole cards", "cards", hand)
	}
	if actions := strings.Join(next.AvailableActions, ","); actions != strings.Join(prev.AvailableActions, ",") && actions != "" {
		logger.Info("your turn", "actions", actions)
	}
	if len(next.Game.Players) != len(prev.Game.Players) {
		logger.Info("roster changed", "players", len(next.Game.Players))
	}
}

func nicknameFor(snap session.Snapshot, id string) string {
	for _, p := range snap.Game.Players {
		if p.ID == id {
			return p.Nickname
		}
	}
	return id
}
