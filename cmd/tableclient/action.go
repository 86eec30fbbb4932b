package main

import (
	"github.com/pokerroom/tableclient/internal/protocol"
)

// ActionCmd sends one game action over REST and exits. Useful for
// scripting; interactive play goes through watch.
type ActionCmd struct {
	RoomID   string   `arg:"" help:"Room to act in"`
	Activity string   `arg:"" help:"Action to send (fold, check, call, bet, raise, all-in)"`
	Args     []string `arg:"" optional:"" help:"Action arguments, e.g. a bet amount"`
}

func (c *ActionCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()

	args := c.Args
	if args == nil {
		args = []string{}
	}
	cmd := protocol.Command{
		UserID:   client.Credentials().UserID,
		RoomID:   c.RoomID,
		Activity: protocol.Activity(c.Activity),
		Args:     args,
	}
	return client.SubmitAction(ctx, cmd)
}

// ReadyCmd flips the ready flag for a room.
type ReadyCmd struct {
	RoomID string `arg:"" help:"Room to signal readiness in"`
	Ready  bool   `negatable:"" default:"true" help:"Ready state to send (--no-ready to withdraw)"`
}

func (c *ReadyCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()

	cmd := protocol.NewReadyCommand(client.Credentials().UserID, c.RoomID, c.Ready)
	return client.SubmitAction(ctx, cmd)
}
