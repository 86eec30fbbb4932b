package main

import (
	"fmt"

	"github.com/sanity-io/litter"

	"github.com/pokerroom/tableclient/internal/protocol"
)

// DumpCmd pulls a room's state once and pretty-prints the normalized view.
type DumpCmd struct {
	RoomID string `arg:"" help:"Room to dump"`
}

// roomDump is the normalized shape printed by dump. Cards are canonical
// codes, and the roster is resolved to full player records when the server
// only sent ids.
type roomDump struct {
	RoomID         string
	Status         protocol.RoomStatus
	Pot            int
	CurrentTurn    string
	WinnerID       string
	CommunityCards []string
	Players        []protocol.Player
	MyCards        []string
}

func (c *DumpCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()

	state, err := client.RoomState(ctx, c.RoomID)
	if err != nil {
		return err
	}

	players, ok := state.PlayerList()
	if !ok {
		if ids, idsOK := state.PlayerIDs(); idsOK && len(ids) > 0 {
			players, err = client.PlayersByID(ctx, ids)
			if err != nil {
				return fmt.Errorf("resolve players: %w", err)
			}
		}
	}
	for i := range players {
		players[i].Cards = protocol.NormalizeCards(players[i].Cards)
	}

	dump := roomDump{
		RoomID:         c.RoomID,
		Status:         state.Status,
		Pot:            state.Pot,
		CurrentTurn:    state.CurrentTurn,
		WinnerID:       state.WinnerID,
		CommunityCards: protocol.NormalizeCards(state.CommunityCards),
		Players:        players,
		MyCards:        protocol.NormalizeCards(state.PlayerCards[client.Credentials().UserID]),
	}
	fmt.Println(litter.Sdump(dump))
	return nil
}

// WhoamiCmd prints the profile behind the configured token.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()

	profile, err := client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) %d chips\n", profile.Nickname, profile.ID, profile.Chips)
	return nil
}
