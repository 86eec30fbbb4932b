package main

import (
	"fmt"

	"github.com/pokerroom/tableclient/internal/api"
)

type RoomsCmd struct {
	List   RoomsListCmd   `cmd:"" default:"1" help:"List rooms in the lobby"`
	Create RoomsCreateCmd `cmd:"" help:"Create a room"`
	Start  RoomsStartCmd  `cmd:"" help:"Start the game in a room you own"`
	Deal   RoomsDealCmd   `cmd:"" help:"Deal the next hand in a room you own"`
}

type RoomsListCmd struct{}

func (c *RoomsListCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()

	rooms, err := client.ListRooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		fmt.Println("no rooms")
		return nil
	}

	fmt.Printf("%-24s %-12s %-8s %s\n", "ROOM", "STATUS", "SEATS", "NAME")
	for _, r := range rooms {
		fmt.Printf("%-24s %-12s %-8d %s\n", r.RoomID, r.Status, r.MaxPlayers, r.Name)
	}
	return nil
}

type RoomsCreateCmd struct {
	Type       string `default:"texas" help:"Game type"`
	Limits     string `default:"1/2" help:"Blind structure"`
	MaxPlayers int    `default:"6" help:"Seat count"`
}

func (c *RoomsCreateCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()

	id, err := client.CreateRoom(ctx, api.RoomSpec{
		Type:       c.Type,
		Limits:     c.Limits,
		MaxPlayers: c.MaxPlayers,
	})
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

type RoomsStartCmd struct {
	RoomID string `arg:"" help:"Room to start"`
}

func (c *RoomsStartCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()
	return client.StartGame(ctx, c.RoomID)
}

type RoomsDealCmd struct {
	RoomID string `arg:"" help:"Room to deal in"`
}

func (c *RoomsDealCmd) Run(cli *CLI) error {
	client, ctx, cancel, err := restClient(cli)
	if err != nil {
		return err
	}
	defer cancel()
	return client.DealCards(ctx, c.RoomID)
}
