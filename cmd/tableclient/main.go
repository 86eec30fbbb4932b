package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Config  string           `help:"Path to HCL config file" default:"tableclient.hcl" type:"path"`
	Debug   bool             `help:"Enable debug logging"`

	Watch  WatchCmd  `cmd:"" help:"Join a room and follow its state live"`
	Rooms  RoomsCmd  `cmd:"" help:"List, create, and control rooms"`
	Action ActionCmd `cmd:"" help:"Send a single game action"`
	Ready  ReadyCmd  `cmd:"" help:"Toggle the ready flag for a room"`
	Dump   DumpCmd   `cmd:"" help:"Fetch a room's state once and print it"`
	Whoami WhoamiCmd `cmd:"" help:"Show the profile behind the configured token"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tableclient"),
		kong.Description("Terminal client for poker room servers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Bind(&cli),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
