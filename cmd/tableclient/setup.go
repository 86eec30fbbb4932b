package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/pokerroom/tableclient/internal/api"
	"github.com/pokerroom/tableclient/internal/config"
)

// setup loads configuration and builds the root logger shared by every
// subcommand.
func (c *CLI) setup() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	return cfg, logger, nil
}

// credentials returns the configured identity, erroring out early rather
// than letting the server reject every call.
func credentials(cfg *config.Config) (api.Credentials, error) {
	creds := api.Credentials{
		UserID: cfg.Player.UserID,
		Token:  cfg.Player.Token,
	}
	if creds.UserID == "" {
		return creds, fmt.Errorf("no user id configured; set player.user_id or %s", config.EnvUserID)
	}
	if creds.Token == "" {
		return creds, fmt.Errorf("no token configured; set player.token or %s", config.EnvToken)
	}
	return creds, nil
}

// restClient builds an authenticated API client plus a signal-scoped
// context for the one-shot commands.
func restClient(cli *CLI) (*api.Client, context.Context, context.CancelFunc, error) {
	cfg, logger, err := cli.setup()
	if err != nil {
		return nil, nil, nil, err
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := signalContext(logger)
	return api.NewClient(cfg.Server.APIURL, creds, logger), ctx, cancel, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Debug("shutdown signal received")
	}()
	return ctx, cancel
}
