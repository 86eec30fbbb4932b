// Package config loads the table client configuration from an HCL file,
// with environment variables taking precedence so tokens never have to live
// on disk.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Environment variable overrides. Each one beats the corresponding file
// value when set.
const (
	EnvAPIURL = "POKERTABLE_API"
	EnvWSURL  = "POKERTABLE_WS"
	EnvToken  = "POKERTABLE_TOKEN"
	EnvUserID = "POKERTABLE_USER"
)

// Config is the complete client configuration.
type Config struct {
	Server ServerConfig `hcl:"server,block"`
	Player PlayerConfig `hcl:"player,block"`
	UI     UIConfig     `hcl:"ui,block"`
}

// ServerConfig contains the room server endpoints and connection tuning.
type ServerConfig struct {
	APIURL            string `hcl:"api_url,optional"`
	WSURL             string `hcl:"ws_url,optional"`
	ReconnectAttempts int    `hcl:"reconnect_attempts,optional"`
	ReconnectDelay    int    `hcl:"reconnect_delay,optional"` // seconds
}

// PlayerConfig identifies the local user.
type PlayerConfig struct {
	UserID   string `hcl:"user_id,optional"`
	Token    string `hcl:"token,optional"`
	Nickname string `hcl:"nickname,optional"`
}

// UIConfig contains watch-mode presentation settings.
type UIConfig struct {
	LogLevel string `hcl:"log_level,optional"`
	Theme    string `hcl:"theme,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			APIURL:            "http://localhost:8080",
			WSURL:             "ws://localhost:8080/ws",
			ReconnectAttempts: 5,
			ReconnectDelay:    1,
		},
		UI: UIConfig{
			LogLevel: "info",
			Theme:    "default",
		},
	}
}

// fileConfig mirrors Config with optional blocks so a partial file decodes
// cleanly.
type fileConfig struct {
	Server *ServerConfig `hcl:"server,block"`
	Player *PlayerConfig `hcl:"player,block"`
	UI     *UIConfig     `hcl:"ui,block"`
}

// Load reads the HCL file at filename, fills gaps with defaults, and
// applies environment overrides. A missing file is not an error.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse %s: %s", filename, diags.Error())
		}

		var loaded fileConfig
		if diags := gohcl.DecodeBody(file.Body, nil, &loaded); diags.HasErrors() {
			return nil, fmt.Errorf("decode %s: %s", filename, diags.Error())
		}
		merge(cfg, &loaded)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func merge(cfg *Config, loaded *fileConfig) {
	if s := loaded.Server; s != nil {
		if s.APIURL != "" {
			cfg.Server.APIURL = s.APIURL
		}
		if s.WSURL != "" {
			cfg.Server.WSURL = s.WSURL
		}
		if s.ReconnectAttempts != 0 {
			cfg.Server.ReconnectAttempts = s.ReconnectAttempts
		}
		if s.ReconnectDelay != 0 {
			cfg.Server.ReconnectDelay = s.ReconnectDelay
		}
	}
	if p := loaded.Player; p != nil {
		cfg.Player = *p
	}
	if u := loaded.UI; u != nil {
		if u.LogLevel != "" {
			cfg.UI.LogLevel = u.LogLevel
		}
		if u.Theme != "" {
			cfg.UI.Theme = u.Theme
		}
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.Server.APIURL = v
	}
	if v := os.Getenv(EnvWSURL); v != "" {
		cfg.Server.WSURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Player.Token = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		cfg.Player.UserID = v
	}
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if c.Server.APIURL == "" {
		return fmt.Errorf("server api_url is required")
	}
	if c.Server.WSURL == "" {
		return fmt.Errorf("server ws_url is required")
	}
	if c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect_attempts cannot be negative")
	}
	if c.Server.ReconnectDelay < 0 {
		return fmt.Errorf("reconnect_delay cannot be negative")
	}
	switch c.UI.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}
	return nil
}
