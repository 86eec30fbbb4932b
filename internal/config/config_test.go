package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tableclient.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.APIURL)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.Server.WSURL)
	assert.Equal(t, 5, cfg.Server.ReconnectAttempts)
	assert.Equal(t, "info", cfg.UI.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server {
  api_url            = "https://poker.example.com"
  ws_url             = "wss://poker.example.com/ws"
  reconnect_attempts = 10
}

player {
  user_id = "u42"
  token   = "secret"
}

ui {
  log_level = "debug"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://poker.example.com", cfg.Server.APIURL)
	assert.Equal(t, "wss://poker.example.com/ws", cfg.Server.WSURL)
	assert.Equal(t, 10, cfg.Server.ReconnectAttempts)
	assert.Equal(t, "u42", cfg.Player.UserID)
	assert.Equal(t, "secret", cfg.Player.Token)
	assert.Equal(t, "debug", cfg.UI.LogLevel)
	assert.Equal(t, 1, cfg.Server.ReconnectDelay, "unset values fall back to defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server {
  api_url = "https://file.example.com"
  ws_url  = "wss://file.example.com/ws"
}

player {
  token = "file-token"
}
`)

	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvUserID, "env-user")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Server.APIURL)
	assert.Equal(t, "wss://file.example.com/ws", cfg.Server.WSURL)
	assert.Equal(t, "env-token", cfg.Player.Token)
	assert.Equal(t, "env-user", cfg.Player.UserID)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
server {
  api_url = "https://poker.example.com"
  ws_url  = "wss://poker.example.com/ws"
}

ui {
  log_level = "loud"
}
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	path := writeConfig(t, `server { api_url = `)

	_, err := Load(path)
	assert.Error(t, err)
}
