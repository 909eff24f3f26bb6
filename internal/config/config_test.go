package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:3478", cfg.Server.ListenAddr)
	assert.Equal(t, "127.0.0.1:3478", cfg.Client.ServerAddr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Server.Realm = "example.org"
	cfg.Server.ReusePort = true
	cfg.Server.Users = map[string]string{"alice": "secret"}
	cfg.Client.Username = "alice"

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Server.ListenAddr, loaded.Server.ListenAddr)
	assert.Equal(t, "example.org", loaded.Server.Realm)
	assert.True(t, loaded.Server.ReusePort)
	assert.Equal(t, "secret", loaded.Server.Users["alice"])
	assert.Equal(t, "alice", loaded.Client.Username)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Duration("500ms", time.Second))
	assert.Equal(t, time.Second, Duration("", time.Second))
	assert.Equal(t, time.Second, Duration("not-a-duration", time.Second))
}
