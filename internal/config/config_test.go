package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ws://localhost:5421", cfg.Transport.URL())
	assert.Equal(t, 5*time.Second, cfg.Transport.ReconnectBase)
	assert.Equal(t, 30*time.Second, cfg.Transport.ReconnectMax)
	assert.Equal(t, 5, cfg.Transport.MaxAttempts)
	assert.Equal(t, 1024, cfg.Transport.QueueCapacity)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.RelayTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Dispatch.SettleDelay)
	assert.Equal(t, 50, cfg.Extract.CacheEntries)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BRIDGE_PORT", "9100")
	t.Setenv("BRIDGE_MAX_ATTEMPTS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Transport.Port)
	assert.Equal(t, 0, cfg.Transport.MaxAttempts)
	assert.Equal(t, "localhost", cfg.Transport.Host)
}

func TestApplyEndpoint(t *testing.T) {
	cfg := Default()
	cfg.ApplyEndpoint("", 0)
	assert.Equal(t, "ws://localhost:5421", cfg.Transport.URL())

	cfg.ApplyEndpoint("10.0.0.2", 6000)
	assert.Equal(t, "ws://10.0.0.2:6000", cfg.Transport.URL())
}

func TestStoreEndpointRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	defer store.Close()

	host, port, err := store.Endpoint()
	require.NoError(t, err)
	assert.Empty(t, host)
	assert.Zero(t, port)

	require.NoError(t, store.SetEndpoint("example.local", 7777))
	host, port, err = store.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "example.local", host)
	assert.Equal(t, 7777, port)

	// Overwrite replaces, not appends.
	require.NoError(t, store.SetEndpoint("other.local", 7001))
	host, port, err = store.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "other.local", host)
	assert.Equal(t, 7001, port)
}

func TestStoreRejectsBadPort(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.SetEndpoint("h", 0))
	assert.Error(t, store.SetEndpoint("h", 70000))
}
