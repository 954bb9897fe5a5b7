package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, c.Port)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.HistoryDB)
	assert.Equal(t, 10*time.Second, c.WriteTimeout)
	assert.Equal(t, 15*time.Second, c.PingInterval)
	assert.Equal(t, 64, c.SendQueueSize)
	assert.Equal(t, ":4000", c.Addr())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("WS_HOST", "127.0.0.1")
	t.Setenv("WS_PORT", "5001")
	t.Setenv("WS_PATH", "/play")
	t.Setenv("HISTORY_DB", "history.db")
	t.Setenv("WRITE_TIMEOUT", "2s")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5001", c.Addr())
	assert.Equal(t, "/play", c.Path)
	assert.Equal(t, "history.db", c.HistoryDB)
	assert.Equal(t, 2*time.Second, c.WriteTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "WS_PORT", "70000"},
		{"port not a number", "WS_PORT", "http"},
		{"relative path", "WS_PATH", "play"},
		{"zero queue", "SEND_QUEUE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
