package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []byte("test-secret"), cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 256, cfg.Relay.SendBufferSize)
	assert.Equal(t, int64(64*1024), cfg.Relay.MaxMessageSize)
	assert.Equal(t, 60*time.Second, cfg.Relay.PongWait)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", ":9090")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("RELAY_SEND_BUFFER", "32")
	t.Setenv("RELAY_PONG_WAIT", "30s")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 32, cfg.Relay.SendBufferSize)
	assert.Equal(t, 30*time.Second, cfg.Relay.PongWait)
}
