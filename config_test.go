/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/janken/tournament"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, "--tls-key"},
		{"key without cert", func(c *Config) { c.tlsKey = "key.pem" }, "--tls-key"},
		{"port too low", func(c *Config) { c.port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.port = 70000 }, "invalid port"},
		{"negative countdown", func(c *Config) { c.countdownSteps = -1 }, "countdown steps"},
		{"negative delay", func(c *Config) { c.resultDelay = -time.Second }, "must not be negative"},
		{"zero rate", func(c *Config) { c.rateLimit = 0 }, "rate limit"},
		{"zero burst", func(c *Config) { c.rateBurst = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			tt.modify(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, tournament.DefaultTiming(), cfg.timing())
	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, 60*time.Minute, cfg.sessionTimeout)
	assert.NoError(t, cfg.validate())
	assert.Equal(t, "http", cfg.scheme())
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("JANKEN_PORT", "9090")
	t.Setenv("JANKEN_RESULT_DELAY", "5s")
	t.Setenv("JANKEN_COUNTDOWN_STEPS", "5")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, 9090, cfg.port)
	assert.Equal(t, 5*time.Second, cfg.resultDelay)
	assert.Equal(t, 5, cfg.countdownSteps)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("JANKEN_PORT", "9090")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "7070"}))

	assert.Equal(t, 7070, cfg.port)
}

func TestLimiterUsesConfig(t *testing.T) {
	cfg := newTestConfig()
	cfg.rateBurst = 2
	cfg.rateLimit = 0.001

	l := cfg.limiter()
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
