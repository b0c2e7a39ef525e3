package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_TYPE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, time.Minute, cfg.LeaderboardCacheTTL)
	assert.False(t, cfg.OAuthEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("DEBUG", "true")
	t.Setenv("LOGIN_RATE_WINDOW", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 3, cfg.LoginRateLimit)
	assert.True(t, cfg.Debug)
	assert.Equal(t, time.Minute, cfg.LoginRateWindow)
}

func TestValidate(t *testing.T) {
	valid := func(mod func(c *Config)) Config {
		c := Config{JWTSecret: "s", DatabaseType: "sqlite", LoginRateLimit: 10, LoginRateWindow: time.Minute}
		if mod != nil {
			mod(&c)
		}
		return c
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "sqlite ok", cfg: valid(nil)},
		{name: "missing secret", cfg: valid(func(c *Config) { c.JWTSecret = "" }), wantErr: true},
		{name: "postgres without url", cfg: valid(func(c *Config) { c.DatabaseType = "postgres" }), wantErr: true},
		{name: "mysql with url", cfg: valid(func(c *Config) { c.DatabaseType = "mysql"; c.DatabaseURL = "u:p@/db" })},
		{name: "unknown type", cfg: valid(func(c *Config) { c.DatabaseType = "oracle" }), wantErr: true},
		{name: "zero rate limit", cfg: valid(func(c *Config) { c.LoginRateLimit = 0 }), wantErr: true},
		{name: "negative rate limit", cfg: valid(func(c *Config) { c.LoginRateLimit = -1 }), wantErr: true},
		{name: "zero rate window", cfg: valid(func(c *Config) { c.LoginRateWindow = 0 }), wantErr: true},
		{name: "negative rate window", cfg: valid(func(c *Config) { c.LoginRateWindow = -time.Second }), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsZeroRateWindow(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_TYPE", "")
	t.Setenv("LOGIN_RATE_WINDOW", "0s")

	_, err := Load()
	assert.Error(t, err)
}
