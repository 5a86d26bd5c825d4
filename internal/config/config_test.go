package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FEED_BASE_URL", "")
	t.Setenv("FEED_API_KEY", "")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "rakeback.db", cfg.DBPath)
	assert.Equal(t, "3001", cfg.ServerPort)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.FeedEnabled())
}

func TestLoadOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://rakeback.example.com ,")
	t.Setenv("FEED_BASE_URL", "")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://rakeback.example.com"}, cfg.AllowedOrigins)
}

func TestLoadFeedRequiresKey(t *testing.T) {
	t.Setenv("FEED_BASE_URL", "https://stats.example.com/")
	t.Setenv("FEED_API_KEY", "")

	_, err := Load(zerolog.Nop())
	require.Error(t, err)

	t.Setenv("FEED_API_KEY", "secret")
	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://stats.example.com", cfg.FeedBaseURL)
	assert.True(t, cfg.FeedEnabled())
}
