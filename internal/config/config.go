package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath         string
	ServerPort     string
	LogLevel       string
	AllowedOrigins []string
	FeedBaseURL    string
	FeedAPIKey     string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:         getEnv("DB_PATH", "rakeback.db"),
		ServerPort:     getEnv("SERVER_PORT", "3001"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		FeedBaseURL:    strings.TrimRight(getEnv("FEED_BASE_URL", ""), "/"),
		FeedAPIKey:     getEnv("FEED_API_KEY", ""),
	}

	if cfg.FeedBaseURL != "" && cfg.FeedAPIKey == "" {
		return nil, fmt.Errorf("FEED_API_KEY is required when FEED_BASE_URL is set")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("feed_enabled", cfg.FeedEnabled()).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) FeedEnabled() bool {
	return c.FeedBaseURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var Module = fx.Provide(Load)
