package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL"`
	ChatAPIURL  string `env:"CHAT_API_URL" envDefault:"http://localhost:8000"`

	// Local durable store for chat history
	HistoryDBPath string `env:"HISTORY_DB_PATH" envDefault:"opsdesk_history.db"`

	// Server
	Port           int      `env:"PORT" envDefault:"3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3001"`

	// Ops notifications (disabled when token is empty)
	BotToken     string `env:"BOT_TOKEN"`
	OpsChatID    int64  `env:"OPS_TELEGRAM_CHAT_ID"`
	OpsTopicAuth int    `env:"OPS_TOPIC_AUTH"`
	OpsTopicRole int    `env:"OPS_TOPIC_ROLE"`
	OpsTopicErr  int    `env:"OPS_TOPIC_ERROR"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
