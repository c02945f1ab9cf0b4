package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	WebhookSecret string
	WebhookURL    string
	DatabaseURL   string
	Port          int
	ModelTimeout  time.Duration
	ReminderTime  string // HH:MM, empty disables the daily reminder
	LogMode       string // dev or prod
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is picked up if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIModel:   strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		WebhookSecret: strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		WebhookURL:    strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Port:          parsePort(strings.TrimSpace(os.Getenv("PORT"))),
		ModelTimeout:  parseTimeout(strings.TrimSpace(os.Getenv("MODEL_TIMEOUT"))),
		ReminderTime:  strings.TrimSpace(os.Getenv("REMINDER_TIME")),
		LogMode:       strings.TrimSpace(os.Getenv("LOG_MODE")),
	}

	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = "https://api.openai.com"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o"
	}
	if cfg.WebhookSecret == "" {
		cfg.WebhookSecret = "mysecret"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "nutrition_diary.db"
	}
	if cfg.ModelTimeout == 0 {
		cfg.ModelTimeout = 30 * time.Second
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "dev"
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return cfg, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func parsePort(raw string) int {
	if raw == "" {
		return 5000
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 5000
	}
	return port
}

func parseTimeout(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
