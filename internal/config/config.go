package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL string
	LogLevel    string
	Port        string

	// Reference timezone in which schedule times-of-day are interpreted.
	Timezone string

	// Outbound notification settings. An empty ResendAPIKey leaves the
	// transport unconfigured; alert attempts are then recorded as failed.
	ResendAPIKey     string
	AlertFrom        string
	SMSGatewayDomain string
	SendTimeout      time.Duration

	// Overdue monitor settings.
	CronSecret    string
	CheckInterval time.Duration

	// Optional Telegram integration: check-in bot and ops notifications.
	TelegramToken     string
	TelegramOpsChatID int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		Port:             getEnvOrDefault("PORT", "8080"),
		Timezone:         getEnvOrDefault("TIMEZONE", "UTC"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		AlertFrom:        getEnvOrDefault("ALERT_FROM", "SafeCheck <onboarding@resend.dev>"),
		SMSGatewayDomain: os.Getenv("SMS_GATEWAY_DOMAIN"),
		CronSecret:       os.Getenv("CRON_SECRET"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	minutes, err := getEnvInt("CHECK_INTERVAL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	cfg.CheckInterval = time.Duration(minutes) * time.Minute

	sendSeconds, err := getEnvInt("SEND_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.SendTimeout = time.Duration(sendSeconds) * time.Second

	if raw := os.Getenv("TELEGRAM_OPS_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_OPS_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramOpsChatID = chatID
	}

	return cfg, nil
}

// Location resolves the configured reference timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}
