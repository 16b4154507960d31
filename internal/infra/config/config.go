package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	DefaultAPIURL         = "https://praktikum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPollSchedule   = "@every 5m"
	DefaultRetryInterval  = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// AppConfig holds all configuration for the application.
// It is built once at startup and not mutated afterwards.
type AppConfig struct {
	PraktikumToken string
	TelegramToken  string
	ChatID         int64
	OperatorChatID int64 // Receives iteration error reports
	APIURL         string
	PollSchedule   string
	RetryInterval  time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	Environment    string
	MetricsAddr    string // Empty disables the ops HTTP server
	DatabaseURL    string // Empty disables the delivery journal
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.PraktikumToken = os.Getenv("PRAKTIKUM_TOKEN")
	if cfg.PraktikumToken == "" {
		cfg.PraktikumToken = os.Getenv("PRACTICUM_TOKEN")
	}
	if cfg.PraktikumToken == "" {
		return nil, fmt.Errorf("PRAKTIKUM_TOKEN is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if chatIDStr == "" {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not set")
	}
	cfg.ChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	cfg.OperatorChatID = cfg.ChatID
	if operatorIDStr := os.Getenv("OPERATOR_CHAT_ID"); operatorIDStr != "" {
		cfg.OperatorChatID, err = strconv.ParseInt(operatorIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_CHAT_ID: %w", err)
		}
	}

	cfg.APIURL = os.Getenv("PRAKTIKUM_API_URL")
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if u, err := url.Parse(cfg.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid PRAKTIKUM_API_URL: %q", cfg.APIURL)
	}

	cfg.PollSchedule = os.Getenv("POLL_SCHEDULE")
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = DefaultPollSchedule
	}
	if _, err := cron.ParseStandard(cfg.PollSchedule); err != nil {
		return nil, fmt.Errorf("invalid POLL_SCHEDULE: %w", err)
	}

	cfg.RetryInterval, err = durationEnv("RETRY_INTERVAL", DefaultRetryInterval)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", DefaultRequestTimeout)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}
