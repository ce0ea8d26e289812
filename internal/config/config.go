package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config holds all application configuration.
//
// Environment Variables:
// Telegram:
// - TELEGRAM_BOT_TOKEN: bot token (required, API_TOKEN is accepted as a fallback)
// - BOT_DEBUG: enable telegram API debug output (default: false)
// - BOT_UPDATE_TIMEOUT: long polling timeout in seconds (default: 60)
//
// Content:
// - CONTENT_DIR: directory with content set files (default: content)
// - CONTENT_SOURCE_FIELD: JSON field with the text to translate (default: en)
// - CONTENT_TARGET_FIELD: JSON field with the reference translation (default: ru)
// - CONTENT_LANGUAGE: language used to order content set names (default: ru)
//
// Storage:
// - DB_TYPE: sqlite, postgres or memory (default: sqlite)
// - DB_PATH: sqlite database file (default: data/translatebot.db)
// - DATABASE_URL: postgres connection string (required for postgres)
//
// Reminders:
// - REMINDERS_ENABLED: send a daily practice reminder (default: false)
// - REMINDER_TIME: HH:MM of the reminder (default: 09:00)
// - REMINDER_TZ: IANA time zone of REMINDER_TIME (default: UTC)
//
// Logging:
// - LOG_MODE: dev or prod (default: dev)
type Config struct {
	Telegram  TelegramConfig
	Content   ContentConfig
	Database  DatabaseConfig
	Reminders ReminderConfig
	LogMode   string
}

// TelegramConfig holds bot API settings.
type TelegramConfig struct {
	Token         string
	Debug         bool
	UpdateTimeout int
}

// ContentConfig locates and describes the content set files.
type ContentConfig struct {
	Dir         string
	SourceField string
	TargetField string
	Language    language.Tag
}

// DatabaseConfig selects the progress storage backend.
type DatabaseConfig struct {
	Type string
	Path string
	URL  string
}

// ReminderConfig controls the daily practice reminder.
type ReminderConfig struct {
	Enabled  bool
	Time     string
	Location *time.Location
}

const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
	DBTypeMemory   = "memory"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token:         firstNonEmpty(os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("API_TOKEN")),
			UpdateTimeout: 60,
		},
		Content: ContentConfig{
			Dir:         getEnvOrDefault("CONTENT_DIR", "content"),
			SourceField: getEnvOrDefault("CONTENT_SOURCE_FIELD", "en"),
			TargetField: getEnvOrDefault("CONTENT_TARGET_FIELD", "ru"),
			Language:    language.Russian,
		},
		Database: DatabaseConfig{
			Type: strings.ToLower(getEnvOrDefault("DB_TYPE", DBTypeSQLite)),
			Path: getEnvOrDefault("DB_PATH", "data/translatebot.db"),
			URL:  os.Getenv("DATABASE_URL"),
		},
		Reminders: ReminderConfig{
			Time:     getEnvOrDefault("REMINDER_TIME", "09:00"),
			Location: time.UTC,
		},
		LogMode: getEnvOrDefault("LOG_MODE", "dev"),
	}

	if cfg.Telegram.Token == "" {
		return nil, ErrMissingToken
	}

	var err error
	if cfg.Telegram.Debug, err = getEnvBool("BOT_DEBUG", false); err != nil {
		return nil, err
	}
	if v := os.Getenv("BOT_UPDATE_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BOT_UPDATE_TIMEOUT %q", v)
		}
		cfg.Telegram.UpdateTimeout = n
	}

	if v := os.Getenv("CONTENT_LANGUAGE"); v != "" {
		tag, err := language.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CONTENT_LANGUAGE %q: %w", v, err)
		}
		cfg.Content.Language = tag
	}

	switch cfg.Database.Type {
	case DBTypeSQLite, DBTypeMemory:
	case DBTypePostgres:
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.Database.Type)
	}

	if cfg.Reminders.Enabled, err = getEnvBool("REMINDERS_ENABLED", false); err != nil {
		return nil, err
	}
	if _, err := time.Parse("15:04", cfg.Reminders.Time); err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIME %q, expected HH:MM", cfg.Reminders.Time)
	}
	if v := os.Getenv("REMINDER_TZ"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_TZ %q: %w", v, err)
		}
		cfg.Reminders.Location = loc
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
