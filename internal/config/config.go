// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken       string
	DatabasePath           string
	LogLevel               string
	ResetPeriod            time.Duration
	PurgeInterval          time.Duration
	AllowRepeatingWarnings bool
	AllowDuplicateCommands bool
	AdminIDs               []int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	resetMinutes, err := envMinutes("RESET_PERIOD_MINUTES", 5)
	if err != nil {
		return nil, err
	}

	purgeMinutes, err := envMinutes("PURGE_INTERVAL_MINUTES", 10)
	if err != nil {
		return nil, err
	}

	allowRepeating, err := envBool("ALLOW_REPEATING_WARNINGS", false)
	if err != nil {
		return nil, err
	}

	allowCommands, err := envBool("ALLOW_DUPLICATE_COMMANDS", true)
	if err != nil {
		return nil, err
	}

	var adminIDs []int64
	if raw := os.Getenv("ADMIN_IDS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ADMIN_IDS: %w", s, err)
			}
			adminIDs = append(adminIDs, uid)
		}
	}

	return &Config{
		TelegramBotToken:       token,
		DatabasePath:           dbPath,
		LogLevel:               logLevel,
		ResetPeriod:            resetMinutes,
		PurgeInterval:          purgeMinutes,
		AllowRepeatingWarnings: allowRepeating,
		AllowDuplicateCommands: allowCommands,
		AdminIDs:               adminIDs,
	}, nil
}

// IsAdmin checks whether a user ID may run administrative bot commands.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func envMinutes(key string, def int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Minute, nil
	}
	mins, err := strconv.Atoi(raw)
	if err != nil || mins < 1 {
		return 0, fmt.Errorf("%s must be a positive number of minutes, got %q", key, raw)
	}
	return time.Duration(mins) * time.Minute, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}
