package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var allKeys = []string{
	"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL",
	"RESET_PERIOD_MINUTES", "PURGE_INTERVAL_MINUTES",
	"ALLOW_REPEATING_WARNINGS", "ALLOW_DUPLICATE_COMMANDS", "ADMIN_IDS",
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: &Config{
				TelegramBotToken:       "test-token",
				DatabasePath:           "./data/bot.db",
				LogLevel:               "info",
				ResetPeriod:            5 * time.Minute,
				PurgeInterval:          10 * time.Minute,
				AllowRepeatingWarnings: false,
				AllowDuplicateCommands: true,
				AdminIDs:               nil,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":       "tok",
				"DATABASE_PATH":            "/tmp/bot.db",
				"LOG_LEVEL":                "debug",
				"RESET_PERIOD_MINUTES":     "15",
				"PURGE_INTERVAL_MINUTES":   "30",
				"ALLOW_REPEATING_WARNINGS": "true",
				"ALLOW_DUPLICATE_COMMANDS": "false",
				"ADMIN_IDS":                "111,222,333",
			},
			want: &Config{
				TelegramBotToken:       "tok",
				DatabasePath:           "/tmp/bot.db",
				LogLevel:               "debug",
				ResetPeriod:            15 * time.Minute,
				PurgeInterval:          30 * time.Minute,
				AllowRepeatingWarnings: true,
				AllowDuplicateCommands: false,
				AdminIDs:               []int64{111, 222, 333},
			},
		},
		{
			name: "admin ids with spaces",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ADMIN_IDS":          " 10 , 20 , ",
			},
			want: &Config{
				TelegramBotToken:       "tok",
				DatabasePath:           "./data/bot.db",
				LogLevel:               "info",
				ResetPeriod:            5 * time.Minute,
				PurgeInterval:          10 * time.Minute,
				AllowDuplicateCommands: true,
				AdminIDs:               []int64{10, 20},
			},
		},
		{
			name: "invalid admin id",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ADMIN_IDS":          "123,abc",
			},
			wantErr: true,
		},
		{
			name: "invalid reset period",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":   "tok",
				"RESET_PERIOD_MINUTES": "0",
			},
			wantErr: true,
		},
		{
			name: "invalid boolean",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":       "tok",
				"ALLOW_REPEATING_WARNINGS": "maybe",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear relevant env vars
			for _, key := range allKeys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		adminIDs []int64
		userID   int64
		want     bool
	}{
		{
			name:     "empty list allows no one",
			adminIDs: nil,
			userID:   42,
			want:     false,
		},
		{
			name:     "user in list",
			adminIDs: []int64{10, 20, 30},
			userID:   20,
			want:     true,
		},
		{
			name:     "user not in list",
			adminIDs: []int64{10, 20, 30},
			userID:   99,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AdminIDs: tt.adminIDs}
			got := cfg.IsAdmin(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsAdmin() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
