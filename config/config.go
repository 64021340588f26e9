// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (Twitch chat), use ValidateChatReady.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Twitch
	TwitchChannel      string
	TwitchBotUsername  string
	TwitchOAuthToken   string
	TwitchClientID     string
	TwitchClientSecret string
	TwitchRedirectURI  string
	TwitchScopes       string

	// Database
	DBDsn string

	// Word counter
	StopWordsPath string
	QueryCooldown time.Duration
	FlushInterval time.Duration

	// Chat policy lists (lowercased logins)
	IgnoreUsers []string
	AdminUsers  []string
	BotUsers    []string

	// Now-playing relay
	NowPlayingFB2K    string
	NowPlayingYouTube string
}

// Load reads environment variables and applies defaults. It doesn't fail if Twitch creds are
// missing; use ValidateChatReady() when you require the IRC connection. Missing optional
// variables disable features (e.g., now-playing relay without a song file).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")
	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")
	cfg.TwitchRedirectURI = os.Getenv("TWITCH_REDIRECT_URI")
	cfg.TwitchScopes = os.Getenv("TWITCH_SCOPES")
	if cfg.TwitchScopes == "" {
		// default scopes for chat bot
		cfg.TwitchScopes = "chat:read chat:edit"
	}

	// DB
	cfg.DBDsn = os.Getenv("DB_DSN")
	if cfg.DBDsn == "" {
		// Default to an embedded SQLite file next to the binary.
		cfg.DBDsn = "lowtierbot.db"
	}

	// Word counter
	cfg.StopWordsPath = os.Getenv("STOP_WORDS_PATH")
	if cfg.StopWordsPath == "" {
		cfg.StopWordsPath = "stop_words.csv"
	}
	cfg.QueryCooldown = durationEnv("WORDS_COOLDOWN", 12*time.Second)
	cfg.FlushInterval = durationEnv("LEDGER_FLUSH_INTERVAL", 2*time.Minute)

	cfg.IgnoreUsers = listEnv("IGNORE_USERS")
	cfg.AdminUsers = listEnv("ADMIN_USERS")
	cfg.BotUsers = listEnv("BOT_USERS")

	cfg.NowPlayingFB2K = os.Getenv("NOW_PLAYING_FB2K_FILE")
	cfg.NowPlayingYouTube = os.Getenv("NOW_PLAYING_YOUTUBE_FILE")

	return cfg, nil
}

// ValidateChatReady checks required fields when the IRC connection is enabled.
// The OAuth token may come from env or from a token stored via the /auth/twitch flow,
// so it is not required here.
func (c *Config) ValidateChatReady() error {
	if c.TwitchChannel == "" || c.TwitchBotUsername == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME")
	}
	return nil
}

// IsIgnored reports whether a login is on the ignore or bot list; ignored users are never ingested.
func (c *Config) IsIgnored(user string) bool {
	u := strings.ToLower(user)
	return contains(c.IgnoreUsers, u) || contains(c.BotUsers, u)
}

// IsAdmin reports whether a login may use operator-only chat commands and bypass flood control.
func (c *Config) IsAdmin(user string) bool { return contains(c.AdminUsers, strings.ToLower(user)) }

// IsBot reports whether a login belongs to another chat bot.
func (c *Config) IsBot(user string) bool { return contains(c.BotUsers, strings.ToLower(user)) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func durationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func listEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
