// ABOUTME: Configuration loader for the flightdesk client
// ABOUTME: Loads settings from .env files and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/flightdesk/flightdesk/internal/session"
)

// Session storage backends
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// DefaultAPIURL is the flight API gateway used when nothing is configured
const DefaultAPIURL = "http://localhost:8765"

type Config struct {
	// API
	APIURL      string
	HTTPTimeout time.Duration // per-request bound, 1-300s (default 30s)
	AllProxy    string        // ssh+socks5://user@host:port?private-key=/path (optional)

	// Session storage
	ConfigDir  string
	Storage    string        // file, memory, redis (default: file)
	RedisURL   string        // required when Storage is redis
	SessionTTL time.Duration // redis key expiry, 0 = none

	// Google sign-in (display only; the ID token is obtained out of band)
	GoogleClientID string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env from the working directory and the config directory, then
// the environment. Variables already set in the environment win.
func Load() (*Config, error) {
	configDir := getEnv("FLIGHTDESK_CONFIG_DIR", session.DefaultConfigDir())
	if err := loadDotEnv(".env", filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	// A .env file may itself move the config directory
	configDir = getEnv("FLIGHTDESK_CONFIG_DIR", configDir)

	cfg := &Config{
		APIURL:      strings.TrimRight(ensureScheme(getEnv("FLIGHTDESK_API_URL", DefaultAPIURL)), "/"),
		HTTPTimeout: time.Duration(getEnvInt("FLIGHTDESK_HTTP_TIMEOUT", 30)) * time.Second,
		AllProxy:    os.Getenv("FLIGHTDESK_ALL_PROXY"),

		ConfigDir:  configDir,
		Storage:    strings.ToLower(getEnv("FLIGHTDESK_STORAGE", StorageFile)),
		RedisURL:   os.Getenv("FLIGHTDESK_REDIS_URL"),
		SessionTTL: time.Duration(getEnvInt("FLIGHTDESK_SESSION_TTL", 0)) * time.Second,

		GoogleClientID: os.Getenv("FLIGHTDESK_GOOGLE_CLIENT_ID"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values. It is exported so flag overrides can be
// re-checked after Load.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FLIGHTDESK_API_URL must be an http(s) URL, got %q", c.APIURL)
	}

	if secs := c.HTTPTimeout / time.Second; secs < 1 || secs > 300 {
		return fmt.Errorf("FLIGHTDESK_HTTP_TIMEOUT must be between 1 and 300, got %d", int(secs))
	}
	if c.SessionTTL < 0 {
		return errors.New("FLIGHTDESK_SESSION_TTL must not be negative")
	}

	switch c.Storage {
	case StorageFile:
		if c.ConfigDir == "" {
			return errors.New("FLIGHTDESK_CONFIG_DIR is required for file storage")
		}
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("FLIGHTDESK_REDIS_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("FLIGHTDESK_STORAGE must be one of file, memory, redis, got %q", c.Storage)
	}

	if c.AllProxy != "" && !strings.HasPrefix(c.AllProxy, "ssh+socks5://") && !strings.HasPrefix(c.AllProxy, "socks5://") {
		return fmt.Errorf("FLIGHTDESK_ALL_PROXY must be an ssh+socks5:// URL")
	}
	return nil
}

// loadDotEnv loads the files that exist, in order. godotenv never overrides
// variables that are already set.
func loadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
