// Package config resolves the process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort            = 3001
	defaultRateLimitWindow = 15 * time.Minute
	defaultRateLimitMax    = 100
	defaultCORSOrigin      = "http://localhost:5173"
	defaultDataPath        = "data/store.json"
	defaultUploadsDir      = "uploads"
	defaultSessionTTL      = 24 * time.Hour
	defaultAdminUsername   = "admin"
)

// Config carries every tunable the server process reads at boot.
type Config struct {
	Port            int
	RateLimitWindow time.Duration
	RateLimitMax    int
	CORSOrigin      string
	Environment     string

	StorageDriver string
	DataPath      string
	PostgresDSN   string
	UploadsDir    string

	AnalyticsQueueDriver string
	RedisAddr            string
	RedisPassword        string

	LogLevel  string
	LogFormat string

	AdminUsername string
	AdminPassword string
	SessionTTL    time.Duration

	TLSCertFile string
	TLSKeyFile  string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment variables
// win over file entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:            envInt("PORT", defaultPort),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW", 15)) * time.Minute,
		RateLimitMax:    envInt("RATE_LIMIT_MAX", defaultRateLimitMax),
		CORSOrigin:      envString("CORS_ORIGIN", defaultCORSOrigin),
		Environment:     strings.ToLower(envString("NODE_ENV", "development")),

		StorageDriver: strings.ToLower(envString("PORTFOLIO_LIVE_STORAGE_DRIVER", "")),
		DataPath:      envString("PORTFOLIO_LIVE_DATA", defaultDataPath),
		PostgresDSN:   envString("PORTFOLIO_LIVE_POSTGRES_DSN", os.Getenv("DATABASE_URL")),
		UploadsDir:    envString("PORTFOLIO_LIVE_UPLOADS_DIR", defaultUploadsDir),

		AnalyticsQueueDriver: strings.ToLower(envString("PORTFOLIO_LIVE_ANALYTICS_QUEUE", "")),
		RedisAddr:            envString("PORTFOLIO_LIVE_REDIS_ADDR", ""),
		RedisPassword:        envString("PORTFOLIO_LIVE_REDIS_PASSWORD", ""),

		LogLevel:  envString("PORTFOLIO_LIVE_LOG_LEVEL", "info"),
		LogFormat: envString("PORTFOLIO_LIVE_LOG_FORMAT", ""),

		AdminUsername: envString("PORTFOLIO_LIVE_ADMIN_USERNAME", defaultAdminUsername),
		AdminPassword: envString("PORTFOLIO_LIVE_ADMIN_PASSWORD", ""),
		SessionTTL:    envDuration("PORTFOLIO_LIVE_SESSION_TTL", defaultSessionTTL),

		TLSCertFile: envString("PORTFOLIO_LIVE_TLS_CERT", ""),
		TLSKeyFile:  envString("PORTFOLIO_LIVE_TLS_KEY", ""),
	}

	if cfg.StorageDriver == "" {
		if cfg.PostgresDSN != "" {
			cfg.StorageDriver = "postgres"
		} else {
			cfg.StorageDriver = "json"
		}
	}
	if cfg.AnalyticsQueueDriver == "" {
		if cfg.RedisAddr != "" {
			cfg.AnalyticsQueueDriver = "redis"
		} else {
			cfg.AnalyticsQueueDriver = "memory"
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot safely start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	if c.RateLimitMax < 0 {
		return fmt.Errorf("rate limit max must not be negative")
	}
	if c.CORSOrigin != "" {
		parsed, err := url.Parse(c.CORSOrigin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("CORS origin %q must include scheme and host", c.CORSOrigin)
		}
	}
	switch c.StorageDriver {
	case "json":
	case "postgres":
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage selected without DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	switch c.AnalyticsQueueDriver {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("redis analytics queue selected without address")
		}
	default:
		return fmt.Errorf("unsupported analytics queue driver %q", c.AnalyticsQueueDriver)
	}
	if c.IsProduction() && c.AdminPassword == "" {
		return fmt.Errorf("production mode requires PORTFOLIO_LIVE_ADMIN_PASSWORD")
	}
	return nil
}

// IsProduction reports whether NODE_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr formats the listen address for the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
