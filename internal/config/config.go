package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBackendURL is used when none of the backend URL variables is set
const DefaultBackendURL = "http://127.0.0.1:8000"

// backendURLVars lists the backend base URL variables in precedence order.
// Older route files read different ones; the gateway resolves them once here.
var backendURLVars = []string{
	"NEXT_PUBLIC_BACKEND_URL",
	"NEXT_PUBLIC_API_URL",
	"DJANGO_BASE_URL",
}

// Config holds the gateway configuration
type Config struct {
	Environment   string
	LogJSON       bool
	ServerAddress string
	Backend       BackendConfig
	Cookie        CookieConfig
	Upload        UploadConfig
	DatabasePath  string
	RedisURL      string
	DraftTTL      time.Duration
	SeedDemoData  bool
	RoutesFile    string
	CORS          CORSConfig
	RateLimit     RateLimitConfig
}

// BackendConfig describes the upstream API the gateway forwards to
type BackendConfig struct {
	BaseURL     string
	Source      string   // env var the base URL came from, or "default"
	Conflicts   []string // other backend URL vars set to a different value
	Timeout     time.Duration
	RefreshPath string
}

// CookieConfig holds auth cookie settings
type CookieConfig struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// UploadConfig holds local upload storage settings
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig configures per-client limits on auth routes
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

var ErrInvalidBackendURL = errors.New("backend URL must be an absolute http(s) URL")

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	environment := getEnv("APP_ENV", "production")

	backend, err := resolveBackend()
	if err != nil {
		return nil, err
	}

	logJSON := environment != "development"
	if v := os.Getenv("LOG_JSON"); v != "" {
		logJSON = v == "true"
	}

	return &Config{
		Environment:   environment,
		LogJSON:       logJSON,
		ServerAddress: getEnv("SERVER_ADDRESS", ":3000"),
		Backend:       backend,
		Cookie: CookieConfig{
			Domain:     os.Getenv("COOKIE_DOMAIN"),
			Secure:     getBoolEnv("COOKIE_SECURE", environment == "production"),
			AccessTTL:  getDurationEnv("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "./public/uploads"),
			MaxBytes: getInt64Env("UPLOAD_MAX_BYTES", 5<<20),
		},
		DatabasePath: getEnv("DATABASE_PATH", "./data/portal.db"),
		RedisURL:     os.Getenv("REDIS_URL"),
		DraftTTL:     getDurationEnv("DRAFT_TTL", 24*time.Hour),
		SeedDemoData: getBoolEnv("SEED_DEMO_DATA", environment == "development"),
		RoutesFile:   os.Getenv("ROUTES_FILE"),
		CORS: CORSConfig{
			AllowedOrigins: parseCommaSeparatedList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("RATE_LIMIT_RPS", 5),
			Burst:   getIntEnv("RATE_LIMIT_BURST", 10),
		},
	}, nil
}

// IsProduction reports whether the gateway runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func resolveBackend() (BackendConfig, error) {
	cfg := BackendConfig{
		BaseURL:     DefaultBackendURL,
		Source:      "default",
		Timeout:     getDurationEnv("BACKEND_TIMEOUT", 30*time.Second),
		RefreshPath: getEnv("BACKEND_REFRESH_PATH", "/api/auth/token/refresh/"),
	}

	for _, key := range backendURLVars {
		value := strings.TrimRight(strings.TrimSpace(os.Getenv(key)), "/")
		if value == "" {
			continue
		}
		if cfg.Source == "default" {
			cfg.BaseURL = value
			cfg.Source = key
			continue
		}
		if value != cfg.BaseURL {
			cfg.Conflicts = append(cfg.Conflicts, key)
		}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return BackendConfig{}, ErrInvalidBackendURL
	}
	return cfg, nil
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}

	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("90s") or plain seconds ("90")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
