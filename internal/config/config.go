// Package config provides application settings loaded from environment variables.
//
// Settings are created via Load() which handles:
// - Optional .env file loading
// - Environment variable parsing with validation
// - Default value application and range clamping
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects the transport binding chosen at process start.
type Mode string

const (
	// ModeStdio binds one long-lived MCP server to stdin/stdout.
	ModeStdio Mode = "stdio"
	// ModeHTTP serves stateless /mcp requests plus SSE sessions.
	ModeHTTP Mode = "http"
)

// TTL clamp bounds. A misconfigured TTL must never mean cache-forever
// or cache-never.
const (
	MinCacheTTL = time.Second
	MaxCacheTTL = 24 * time.Hour
)

// Settings holds all application configuration. It is read once at
// process start and treated as immutable afterwards.
type Settings struct {
	Mode      Mode
	Port      int
	APIKey    string // empty disables HTTP authentication (dev mode)
	CacheTTL  time.Duration
	CacheSize int
	Bucket    string // GCS bucket for offloaded reports

	// Research engine configuration.
	GeminiAPIKey string
	Model        string
	Grounding    bool // enable Google Search grounding
	URLContext   bool // enable URL-context retrieval
}

// Load reads settings from the environment, loading a .env file first
// when one is present.
func Load() (Settings, error) {
	// Ignore "file not found": .env is optional.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	mode, err := parseMode(getEnv("SCOUT_MODE", string(ModeStdio)))
	if err != nil {
		return Settings{}, err
	}

	port, err := getEnvInt("SCOUT_PORT", 8080)
	if err != nil {
		return Settings{}, err
	}
	if port < 1 || port > 65535 {
		return Settings{}, fmt.Errorf("SCOUT_PORT out of range: %d", port)
	}

	ttlSeconds, err := getEnvInt("SCOUT_CACHE_TTL", 3600)
	if err != nil {
		return Settings{}, err
	}

	cacheSize, err := getEnvInt("SCOUT_CACHE_SIZE", 64)
	if err != nil {
		return Settings{}, err
	}
	if cacheSize < 1 {
		return Settings{}, fmt.Errorf("SCOUT_CACHE_SIZE must be positive, got %d", cacheSize)
	}

	return Settings{
		Mode:         mode,
		Port:         port,
		APIKey:       os.Getenv("SCOUT_API_KEY"),
		CacheTTL:     ClampTTL(time.Duration(ttlSeconds) * time.Second),
		CacheSize:    cacheSize,
		Bucket:       getEnv("SCOUT_BUCKET", "scout-research-reports"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        getEnv("SCOUT_MODEL", "gemini-2.5-flash"),
		Grounding:    getEnvBool("SCOUT_GROUNDING", true),
		URLContext:   getEnvBool("SCOUT_URL_CONTEXT", false),
	}, nil
}

// AuthEnabled reports whether HTTP requests must carry the API key.
func (s Settings) AuthEnabled() bool {
	return s.APIKey != ""
}

// ClampTTL forces a TTL into the [MinCacheTTL, MaxCacheTTL] range.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl < MinCacheTTL {
		return MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		return MaxCacheTTL
	}
	return ttl
}

func parseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeStdio, ModeHTTP:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("unknown SCOUT_MODE %q (want stdio or http)", raw)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
