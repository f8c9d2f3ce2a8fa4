package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Values come from environment
// variables with sane defaults; command-line flags override them.
type Config struct {
	Fetch   FetchConfig
	Browser BrowserConfig
	Log     LogConfig
}

// FetchConfig controls the page fetch itself.
type FetchConfig struct {
	// Engine selects the fetch engine: "browser", "http" or "auto".
	Engine string // default: "browser"

	// Timeout is the deadline for the entire operation.
	Timeout time.Duration // default: 60s

	// WaitTime is the extra settle time after the page load events.
	WaitTime time.Duration // default: 2s

	// NavigationTimeout is the max time for the navigation alone.
	NavigationTimeout time.Duration // default: 30s

	// UserAgent overrides the default Chrome user agent.
	UserAgent string

	// Proxy is the proxy URL for all requests.
	Proxy string

	// MaxBody caps the http engine's response body size in bytes.
	MaxBody int64 // default: 10 MB
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// IgnoreHTTPSErrors tolerates invalid TLS certificates.
	IgnoreHTTPSErrors bool // default: false

	// Stealth injects anti-bot-detection JS before navigation.
	Stealth bool // default: false

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// BlockedResourceTypes lists resource types blocked during navigation
	// (Image, Stylesheet, Font, Media, Script). Empty means block nothing.
	BlockedResourceTypes []string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
	File   string // optional log file path
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Fetch: FetchConfig{
			Engine:            envOr("WEBPARSE_ENGINE", "browser"),
			Timeout:           envDurationOr("WEBPARSE_TIMEOUT", 60*time.Second),
			WaitTime:          envDurationOr("WEBPARSE_WAIT_TIME", 2*time.Second),
			NavigationTimeout: envDurationOr("WEBPARSE_NAV_TIMEOUT", 30*time.Second),
			UserAgent:         os.Getenv("WEBPARSE_USER_AGENT"),
			Proxy:             os.Getenv("WEBPARSE_PROXY"),
			MaxBody:           envInt64Or("WEBPARSE_MAX_BODY", 10<<20),
		},
		Browser: BrowserConfig{
			Headless:             envBoolOr("WEBPARSE_HEADLESS", true),
			NoSandbox:            envBoolOr("WEBPARSE_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("WEBPARSE_BROWSER_BIN"),
			BlockedResourceTypes: envSliceOr("WEBPARSE_BLOCKED_RESOURCES", nil),
		},
		Log: LogConfig{
			Level:  envOr("WEBPARSE_LOG_LEVEL", "info"),
			Format: envOr("WEBPARSE_LOG_FORMAT", "text"),
			File:   os.Getenv("WEBPARSE_LOG_FILE"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// envDurationOr accepts both Go duration strings ("90s", "2m") and bare
// integers, which are treated as seconds to match the original CLI surface.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
