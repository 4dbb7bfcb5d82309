/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures the chat listener, the ops HTTP surface, session limits and shutdown behaviour
by reading operating system environment variables.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxRoomNameLength is the maximum room name length in characters, shared with /join validation.
	MaxRoomNameLength = 32

	// MinSendQueueSize must hold a full room backlog replay plus the join and welcome lines.
	MinSendQueueSize = 128
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	HTTPPort    int

	// Chat Settings
	DefaultRoom    string
	MaxConnections int
	SendQueueSize  int
	MaxLineBytes   int
	MessageRate    float64
	MessageBurst   int
	WriteTimeout   time.Duration
	ShutdownGrace  time.Duration

	// Security Settings
	AllowedOrigins []string
	AdminJWTSecret string
	ConnectRate    float64
	ConnectBurst   int
}

// IsDevelopment reports whether the application runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Default returns the development defaults used when no environment variable overrides them.
func Default() *AppConfig {
	return &AppConfig{
		Environment:    "development",
		Port:           8080,
		HTTPPort:       8081,
		DefaultRoom:    "general",
		MaxConnections: 0,
		SendQueueSize:  256,
		MaxLineBytes:   8192,
		MessageRate:    0,
		MessageBurst:   0,
		WriteTimeout:   10 * time.Second,
		ShutdownGrace:  5 * time.Second,
		AllowedOrigins: []string{},
		AdminJWTSecret: "your_default_insecure_secret_key_change_me",
		ConnectRate:    0,
		ConnectBurst:   0,
	}
}

// LoadConfig reads and parses the application configuration from environment variables.
// Every item has a default; values are converted and validated before being returned.
func LoadConfig() (*AppConfig, error) {
	cfg := Default()
	var err error

	// --- General Server Settings ---
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}

	if cfg.Port, err = intFromEnv("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	if cfg.HTTPPort, err = intFromEnv("HTTP_PORT", cfg.HTTPPort); err != nil {
		return nil, err
	}
	if cfg.HTTPPort != 0 && (cfg.HTTPPort < 1024 || cfg.HTTPPort > 65535) {
		return nil, fmt.Errorf("HTTP_PORT %d is outside the recommended range (%d-%d); use 0 to disable the ops server", cfg.HTTPPort, 1024, 65535)
	}
	if cfg.HTTPPort == cfg.Port {
		return nil, fmt.Errorf("HTTP_PORT and PORT must differ (both %d)", cfg.Port)
	}

	// --- Chat Settings ---
	if room := os.Getenv("DEFAULT_ROOM"); room != "" {
		cfg.DefaultRoom = room
	}
	if strings.IndexFunc(cfg.DefaultRoom, unicode.IsSpace) >= 0 ||
		!utf8.ValidString(cfg.DefaultRoom) ||
		utf8.RuneCountInString(cfg.DefaultRoom) > MaxRoomNameLength {
		return nil, fmt.Errorf("DEFAULT_ROOM %q must be a single word of at most %d characters", cfg.DefaultRoom, MaxRoomNameLength)
	}

	if cfg.MaxConnections, err = intFromEnv("MAX_CONNECTIONS", cfg.MaxConnections); err != nil {
		return nil, err
	}
	if cfg.MaxConnections < 0 {
		return nil, fmt.Errorf("MAX_CONNECTIONS must be >= 0, got %d", cfg.MaxConnections)
	}

	if cfg.SendQueueSize, err = intFromEnv("SEND_QUEUE_SIZE", cfg.SendQueueSize); err != nil {
		return nil, err
	}
	if cfg.SendQueueSize < MinSendQueueSize {
		return nil, fmt.Errorf("SEND_QUEUE_SIZE must be at least %d, got %d", MinSendQueueSize, cfg.SendQueueSize)
	}
	if cfg.MaxLineBytes, err = positiveIntFromEnv("MAX_LINE_BYTES", cfg.MaxLineBytes); err != nil {
		return nil, err
	}
	// A zero rate disables per-session throttling.
	if cfg.MessageRate, cfg.MessageBurst, err = rateFromEnv("MESSAGE_RATE", "MESSAGE_BURST", cfg.MessageRate, cfg.MessageBurst); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = durationFromEnv("WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return nil, err
	}
	if cfg.ShutdownGrace, err = durationFromEnv("SHUTDOWN_GRACE", cfg.ShutdownGrace); err != nil {
		return nil, err
	}

	// --- Security Settings ---
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}

	adminSecret := os.Getenv("ADMIN_JWT_SECRET")
	if adminSecret != "" {
		cfg.AdminJWTSecret = adminSecret
	} else if !cfg.IsDevelopment() {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
	}

	// A zero rate disables per-IP connect limiting.
	if cfg.ConnectRate, cfg.ConnectBurst, err = rateFromEnv("CONNECT_RATE", "CONNECT_BURST", cfg.ConnectRate, cfg.ConnectBurst); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func positiveIntFromEnv(key string, def int) (int, error) {
	v, err := intFromEnv(key, def)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

// rateFromEnv reads a token bucket rate and burst. A rate of 0 means unlimited; a positive
// rate with no burst gets a burst of one token per second of rate, at least 1.
func rateFromEnv(rateKey, burstKey string, defRate float64, defBurst int) (float64, int, error) {
	r := defRate
	if raw := os.Getenv(rateKey); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid %s environment variable: %w", rateKey, err)
		}
		r = v
	}
	if r < 0 {
		return 0, 0, fmt.Errorf("%s must be >= 0, got %v", rateKey, r)
	}

	b, err := intFromEnv(burstKey, defBurst)
	if err != nil {
		return 0, 0, err
	}
	if b < 0 {
		return 0, 0, fmt.Errorf("%s must be >= 0, got %d", burstKey, b)
	}

	if r == 0 {
		return 0, 0, nil
	}
	if b == 0 {
		b = int(r)
		if b < 1 {
			b = 1
		}
	}
	return r, b, nil
}

// durationFromEnv accepts Go duration strings ("750ms", "5s") or a bare number of seconds.
func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive, got %d", key, secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
