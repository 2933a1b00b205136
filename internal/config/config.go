package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the CLI and serve mode. Canvas
// credentials stay optional at load time: offline commands (digest
// validation) never need them, so the entrypoint enforces them only when a
// Canvas call is about to happen.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	CanvasBaseURL  string
	CanvasToken    string
	HTTPTimeout    time.Duration
	MaxRetries     int
	PerPage        int
	RedisURL       string
	DigestCacheTTL time.Duration
}

// HTTPAddress returns the address the serve mode should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration from CANVAS_* environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CANVAS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "canvas-digest")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("http.timeout", "20s")
	v.SetDefault("http.max_retries", 4)
	v.SetDefault("http.per_page", 100)
	v.SetDefault("cache.ttl", "5m")

	timeout, err := time.ParseDuration(v.GetString("http.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid http timeout: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		CanvasBaseURL:  strings.TrimRight(v.GetString("base.url"), "/"),
		CanvasToken:    v.GetString("token"),
		HTTPTimeout:    timeout,
		MaxRetries:     v.GetInt("http.max_retries"),
		PerPage:        v.GetInt("http.per_page"),
		RedisURL:       v.GetString("redis.url"),
		DigestCacheTTL: ttl,
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}

	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}

	return cfg, nil
}

// RequireCanvas returns the environment variable name that is missing for a
// Canvas-backed command, or "" when credentials are complete.
func (c Config) RequireCanvas() string {
	if c.CanvasBaseURL == "" {
		return "CANVAS_BASE_URL"
	}
	if c.CanvasToken == "" {
		return "CANVAS_TOKEN"
	}
	return ""
}
