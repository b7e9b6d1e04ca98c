// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables, optionally seeded from a YAML file. It provides a centralized
// Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPathEnv names the optional YAML file. Environment variables win over
// values from the file.
const configPathEnv = "SPACETRAVELING_CONFIG"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel slog.Level

	// Content API
	PrismicEndpoint    string
	PrismicAccessToken string
	HTTPClientTimeout  time.Duration

	// Valkey (Redis-compatible cache + preview sessions)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Page generation
	PageCacheTTL time.Duration
	PreviewTTL   time.Duration
	FallbackWait time.Duration

	// Per-visitor request budgets per RateLimitWindow. Zero disables.
	PagesRateLimit    int
	LoadMoreRateLimit int
	PreviewRateLimit  int
	RateLimitWindow   time.Duration

	// Security headers
	ImageOrigins []string
	HSTS         bool
}

// defaultImageOrigins serve post banners and inline images.
const defaultImageOrigins = "https://images.prismic.io,https://prismic-io.s3.amazonaws.com"

// fileConfig mirrors the YAML file layout. Durations are kept as strings
// and parsed together with the environment values.
type fileConfig struct {
	App struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Env      string `yaml:"env"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"app"`
	Prismic struct {
		APIEndpoint string `yaml:"apiEndpoint"`
		AccessToken string `yaml:"accessToken"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"prismic"`
	Valkey struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Password string `yaml:"password"`
	} `yaml:"valkey"`
	Pages struct {
		CacheTTL     string `yaml:"cacheTTL"`
		PreviewTTL   string `yaml:"previewTTL"`
		FallbackWait string `yaml:"fallbackWait"`
	} `yaml:"pages"`
	RateLimits struct {
		Pages    string `yaml:"pages"`
		LoadMore string `yaml:"loadMore"`
		Preview  string `yaml:"preview"`
		Window   string `yaml:"window"`
	} `yaml:"rateLimits"`
	Security struct {
		ImageOrigins []string `yaml:"imageOrigins"`
		HSTS         string   `yaml:"hsts"`
	} `yaml:"security"`
}

// Load reads configuration from the optional YAML file and environment
// variables, applying defaults for development where appropriate. Returns an
// error if a value is malformed or critical values are missing in
// production mode.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", orDefault(fc.App.Host, "0.0.0.0")),
		Port: envOrDefault("APP_PORT", orDefault(fc.App.Port, "3000")),
		Env:  envOrDefault("APP_ENV", orDefault(fc.App.Env, "development")),

		PrismicEndpoint:    strings.TrimRight(envOrDefault("PRISMIC_API_ENDPOINT", fc.Prismic.APIEndpoint), "/"),
		PrismicAccessToken: envOrDefault("PRISMIC_ACCESS_TOKEN", fc.Prismic.AccessToken),

		ValkeyHost:     envOrDefault("VALKEY_HOST", orDefault(fc.Valkey.Host, "localhost")),
		ValkeyPort:     envOrDefault("VALKEY_PORT", orDefault(fc.Valkey.Port, "6379")),
		ValkeyPassword: envOrDefault("VALKEY_PASSWORD", fc.Valkey.Password),
	}

	defaultLevel := "info"
	if cfg.IsDev() {
		defaultLevel = "debug"
	}
	level := envOrDefault("LOG_LEVEL", orDefault(fc.App.LogLevel, defaultLevel))
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	durations := []struct {
		key      string
		file     string
		fallback string
		dst      *time.Duration
	}{
		{"HTTP_CLIENT_TIMEOUT", fc.Prismic.Timeout, "10s", &cfg.HTTPClientTimeout},
		{"PAGE_CACHE_TTL", fc.Pages.CacheTTL, "5m", &cfg.PageCacheTTL},
		{"PREVIEW_TTL", fc.Pages.PreviewTTL, "30m", &cfg.PreviewTTL},
		{"FALLBACK_WAIT", fc.Pages.FallbackWait, "3s", &cfg.FallbackWait},
		{"RATE_LIMIT_WINDOW", fc.RateLimits.Window, "1m", &cfg.RateLimitWindow},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(envOrDefault(d.key, orDefault(d.file, d.fallback)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive", d.key)
		}
		*d.dst = v
	}

	limits := []struct {
		key      string
		file     string
		fallback string
		dst      *int
	}{
		{"PAGES_RATE_LIMIT", fc.RateLimits.Pages, "120", &cfg.PagesRateLimit},
		{"LOAD_MORE_RATE_LIMIT", fc.RateLimits.LoadMore, "60", &cfg.LoadMoreRateLimit},
		{"PREVIEW_RATE_LIMIT", fc.RateLimits.Preview, "10", &cfg.PreviewRateLimit},
	}
	for _, l := range limits {
		v, err := strconv.Atoi(envOrDefault(l.key, orDefault(l.file, l.fallback)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s must not be negative", l.key)
		}
		*l.dst = v
	}

	origins := strings.Join(fc.Security.ImageOrigins, ",")
	for _, o := range strings.Split(envOrDefault("IMAGE_ORIGINS", orDefault(origins, defaultImageOrigins)), ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err != nil || !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("IMAGE_ORIGINS: %q is not an origin", o)
		}
		cfg.ImageOrigins = append(cfg.ImageOrigins, o)
	}

	// HSTS defaults to on outside development.
	hsts, err := strconv.ParseBool(envOrDefault("HSTS", orDefault(fc.Security.HSTS, strconv.FormatBool(!cfg.IsDev()))))
	if err != nil {
		return nil, fmt.Errorf("HSTS: %w", err)
	}
	cfg.HSTS = hsts

	if cfg.PrismicEndpoint == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("PRISMIC_API_ENDPOINT must be set in production")
		}
		cfg.PrismicEndpoint = "https://spacetraveling.cdn.prismic.io/api/v2"
	}
	if u, err := url.Parse(cfg.PrismicEndpoint); err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("PRISMIC_API_ENDPOINT must be an absolute URL, got %q", cfg.PrismicEndpoint)
	}

	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
