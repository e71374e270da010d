// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package config provides layered configuration loading for AniRec.
//
// Configuration is resolved with Koanf v2 from three layers, lowest to
// highest priority: built-in defaults, an optional YAML file, environment
// variables. The resulting Config is an immutable value handed to each
// component at construction so tests can inject tightened limits (for
// example zero pacing delays) without touching process globals.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Jikan     JikanConfig     `koanf:"jikan"`
	Recommend RecommendConfig `koanf:"recommend"`
	NATS      NATSConfig      `koanf:"nats"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	StaticDir   string        `koanf:"static_dir"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// JikanConfig holds upstream catalog API client settings.
//
// The pacing intervals are client-side floors between two non-concurrent
// calls to the same endpoint family, not per-call retry parameters. Jikan
// publishes no concurrency allowance and throttles aggressively, so the
// walk stays sequential and paced.
type JikanConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// MaxAttempts is the ceiling for one logical fetch, 429s included.
	MaxAttempts int `koanf:"max_attempts"`

	// RetryBackoff is the base backoff unit. A 429 on attempt n waits
	// n * RetryBackoff; other retryable failures wait a flat RetryBackoff.
	RetryBackoff time.Duration `koanf:"retry_backoff"`

	// SimilarMinInterval is the pacing floor between similarity lookups.
	SimilarMinInterval time.Duration `koanf:"similar_min_interval"`

	// DetailsMinInterval is the pacing floor between detail lookups.
	DetailsMinInterval time.Duration `koanf:"details_min_interval"`

	// BreakerEnabled wraps requests in a circuit breaker that opens after
	// consecutive upstream failures.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// RecommendConfig holds aggregation settings.
type RecommendConfig struct {
	// RecsPerAnime caps how many similar entries are consumed per
	// analyzed anime.
	RecsPerAnime int `koanf:"recs_per_anime"`

	// MaxAnalyzed is the default cap on how many top-rated anime are
	// walked when the caller gives none. 0 = analyze all.
	MaxAnalyzed int `koanf:"max_analyzed"`
}

// NATSConfig holds work queue settings for background enrichment.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`

	// Router middleware settings (Watermill).
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`

	// ItemPacing is the fixed delay applied between processed queue items
	// to respect the same upstream throttle as the aggregation walk.
	ItemPacing time.Duration `koanf:"item_pacing"`
}

// APIConfig holds API surface settings.
type APIConfig struct {
	DefaultLimit    int           `koanf:"default_limit"`
	MaxLimit        int           `koanf:"max_limit"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8765,
			Timeout:     30 * time.Second,
			StaticDir:   "web/dist",
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "/data/anirec.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Jikan: JikanConfig{
			BaseURL:            "https://api.jikan.moe/v4",
			Timeout:            10 * time.Second,
			MaxAttempts:        3,
			RetryBackoff:       2 * time.Second,
			SimilarMinInterval: 1000 * time.Millisecond,
			DetailsMinInterval: 350 * time.Millisecond,
			BreakerEnabled:     true,
		},
		Recommend: RecommendConfig{
			RecsPerAnime: 10,
			MaxAnalyzed:  25,
		},
		NATS: NATSConfig{
			Enabled:                    true,
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             true,
			StoreDir:                   "/data/nats/jetstream",
			MaxMemory:                  256 << 20, // 256MB
			MaxStore:                   1 << 30,   // 1GB
			DurableName:                "enrich-worker",
			QueueGroup:                 "enrichers",
			RouterRetryCount:           3,
			RouterRetryInitialInterval: time.Second,
			RouterPoisonQueueTopic:     "enrich.poison",
			RouterCloseTimeout:         30 * time.Second,
			ItemPacing:                 time.Second,
		},
		API: APIConfig{
			DefaultLimit:    20,
			MaxLimit:        100,
			MaxUploadBytes:  16 << 20, // MAL exports are small XML files
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
