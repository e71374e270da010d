// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdirTemp moves the test into an empty directory so no local
// config.yaml is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("Chdir back failed: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8765 {
		t.Errorf("Expected default port 8765, got %d", cfg.Server.Port)
	}
	if cfg.Jikan.BaseURL != "https://api.jikan.moe/v4" {
		t.Errorf("Unexpected default Jikan base url: %s", cfg.Jikan.BaseURL)
	}
	if cfg.Jikan.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cfg.Jikan.MaxAttempts)
	}
	if cfg.Jikan.SimilarMinInterval != time.Second {
		t.Errorf("Expected 1s similar pacing, got %v", cfg.Jikan.SimilarMinInterval)
	}
	if cfg.Jikan.DetailsMinInterval != 350*time.Millisecond {
		t.Errorf("Expected 350ms details pacing, got %v", cfg.Jikan.DetailsMinInterval)
	}
	if cfg.Recommend.MaxAnalyzed != 25 {
		t.Errorf("Expected default analyzed cap 25, got %d", cfg.Recommend.MaxAnalyzed)
	}
	if cfg.Recommend.RecsPerAnime != 10 {
		t.Errorf("Expected 10 recs per anime, got %d", cfg.Recommend.RecsPerAnime)
	}
	if !cfg.NATS.Enabled {
		t.Error("Expected the work queue enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)

	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DUCKDB_PATH", "/tmp/other.duckdb")
	t.Setenv("JIKAN_MAX_ATTEMPTS", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/other.duckdb" {
		t.Errorf("Expected overridden db path, got %s", cfg.Database.Path)
	}
	if cfg.Jikan.MaxAttempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", cfg.Jikan.MaxAttempts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.test" {
		t.Errorf("Expected two CORS origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadUnmappedEnvVarsIgnored(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RANDOM_UNRELATED_VAR", "boom")

	if _, err := Load(); err != nil {
		t.Fatalf("Unmapped env vars must not break loading: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	chdirTemp(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: 8123\njikan:\n  max_attempts: 4\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Expected port 8123 from file, got %d", cfg.Server.Port)
	}
	if cfg.Jikan.MaxAttempts != 4 {
		t.Errorf("Expected 4 attempts from file, got %d", cfg.Jikan.MaxAttempts)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	chdirTemp(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8123\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Env must override the config file, got port %d", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid port", func(c *Config) { c.Server.Port = -1 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"relative jikan url", func(c *Config) { c.Jikan.BaseURL = "not-a-url" }},
		{"zero attempts", func(c *Config) { c.Jikan.MaxAttempts = 0 }},
		{"negative backoff", func(c *Config) { c.Jikan.RetryBackoff = -time.Second }},
		{"limit ordering", func(c *Config) { c.API.DefaultLimit = 500; c.API.MaxLimit = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}
