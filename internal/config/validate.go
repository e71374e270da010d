// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that would make the
// application misbehave at runtime. It is called by Load after all layers
// are resolved.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if err := c.validateJikan(); err != nil {
		return err
	}

	if c.Recommend.RecsPerAnime < 1 {
		return fmt.Errorf("recommend.recs_per_anime must be at least 1, got %d", c.Recommend.RecsPerAnime)
	}
	if c.Recommend.MaxAnalyzed < 0 {
		return fmt.Errorf("recommend.max_analyzed must not be negative, got %d", c.Recommend.MaxAnalyzed)
	}

	if c.NATS.Enabled {
		if !c.NATS.EmbeddedServer && strings.TrimSpace(c.NATS.URL) == "" {
			return fmt.Errorf("nats.url is required when nats.embedded_server is disabled")
		}
		if c.NATS.RouterRetryCount < 0 {
			return fmt.Errorf("nats.router_retry_count must not be negative, got %d", c.NATS.RouterRetryCount)
		}
	}

	if c.API.DefaultLimit < 1 {
		return fmt.Errorf("api.default_limit must be at least 1, got %d", c.API.DefaultLimit)
	}
	if c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api.max_limit (%d) must not be below api.default_limit (%d)",
			c.API.MaxLimit, c.API.DefaultLimit)
	}
	if c.API.MaxUploadBytes < 1 {
		return fmt.Errorf("api.max_upload_bytes must be positive, got %d", c.API.MaxUploadBytes)
	}

	return nil
}

func (c *Config) validateJikan() error {
	if strings.TrimSpace(c.Jikan.BaseURL) == "" {
		return fmt.Errorf("jikan.base_url must not be empty")
	}
	u, err := url.Parse(c.Jikan.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("jikan.base_url must be an absolute URL, got %q", c.Jikan.BaseURL)
	}
	if c.Jikan.MaxAttempts < 1 {
		return fmt.Errorf("jikan.max_attempts must be at least 1, got %d", c.Jikan.MaxAttempts)
	}
	if c.Jikan.RetryBackoff < 0 {
		return fmt.Errorf("jikan.retry_backoff must not be negative, got %s", c.Jikan.RetryBackoff)
	}
	if c.Jikan.SimilarMinInterval < 0 || c.Jikan.DetailsMinInterval < 0 {
		return fmt.Errorf("jikan pacing intervals must not be negative")
	}
	return nil
}
