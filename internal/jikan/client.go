// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package jikan implements a paced, retrying client for the Jikan v4 API.
//
// Jikan throttles aggressively and publishes no concurrency allowance, so
// the client serializes calls per endpoint family behind a rate.Limiter
// pacing floor and retries throttled requests with a linearly growing
// backoff. Callers see either a normalized result or an error satisfying
// errors.Is against the package sentinels.
package jikan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/takumi809/anirec/internal/config"
	"github.com/takumi809/anirec/internal/metrics"
)

var (
	// ErrRateLimited marks a single throttled (429) upstream response.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable marks a logical fetch that exhausted its
	// attempt ceiling without a usable response.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

const (
	endpointSimilar = "similar"
	endpointDetails = "details"
)

// Client talks to the Jikan v4 API with client-side pacing, bounded
// retries and an optional circuit breaker. All methods are safe for
// concurrent use; concurrent callers of the same endpoint family are
// serialized by the pacing limiter.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration

	similarPacer *rate.Limiter
	detailsPacer *rate.Limiter

	breaker *gobreaker.CircuitBreaker[[]byte]

	logger zerolog.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg *config.JikanConfig, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxAttempts:  cfg.MaxAttempts,
		backoffBase:  cfg.RetryBackoff,
		similarPacer: newPacer(cfg.SimilarMinInterval),
		detailsPacer: newPacer(cfg.DetailsMinInterval),
		logger:       logger.With().Str("component", "jikan").Logger(),
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}

	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "jikan",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		})
	}

	return c
}

// newPacer builds a pacing limiter enforcing a minimum interval between
// calls. A non-positive interval disables pacing.
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// GetSimilar returns the similarity recommendations for one anime id.
// The returned slice preserves upstream order and may be empty.
func (c *Client) GetSimilar(ctx context.Context, animeID string) ([]SimilarEntry, error) {
	if err := c.similarPacer.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/anime/%s/recommendations", c.baseURL, url.PathEscape(animeID))
	body, err := c.fetch(ctx, reqURL, endpointSimilar)
	if err != nil {
		return nil, err
	}

	var resp recommendationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding recommendations for anime %s: %w", animeID, err)
	}
	return resp.normalize(), nil
}

// GetDetails returns the detail record for one anime id.
func (c *Client) GetDetails(ctx context.Context, animeID string) (*AnimeDetails, error) {
	if err := c.detailsPacer.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/anime/%s", c.baseURL, url.PathEscape(animeID))
	body, err := c.fetch(ctx, reqURL, endpointDetails)
	if err != nil {
		return nil, err
	}

	var resp animeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding details for anime %s: %w", animeID, err)
	}
	return resp.normalize(), nil
}

// fetch runs one logical fetch through the breaker when configured.
func (c *Client) fetch(ctx context.Context, reqURL, endpoint string) ([]byte, error) {
	if c.breaker == nil {
		return c.fetchWithRetry(ctx, reqURL, endpoint)
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetchWithRetry(ctx, reqURL, endpoint)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return body, err
}

// fetchWithRetry performs up to maxAttempts requests for one logical
// fetch. A throttled attempt n sleeps n*backoffBase before the next try;
// other failures sleep a flat backoffBase. The final attempt's error is
// propagated wrapped in ErrUpstreamUnavailable.
func (c *Client) fetchWithRetry(ctx context.Context, reqURL, endpoint string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, reqURL, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}

		delay := c.backoffBase
		reason := "error"
		if errors.Is(err, ErrRateLimited) {
			// Throttled attempts consume the shared ceiling and wait
			// longer each time.
			delay = time.Duration(attempt) * c.backoffBase
			reason = "rate_limited"
		}
		metrics.UpstreamRetriesTotal.WithLabelValues(endpoint, reason).Inc()

		c.logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Dur("delay", delay).
			Msg("Upstream request failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %w",
		ErrUpstreamUnavailable, endpoint, c.maxAttempts, lastErr)
}

// doRequest performs a single HTTP attempt.
func (c *Client) doRequest(ctx context.Context, reqURL, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("%w (status %d)", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}
