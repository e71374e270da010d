// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package jikan

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/takumi809/anirec/internal/config"
	"github.com/takumi809/anirec/internal/logging"
)

func testConfig(baseURL string, backoff time.Duration) *config.JikanConfig {
	return &config.JikanConfig{
		BaseURL:            baseURL,
		Timeout:            5 * time.Second,
		MaxAttempts:        3,
		RetryBackoff:       backoff,
		SimilarMinInterval: 0,
		DetailsMinInterval: 0,
		BreakerEnabled:     false,
	}
}

func TestGetSimilarParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/42/recommendations" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[
			{"entry":{"mal_id":9,"title":"X","url":"https://myanimelist.net/anime/9"}},
			{"entry":{"mal_id":10,"title":"Y","url":"https://myanimelist.net/anime/10"}}
		]}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, time.Millisecond), logging.NewTestLogger(io.Discard))

	entries, err := client.GetSimilar(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetSimilar failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].AnimeID != "9" || entries[0].Title != "X" {
		t.Errorf("Expected first entry {9, X}, got %+v", entries[0])
	}
}

func TestGetDetailsParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/42" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{
			"mal_id":42,
			"title":"Example",
			"type":"TV",
			"score":8.12,
			"images":{"jpg":{"image_url":"https://cdn.test/42.jpg"}}
		}}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, time.Millisecond), logging.NewTestLogger(io.Discard))

	details, err := client.GetDetails(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if details.AnimeID != "42" || details.Title != "Example" || details.MediaType != "TV" {
		t.Errorf("Unexpected details: %+v", details)
	}
	if details.ImageURL != "https://cdn.test/42.jpg" {
		t.Errorf("Expected image url, got %s", details.ImageURL)
	}
	if details.Score == nil || *details.Score != 8.12 {
		t.Errorf("Expected score 8.12, got %v", details.Score)
	}
}

func TestRetryAfterRateLimit(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	base := 20 * time.Millisecond
	client := NewClient(testConfig(srv.URL, base), logging.NewTestLogger(io.Discard))

	start := time.Now()
	_, err := client.GetSimilar(context.Background(), "1")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Expected success on attempt 3, got %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
	// Two throttled attempts wait 1*base then 2*base.
	if want := 3 * base; elapsed < want {
		t.Errorf("Expected at least %v of backoff, elapsed %v", want, elapsed)
	}
}

func TestRateLimitCeilingExhausted(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, time.Millisecond), logging.NewTestLogger(io.Discard))

	_, err := client.GetSimilar(context.Background(), "1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("Expected ErrUpstreamUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected underlying ErrRateLimited to be preserved, got %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", got)
	}
}

func TestServerErrorRetriesWithFlatBackoff(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, time.Millisecond), logging.NewTestLogger(io.Discard))

	if _, err := client.GetSimilar(context.Background(), "1"); err != nil {
		t.Fatalf("Expected recovery after one 500, got %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, time.Minute), logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.GetSimilar(ctx, "1")
	if err == nil {
		t.Fatal("Expected error from canceled context")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Cancellation did not interrupt the backoff sleep")
	}
}

func TestPacingFloorBetweenCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, time.Millisecond)
	cfg.SimilarMinInterval = 50 * time.Millisecond
	client := NewClient(cfg, logging.NewTestLogger(io.Discard))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.GetSimilar(context.Background(), "1"); err != nil {
			t.Fatalf("GetSimilar failed: %v", err)
		}
	}
	// Three calls must span at least two pacing intervals.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Expected pacing of at least 100ms across 3 calls, elapsed %v", elapsed)
	}
}
