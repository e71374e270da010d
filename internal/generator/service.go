// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package generator orchestrates recommendation generation for a share
// identifier: cached result reuse, the aggregation walk, persistence, and
// queuing of background enrichment for candidates missing metadata.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/metrics"
	"github.com/takumi809/anirec/internal/models"
	"github.com/takumi809/anirec/internal/recommend"
)

var (
	// ErrNotFound is returned when the share identifier is unknown.
	ErrNotFound = errors.New("submission not found")

	// ErrNoResult is returned by GetCached when no generation has been
	// stored yet for a known identifier.
	ErrNoResult = errors.New("no stored result")
)

// Store is the persistence surface the generator needs.
type Store interface {
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	GetLatestResult(ctx context.Context, submissionID string) (*models.StoredResult, error)
	InsertResult(ctx context.Context, res *models.StoredResult) error
}

// Walker runs one aggregation walk.
type Walker interface {
	Aggregate(ctx context.Context, rated []models.RatedAnime, exclude map[string]struct{}, maxAnalyzed int) (*recommend.Result, error)
}

// Enqueuer queues an anime id for background metadata enrichment.
type Enqueuer interface {
	EnqueueAnime(ctx context.Context, animeID string) error
}

// Generation is the outcome of a Generate call.
type Generation struct {
	Result *models.StoredResult

	// ServedFromCache reports whether a stored result was reused. A
	// cached generation makes zero upstream calls.
	ServedFromCache bool
}

// Service generates and serves recommendation results.
type Service struct {
	store    Store
	walker   Walker
	enqueuer Enqueuer // may be nil when the work queue is disabled
	logger   zerolog.Logger
}

// NewService creates a generator Service.
func NewService(store Store, walker Walker, enqueuer Enqueuer, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		walker:   walker,
		enqueuer: enqueuer,
		logger:   logger.With().Str("component", "generator").Logger(),
	}
}

// Generate returns recommendations for a share identifier, reusing the
// latest stored result when one exists. maxAnalyzed caps the walk; 0
// means the configured default.
//
// A fresh walk runs detached from the caller's cancellation: once
// started, a generation completes and persists even if the requester
// goes away, so the spent upstream budget is never wasted.
func (s *Service) Generate(ctx context.Context, submissionID string, maxAnalyzed int) (*Generation, error) {
	stored, err := s.store.GetLatestResult(ctx, submissionID)
	if err == nil {
		metrics.GenerationsTotal.WithLabelValues("cache").Inc()
		return &Generation{Result: stored, ServedFromCache: true}, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("reading stored result: %w", err)
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading submission: %w", err)
	}

	start := time.Now()
	walkCtx := context.WithoutCancel(ctx)

	res, err := s.walker.Aggregate(walkCtx, sub.Rated, sub.ExclusionSet(), maxAnalyzed)
	if err != nil {
		return nil, fmt.Errorf("aggregating recommendations: %w", err)
	}

	result := &models.StoredResult{
		SubmissionID:  submissionID,
		Entries:       res.Entries,
		AnalyzedCount: res.AnalyzedCount,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.InsertResult(walkCtx, result); err != nil {
		return nil, fmt.Errorf("persisting result: %w", err)
	}

	metrics.GenerationsTotal.WithLabelValues("computed").Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	s.enqueueMissing(walkCtx, result.Entries)

	s.logger.Info().
		Str("submission_id", submissionID).
		Int("analyzed", result.AnalyzedCount).
		Int("entries", len(result.Entries)).
		Dur("elapsed", time.Since(start)).
		Msg("Generated recommendations")

	return &Generation{Result: result}, nil
}

// GetCached returns the latest stored result without triggering a walk.
func (s *Service) GetCached(ctx context.Context, submissionID string) (*models.StoredResult, error) {
	stored, err := s.store.GetLatestResult(ctx, submissionID)
	if errors.Is(err, database.ErrNotFound) {
		if _, subErr := s.store.GetSubmission(ctx, submissionID); errors.Is(subErr, database.ErrNotFound) {
			return nil, ErrNotFound
		} else if subErr != nil {
			return nil, fmt.Errorf("reading submission: %w", subErr)
		}
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, fmt.Errorf("reading stored result: %w", err)
	}
	return stored, nil
}

// enqueueMissing queues enrichment for entries still missing cached
// metadata. Queue failures are logged only; the generation already
// succeeded and enrichment will be retried on later requests.
func (s *Service) enqueueMissing(ctx context.Context, entries []models.RecommendationEntry) {
	if s.enqueuer == nil {
		return
	}
	for _, e := range entries {
		if e.ImageURL != "" || e.MediaType != "" {
			continue
		}
		if err := s.enqueuer.EnqueueAnime(ctx, e.AnimeID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("anime_id", e.AnimeID).
				Msg("Failed to queue metadata enrichment")
			continue
		}
		metrics.EnrichQueuedTotal.Inc()
	}
}
