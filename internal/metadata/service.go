// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package metadata provides a read-through cache over the upstream
// catalog, backed by the anime_metadata table. A cache hit never touches
// upstream; a miss fetches, stores and returns the record.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/jikan"
	"github.com/takumi809/anirec/internal/metrics"
	"github.com/takumi809/anirec/internal/models"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetAnimeMetadata(ctx context.Context, animeID string) (*models.AnimeMetadata, error)
	UpsertAnimeMetadata(ctx context.Context, meta *models.AnimeMetadata) error
}

// DetailsFetcher fetches one detail record from the upstream catalog.
type DetailsFetcher interface {
	GetDetails(ctx context.Context, animeID string) (*jikan.AnimeDetails, error)
}

// Service is the read-through metadata cache.
type Service struct {
	store   Store
	fetcher DetailsFetcher
	logger  zerolog.Logger
}

// NewService creates a metadata Service.
func NewService(store Store, fetcher DetailsFetcher, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "metadata").Logger(),
	}
}

// Get returns the metadata record for an anime id, fetching and caching
// it on a miss. A failed cache write fails the call so the caller can
// retry rather than silently refetch forever.
func (s *Service) Get(ctx context.Context, animeID string) (*models.AnimeMetadata, error) {
	meta, err := s.store.GetAnimeMetadata(ctx, animeID)
	if err == nil {
		metrics.MetadataCacheHits.Inc()
		return meta, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("reading metadata cache: %w", err)
	}
	metrics.MetadataCacheMisses.Inc()

	details, err := s.fetcher.GetDetails(ctx, animeID)
	if err != nil {
		return nil, fmt.Errorf("fetching details for anime %s: %w", animeID, err)
	}

	meta = &models.AnimeMetadata{
		AnimeID:   details.AnimeID,
		Title:     details.Title,
		ImageURL:  details.ImageURL,
		MediaType: details.MediaType,
		Score:     details.Score,
		CachedAt:  time.Now().UTC(),
	}
	if err := s.store.UpsertAnimeMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("caching metadata for anime %s: %w", animeID, err)
	}

	s.logger.Debug().Str("anime_id", animeID).Msg("Cached metadata from upstream")
	return meta, nil
}
