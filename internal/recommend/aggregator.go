// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package recommend implements the recommendation aggregation walk.
//
// The walk takes a user's top-rated anime, asks the upstream catalog for
// the entries similar to each one, and tallies how often each candidate
// shows up. Candidates the user already has in their list never appear in
// the output. The walk is strictly sequential so the upstream pacing
// floors hold.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/takumi809/anirec/internal/config"
	"github.com/takumi809/anirec/internal/jikan"
	"github.com/takumi809/anirec/internal/metrics"
	"github.com/takumi809/anirec/internal/models"
)

// TopRatedScore is the minimum user score for an entry to seed the walk.
const TopRatedScore = 8

// SimilarFetcher fetches similarity recommendations for one anime id.
type SimilarFetcher interface {
	GetSimilar(ctx context.Context, animeID string) ([]jikan.SimilarEntry, error)
}

// MetadataReader reads cached metadata records in bulk.
type MetadataReader interface {
	GetAnimeMetadataBatch(ctx context.Context, animeIDs []string) (map[string]*models.AnimeMetadata, error)
}

// Result is the output of one aggregation walk.
type Result struct {
	// Entries is ordered by tally count descending; ties keep first-seen
	// order.
	Entries []models.RecommendationEntry

	// AnalyzedCount is how many top-rated anime the walk attempted,
	// successes and failures alike.
	AnalyzedCount int
}

// Aggregator runs aggregation walks.
type Aggregator struct {
	fetcher SimilarFetcher
	meta    MetadataReader
	cfg     *config.RecommendConfig
	logger  zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(fetcher SimilarFetcher, meta MetadataReader, cfg *config.RecommendConfig, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		meta:    meta,
		cfg:     cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}
}

// tallyEntry accumulates votes for one candidate title. The id and url of
// the first occurrence stick; later occurrences under the same title only
// raise the count.
type tallyEntry struct {
	title   string
	animeID string
	url     string
	count   int
}

// TopRated returns the entries scoring at or above TopRatedScore, sorted
// by score descending. Ties keep input order.
func TopRated(rated []models.RatedAnime) []models.RatedAnime {
	top := make([]models.RatedAnime, 0, len(rated))
	for _, a := range rated {
		if a.Score >= TopRatedScore {
			top = append(top, a)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score > top[j].Score
	})
	return top
}

// Aggregate runs one walk. maxAnalyzed caps how many top-rated entries
// are walked; 0 means use the configured default, and a negative value
// means no cap. Per-item upstream failures are logged and skipped; the
// walk fails only on context cancellation.
func (a *Aggregator) Aggregate(ctx context.Context, rated []models.RatedAnime, exclude map[string]struct{}, maxAnalyzed int) (*Result, error) {
	selected := TopRated(rated)
	if maxAnalyzed == 0 {
		maxAnalyzed = a.cfg.MaxAnalyzed
	}
	if maxAnalyzed > 0 && len(selected) > maxAnalyzed {
		selected = selected[:maxAnalyzed]
	}

	tally := make(map[string]*tallyEntry)
	var order []*tallyEntry

	for _, anime := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		similar, err := a.fetcher.GetSimilar(ctx, anime.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.GenerationItemsSkipped.Inc()
			a.logger.Warn().
				Err(err).
				Str("anime_id", anime.ID).
				Str("title", anime.Title).
				Msg("Similarity lookup failed, skipping item")
			continue
		}

		if a.cfg.RecsPerAnime > 0 && len(similar) > a.cfg.RecsPerAnime {
			similar = similar[:a.cfg.RecsPerAnime]
		}
		for _, rec := range similar {
			if _, excluded := exclude[rec.AnimeID]; excluded {
				continue
			}
			if entry, ok := tally[rec.Title]; ok {
				entry.count++
				continue
			}
			entry := &tallyEntry{
				title:   rec.Title,
				animeID: rec.AnimeID,
				url:     rec.URL,
				count:   1,
			}
			tally[rec.Title] = entry
			order = append(order, entry)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	entries, err := a.buildEntries(ctx, order)
	if err != nil {
		return nil, err
	}

	return &Result{
		Entries:       entries,
		AnalyzedCount: len(selected),
	}, nil
}

// buildEntries converts the ranked tally into result entries, enriched
// from the metadata cache. Enrichment only reads the cache; candidates
// not yet cached go out with their tally fields alone.
func (a *Aggregator) buildEntries(ctx context.Context, order []*tallyEntry) ([]models.RecommendationEntry, error) {
	ids := make([]string, 0, len(order))
	for _, e := range order {
		ids = append(ids, e.animeID)
	}

	cached, err := a.meta.GetAnimeMetadataBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reading metadata cache: %w", err)
	}

	entries := make([]models.RecommendationEntry, 0, len(order))
	for _, e := range order {
		entry := models.RecommendationEntry{
			Title:   e.title,
			AnimeID: e.animeID,
			Count:   e.count,
			URL:     e.url,
		}
		if meta, ok := cached[e.animeID]; ok {
			entry.ImageURL = meta.ImageURL
			entry.MediaType = meta.MediaType
			entry.Score = meta.Score
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
