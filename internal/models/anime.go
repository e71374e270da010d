// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package models

import "time"

// RatedAnime is a single entry from a MyAnimeList export.
// Entries are immutable once stored; the aggregator reads them but never
// mutates them.
type RatedAnime struct {
	// ID is the MyAnimeList series id (series_animedb_id in the export).
	ID string `json:"id"`

	// Title is the series title as exported.
	Title string `json:"title"`

	// Score is the user's rating, 1-10. Unrated entries (score 0) are not
	// stored as RatedAnime; their ids only contribute to the exclusion set.
	Score int `json:"score"`

	// Status is the user's watch status (e.g. "Completed", "Watching").
	Status string `json:"status,omitempty"`
}

// ListStats summarizes an uploaded list.
type ListStats struct {
	// TotalAnime is the number of entries in the export, rated or not.
	TotalAnime int `json:"total_anime"`

	// RatedAnime is the number of entries with a non-zero score.
	RatedAnime int `json:"rated_anime"`

	// MeanScore is the average score across rated entries (0 if none).
	MeanScore float64 `json:"mean_score"`
}

// Submission is a persisted list upload, keyed by its share identifier.
type Submission struct {
	// ID is the opaque share identifier the upload is stored under.
	ID string `json:"id"`

	// Rated holds the rated entries, sorted by score descending at ingest
	// time (ties keep export order).
	Rated []RatedAnime `json:"rated"`

	// AllIDs holds every anime id in the export, rated or not. It is the
	// source of the exclusion set: anything the user already has a record
	// of is never recommended back.
	AllIDs []string `json:"all_ids"`

	Stats     ListStats `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}

// ExclusionSet returns AllIDs as a set for membership checks.
func (s *Submission) ExclusionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.AllIDs))
	for _, id := range s.AllIDs {
		set[id] = struct{}{}
	}
	return set
}

// RecommendationEntry is one ranked recommendation in a generation result.
// Image, media type and score come from the metadata cache and may be empty
// until the enrichment worker has populated them.
type RecommendationEntry struct {
	Title     string   `json:"title"`
	AnimeID   string   `json:"anime_id"`
	Count     int      `json:"count"`
	URL       string   `json:"url,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

// StoredResult is a persisted generation output for a share identifier.
// Results are append-only; the latest row per identifier is authoritative.
type StoredResult struct {
	SubmissionID  string                `json:"submission_id"`
	Entries       []RecommendationEntry `json:"entries"`
	AnalyzedCount int                   `json:"analyzed_count"`
	CreatedAt     time.Time             `json:"created_at"`
}

// AnimeMetadata is a cached catalog record, keyed by anime id.
// Writes are idempotent upserts; the last write wins. CachedAt tracks
// staleness but no eviction acts on it.
type AnimeMetadata struct {
	AnimeID   string    `json:"anime_id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url,omitempty"`
	MediaType string    `json:"media_type,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	CachedAt  time.Time `json:"cached_at"`
}
