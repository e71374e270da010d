// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/takumi809/anirec/internal/models"
)

// UpsertAnimeMetadata writes a metadata record, replacing any existing
// row for the same anime id. Last write wins.
func (db *DB) UpsertAnimeMetadata(ctx context.Context, meta *models.AnimeMetadata) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO anime_metadata (anime_id, title, image_url, media_type, score, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (anime_id) DO UPDATE SET
			title = EXCLUDED.title,
			image_url = EXCLUDED.image_url,
			media_type = EXCLUDED.media_type,
			score = EXCLUDED.score,
			cached_at = EXCLUDED.cached_at`,
		meta.AnimeID, meta.Title, nullString(meta.ImageURL), nullString(meta.MediaType),
		meta.Score, meta.CachedAt)
	if err != nil {
		return fmt.Errorf("upserting metadata for anime %s: %w", meta.AnimeID, err)
	}
	return nil
}

// GetAnimeMetadata loads the cached record for one anime id. Returns
// ErrNotFound on a cache miss.
func (db *DB) GetAnimeMetadata(ctx context.Context, animeID string) (*models.AnimeMetadata, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT anime_id, title, image_url, media_type, score, cached_at
		 FROM anime_metadata WHERE anime_id = ?`, animeID)

	meta, err := scanMetadata(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying metadata for anime %s: %w", animeID, err)
	}
	return meta, nil
}

// GetAnimeMetadataBatch loads cached records for a set of anime ids.
// Missing ids are simply absent from the returned map; a batch read
// never fails on a miss.
func (db *DB) GetAnimeMetadataBatch(ctx context.Context, animeIDs []string) (map[string]*models.AnimeMetadata, error) {
	result := make(map[string]*models.AnimeMetadata, len(animeIDs))
	if len(animeIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(animeIDs)), ",")
	args := make([]any, len(animeIDs))
	for i, id := range animeIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT anime_id, title, image_url, media_type, score, cached_at
		 FROM anime_metadata WHERE anime_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying metadata batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		meta, err := scanMetadata(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning metadata row: %w", err)
		}
		result[meta.AnimeID] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metadata rows: %w", err)
	}
	return result, nil
}

func scanMetadata(scan func(...any) error) (*models.AnimeMetadata, error) {
	var (
		meta      models.AnimeMetadata
		imageURL  sql.NullString
		mediaType sql.NullString
		score     sql.NullFloat64
	)
	if err := scan(&meta.AnimeID, &meta.Title, &imageURL, &mediaType, &score, &meta.CachedAt); err != nil {
		return nil, err
	}
	meta.ImageURL = imageURL.String
	meta.MediaType = mediaType.String
	if score.Valid {
		meta.Score = &score.Float64
	}
	return &meta, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
