// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package database

import (
	"context"
	"fmt"
)

// initSchema creates the tables and indexes if they do not exist.
// Submissions and results store their entry lists as JSON columns; the
// engine only ever reads them back whole, so relational decomposition
// would buy nothing.
func (db *DB) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id           VARCHAR PRIMARY KEY,
			rated_json   VARCHAR NOT NULL,
			all_ids_json VARCHAR NOT NULL,
			total_anime  INTEGER NOT NULL,
			rated_count  INTEGER NOT NULL,
			mean_score   DOUBLE NOT NULL,
			created_at   TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_results (
			submission_id  VARCHAR NOT NULL,
			results_json   VARCHAR NOT NULL,
			analyzed_count INTEGER NOT NULL,
			created_at     TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_submission
			ON recommendation_results (submission_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS anime_metadata (
			anime_id   VARCHAR PRIMARY KEY,
			title      VARCHAR NOT NULL,
			image_url  VARCHAR,
			media_type VARCHAR,
			score      DOUBLE,
			cached_at  TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
