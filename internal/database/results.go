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

	json "github.com/goccy/go-json"

	"github.com/takumi809/anirec/internal/models"
)

// InsertResult appends a generation result for a share identifier.
// Results are never updated in place; the latest row wins on read.
func (db *DB) InsertResult(ctx context.Context, res *models.StoredResult) error {
	entriesJSON, err := json.Marshal(res.Entries)
	if err != nil {
		return fmt.Errorf("marshaling result entries: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO recommendation_results (submission_id, results_json, analyzed_count, created_at)
		 VALUES (?, ?, ?, ?)`,
		res.SubmissionID, string(entriesJSON), res.AnalyzedCount, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting result for %s: %w", res.SubmissionID, err)
	}
	return nil
}

// GetLatestResult returns the most recent generation result for a share
// identifier, or ErrNotFound when none has been stored.
func (db *DB) GetLatestResult(ctx context.Context, submissionID string) (*models.StoredResult, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT submission_id, results_json, analyzed_count, created_at
		 FROM recommendation_results
		 WHERE submission_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`, submissionID)

	var (
		res         models.StoredResult
		entriesJSON string
	)
	err := row.Scan(&res.SubmissionID, &entriesJSON, &res.AnalyzedCount, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest result for %s: %w", submissionID, err)
	}

	if err := json.Unmarshal([]byte(entriesJSON), &res.Entries); err != nil {
		return nil, fmt.Errorf("unmarshaling result entries for %s: %w", submissionID, err)
	}
	return &res, nil
}
