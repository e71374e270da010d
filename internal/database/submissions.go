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

// SaveSubmission persists an uploaded list under its share identifier.
func (db *DB) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	ratedJSON, err := json.Marshal(sub.Rated)
	if err != nil {
		return fmt.Errorf("marshaling rated entries: %w", err)
	}
	allIDsJSON, err := json.Marshal(sub.AllIDs)
	if err != nil {
		return fmt.Errorf("marshaling exclusion ids: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO submissions (id, rated_json, all_ids_json, total_anime, rated_count, mean_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, string(ratedJSON), string(allIDsJSON),
		sub.Stats.TotalAnime, sub.Stats.RatedAnime, sub.Stats.MeanScore,
		sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting submission %s: %w", sub.ID, err)
	}
	return nil
}

// GetSubmission loads a submission by share identifier. Returns
// ErrNotFound when the identifier is unknown.
func (db *DB) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, rated_json, all_ids_json, total_anime, rated_count, mean_score, created_at
		 FROM submissions WHERE id = ?`, id)

	var (
		sub        models.Submission
		ratedJSON  string
		allIDsJSON string
	)
	err := row.Scan(&sub.ID, &ratedJSON, &allIDsJSON,
		&sub.Stats.TotalAnime, &sub.Stats.RatedAnime, &sub.Stats.MeanScore,
		&sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(ratedJSON), &sub.Rated); err != nil {
		return nil, fmt.Errorf("unmarshaling rated entries for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(allIDsJSON), &sub.AllIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling exclusion ids for %s: %w", id, err)
	}
	return &sub, nil
}
