// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package enrich implements the background metadata enrichment queue.
//
// Generations emit recommendation entries before their catalog metadata
// is cached. Each such entry is queued as a Task; a single paced worker
// consumes tasks, fills the metadata cache through the read-through
// service, and lets later generations pick the enriched fields up.
package enrich

import (
	json "github.com/goccy/go-json"
)

// TopicEnrichAnime is the queue subject for enrichment tasks.
const TopicEnrichAnime = "enrich.anime"

// Task asks the worker to ensure metadata is cached for one anime id.
// Tasks are idempotent: enriching an already-cached id is a no-op.
type Task struct {
	AnimeID string `json:"anime_id"`
}

// Marshal encodes the task as a message payload.
func (t *Task) Marshal() ([]byte, error) {
	return json.Marshal(t)
}

// UnmarshalTask decodes a message payload into a Task.
func UnmarshalTask(payload []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
