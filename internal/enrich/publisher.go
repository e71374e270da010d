// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package enrich

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// Publisher queues enrichment tasks on the work queue.
type Publisher struct {
	pub    message.Publisher
	logger zerolog.Logger
}

// NewPublisher creates a Publisher over any Watermill publisher.
func NewPublisher(pub message.Publisher, logger zerolog.Logger) *Publisher {
	return &Publisher{
		pub:    pub,
		logger: logger.With().Str("component", "enrich.publisher").Logger(),
	}
}

// EnqueueAnime queues a metadata enrichment task for one anime id.
func (p *Publisher) EnqueueAnime(ctx context.Context, animeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	task := Task{AnimeID: animeID}
	payload, err := task.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling enrichment task: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pub.Publish(TopicEnrichAnime, msg); err != nil {
		return fmt.Errorf("publishing enrichment task for anime %s: %w", animeID, err)
	}

	p.logger.Debug().Str("anime_id", animeID).Msg("Queued enrichment task")
	return nil
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
