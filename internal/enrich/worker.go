// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/takumi809/anirec/internal/config"
	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/metrics"
	"github.com/takumi809/anirec/internal/models"
)

// MetadataStore reads cached metadata records.
type MetadataStore interface {
	GetAnimeMetadata(ctx context.Context, animeID string) (*models.AnimeMetadata, error)
}

// MetadataGetter fetches-and-caches a metadata record on a cache miss.
type MetadataGetter interface {
	Get(ctx context.Context, animeID string) (*models.AnimeMetadata, error)
}

// Worker consumes enrichment tasks from the queue. Processing is paced:
// each task that actually reaches upstream waits for the pacing limiter
// first, so the worker never competes with a foreground walk for more
// than the upstream throttle allows. Tasks whose metadata is already
// cached are acknowledged without pacing or upstream traffic.
type Worker struct {
	router *message.Router
	store  MetadataStore
	meta   MetadataGetter
	pacer  *rate.Limiter
	logger zerolog.Logger
}

// NewWorker builds a Worker over a Watermill subscriber. Failed tasks are
// retried with backoff and routed to the poison topic when retries are
// exhausted.
func NewWorker(
	cfg *config.NATSConfig,
	subscriber message.Subscriber,
	poisonPub message.Publisher,
	store MetadataStore,
	meta MetadataGetter,
	logger zerolog.Logger,
) (*Worker, error) {
	componentLogger := logger.With().Str("component", "enrich.worker").Logger()
	wmLogger := newWatermillLogger(componentLogger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.RouterCloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	w := &Worker{
		router: router,
		store:  store,
		meta:   meta,
		pacer:  newPacer(cfg.ItemPacing),
		logger: componentLogger,
	}

	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RouterRetryCount,
		InitialInterval: cfg.RouterRetryInitialInterval,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	if poisonPub != nil && cfg.RouterPoisonQueueTopic != "" {
		poison, err := middleware.PoisonQueue(poisonPub, cfg.RouterPoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("creating poison queue middleware: %w", err)
		}
		router.AddMiddleware(poison)
	}

	router.AddNoPublisherHandler(
		"enrich_anime",
		TopicEnrichAnime,
		subscriber,
		w.handle,
	)

	return w, nil
}

// newPacer builds the pacing limiter. Non-positive intervals disable
// pacing (used by tests).
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Run starts the worker and blocks until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Enrichment worker starting")
	return w.router.Run(ctx)
}

// Running returns a channel closed once the router is running.
func (w *Worker) Running() <-chan struct{} {
	return w.router.Running()
}

// Close stops the worker.
func (w *Worker) Close() error {
	return w.router.Close()
}

// handle processes one enrichment task.
//
// Outcomes: a malformed payload is acknowledged and dropped (retrying
// cannot fix it); an already-cached id is acknowledged with zero upstream
// traffic; a fetch failure is returned so the middleware requeues the
// task; a successful fetch caches the record and acknowledges.
func (w *Worker) handle(msg *message.Message) error {
	ctx := msg.Context()

	task, err := UnmarshalTask(msg.Payload)
	if err != nil || task.AnimeID == "" {
		metrics.EnrichProcessedTotal.WithLabelValues("malformed").Inc()
		w.logger.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping malformed enrichment task")
		return nil
	}

	if _, err := w.store.GetAnimeMetadata(ctx, task.AnimeID); err == nil {
		metrics.EnrichProcessedTotal.WithLabelValues("cached").Inc()
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("reading metadata cache: %w", err)
	}

	if err := w.pacer.Wait(ctx); err != nil {
		return err
	}

	if _, err := w.meta.Get(ctx, task.AnimeID); err != nil {
		metrics.EnrichProcessedTotal.WithLabelValues("requeued").Inc()
		return fmt.Errorf("enriching anime %s: %w", task.AnimeID, err)
	}

	metrics.EnrichProcessedTotal.WithLabelValues("fetched").Inc()
	w.logger.Debug().Str("anime_id", task.AnimeID).Msg("Enriched anime metadata")
	return nil
}
