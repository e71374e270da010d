// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Command server runs the AniRec service: HTTP API, recommendation
// engine, and the background metadata enrichment worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/takumi809/anirec/internal/api"
	"github.com/takumi809/anirec/internal/config"
	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/enrich"
	"github.com/takumi809/anirec/internal/generator"
	"github.com/takumi809/anirec/internal/jikan"
	"github.com/takumi809/anirec/internal/logging"
	"github.com/takumi809/anirec/internal/metadata"
	"github.com/takumi809/anirec/internal/recommend"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	jikanClient := jikan.NewClient(&cfg.Jikan, logger)
	metaSvc := metadata.NewService(db, jikanClient, logger)
	aggregator := recommend.NewAggregator(jikanClient, db, &cfg.Recommend, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var enqueuer generator.Enqueuer
	if cfg.NATS.Enabled {
		queue, err := startQueue(ctx, cfg, db, metaSvc)
		if err != nil {
			return err
		}
		defer queue.close()
		enqueuer = queue.publisher
	} else {
		logger.Warn().Msg("Work queue disabled, metadata enrichment will only happen inline")
	}

	gen := generator.NewService(db, aggregator, enqueuer, logger)
	server := api.NewServer(cfg, db, gen, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	return nil
}

// queueComponents bundles the work queue pieces for shutdown.
type queueComponents struct {
	embedded  *enrich.EmbeddedServer
	publisher *enrich.Publisher
	worker    *enrich.Worker
}

// startQueue brings up the enrichment queue: optionally an embedded NATS
// server, then the publisher and the consuming worker.
func startQueue(ctx context.Context, cfg *config.Config, db *database.DB, metaSvc *metadata.Service) (*queueComponents, error) {
	logger := logging.Logger()
	url := cfg.NATS.URL

	var embedded *enrich.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		var err error
		embedded, err = enrich.NewEmbeddedServer(&cfg.NATS)
		if err != nil {
			return nil, err
		}
		url = embedded.ClientURL()
		logger.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pub, err := enrich.NewNATSPublisher(url, logger)
	if err != nil {
		return nil, err
	}

	sub, err := enrich.NewNATSSubscriber(&cfg.NATS, url, logger)
	if err != nil {
		return nil, err
	}

	worker, err := enrich.NewWorker(&cfg.NATS, sub, pub, db, metaSvc, logger)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Enrichment worker stopped")
		}
	}()

	return &queueComponents{
		embedded:  embedded,
		publisher: enrich.NewPublisher(pub, logger),
		worker:    worker,
	}, nil
}

func (q *queueComponents) close() {
	if q.worker != nil {
		if err := q.worker.Close(); err != nil {
			logging.Warn().Err(err).Msg("Worker close failed")
		}
	}
	if q.publisher != nil {
		if err := q.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Publisher close failed")
		}
	}
	if q.embedded != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := q.embedded.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS shutdown failed")
		}
	}
}
