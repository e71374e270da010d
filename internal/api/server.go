// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/takumi809/anirec/internal/config"
	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/generator"
)

// Server holds the HTTP surface and its collaborators.
type Server struct {
	cfg    *config.Config
	db     *database.DB
	gen    *generator.Service
	logger zerolog.Logger

	httpServer *http.Server
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, db *database.DB, gen *generator.Service, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		db:     db,
		gen:    gen,
		logger: logger.With().Str("component", "api").Logger(),
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: a first-time generation legitimately runs for
		// minutes against a paced upstream.
		IdleTimeout: 120 * time.Second,
	}

	return s
}

// ListenAndServe starts serving and blocks until the server closes.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// staticDirExists reports whether the configured static asset directory
// is present; the server runs headless without one.
func (s *Server) staticDirExists() bool {
	info, err := os.Stat(s.cfg.Server.StaticDir)
	return err == nil && info.IsDir()
}
