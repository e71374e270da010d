// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package api

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// handleHealth reports liveness plus database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok"}
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Health check: database unreachable")
		resp.Status = "degraded"
		resp.Database = "unreachable"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: resp, Meta: rw.meta()})
		return
	}

	rw.Success(resp)
}
