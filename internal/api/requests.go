// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package api

import (
	"net/http"
	"strconv"
)

// recommendationsRequest holds validated query parameters for the
// recommendations endpoint.
type recommendationsRequest struct {
	// Limit caps how many entries the response carries.
	Limit int `validate:"min=1,max=1000"`

	// MaxAnalyzed caps the walk on a fresh generation. 0 means the
	// configured default.
	MaxAnalyzed int `validate:"min=0,max=100"`
}

// parseRecommendationsRequest extracts and defaults the query
// parameters. Unparseable numbers surface as -1 so validation rejects
// them with a field-level message.
func (s *Server) parseRecommendationsRequest(r *http.Request) recommendationsRequest {
	req := recommendationsRequest{
		Limit:       s.cfg.API.DefaultLimit,
		MaxAnalyzed: 0,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		req.Limit = atoiOr(raw, -1)
	}
	if req.Limit > s.cfg.API.MaxLimit {
		req.Limit = s.cfg.API.MaxLimit
	}
	if raw := r.URL.Query().Get("max_analyzed"); raw != "" {
		req.MaxAnalyzed = atoiOr(raw, -1)
	}
	return req
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
