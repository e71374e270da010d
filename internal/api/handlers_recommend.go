// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/takumi809/anirec/internal/generator"
	"github.com/takumi809/anirec/internal/models"
	"github.com/takumi809/anirec/internal/validation"
)

// recommendationsResponse is the payload for recommendation reads.
type recommendationsResponse struct {
	SubmissionID    string                       `json:"submission_id"`
	Entries         []models.RecommendationEntry `json:"entries"`
	Total           int                          `json:"total"`
	AnalyzedCount   int                          `json:"analyzed_count"`
	ServedFromCache bool                         `json:"served_from_cache"`
	GeneratedAt     time.Time                    `json:"generated_at"`
}

// handleGetRecommendations returns recommendations for a share
// identifier, generating them on first request. Generation is slow by
// nature; a disconnecting client does not abort it, and the next request
// for the same identifier is served from the stored result.
func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	req := s.parseRecommendationsRequest(r)
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	gen, err := s.gen.Generate(r.Context(), id, req.MaxAnalyzed)
	if errors.Is(err, generator.ErrNotFound) {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Unknown list identifier")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("Recommendation generation failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to generate recommendations")
		return
	}

	rw.Success(buildRecommendationsResponse(gen.Result, gen.ServedFromCache, req.Limit))
}

// handleGetCachedRecommendations returns the stored result without
// triggering a generation. Useful for polling while a first generation
// is in flight.
func (s *Server) handleGetCachedRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	req := s.parseRecommendationsRequest(r)
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	stored, err := s.gen.GetCached(r.Context(), id)
	if errors.Is(err, generator.ErrNotFound) {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Unknown list identifier")
		return
	}
	if errors.Is(err, generator.ErrNoResult) {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "No recommendations generated yet for this list")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("Failed to load stored result")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to load recommendations")
		return
	}

	rw.Success(buildRecommendationsResponse(stored, true, req.Limit))
}

func buildRecommendationsResponse(res *models.StoredResult, fromCache bool, limit int) recommendationsResponse {
	entries := res.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return recommendationsResponse{
		SubmissionID:    res.SubmissionID,
		Entries:         entries,
		Total:           len(res.Entries),
		AnalyzedCount:   res.AnalyzedCount,
		ServedFromCache: fromCache,
		GeneratedAt:     res.CreatedAt,
	}
}
