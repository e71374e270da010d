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
	"github.com/google/uuid"

	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/mallist"
	"github.com/takumi809/anirec/internal/metrics"
	"github.com/takumi809/anirec/internal/models"
	"github.com/takumi809/anirec/internal/recommend"
)

// listResponse is the payload returned for an uploaded or fetched list.
type listResponse struct {
	ID        string            `json:"id"`
	Stats     models.ListStats  `json:"stats"`
	TopRated  []topRatedPreview `json:"top_rated,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// topRatedPreview is a short glimpse of the entries that will seed the
// walk, shown on upload so the user can sanity-check the parse.
type topRatedPreview struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}

const topRatedPreviewSize = 5

// handleUploadList ingests a MyAnimeList XML export, persists it under a
// fresh share identifier, and returns the identifier with list stats.
func (s *Server) handleUploadList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.API.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.API.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "Upload exceeds the size limit")
			return
		}
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Expected a multipart upload with a 'file' field")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Missing 'file' field in upload")
		return
	}
	defer file.Close()

	parsed, err := mallist.Parse(file)
	if err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "Could not parse the anime list export: "+err.Error())
		return
	}
	if parsed.Stats.TotalAnime == 0 {
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "The export contains no anime entries")
		return
	}

	sub := &models.Submission{
		ID:        uuid.NewString(),
		Rated:     parsed.Rated,
		AllIDs:    parsed.AllIDs,
		Stats:     parsed.Stats,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.SaveSubmission(r.Context(), sub); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save submission")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to store the uploaded list")
		return
	}

	metrics.SubmissionsTotal.Inc()
	s.logger.Info().
		Str("submission_id", sub.ID).
		Int("total", sub.Stats.TotalAnime).
		Int("rated", sub.Stats.RatedAnime).
		Msg("Stored list submission")

	rw.Created(buildListResponse(sub))
}

// handleGetList returns the stats for a stored submission.
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	sub, err := s.db.GetSubmission(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Unknown list identifier")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("submission_id", id).Msg("Failed to load submission")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to load the list")
		return
	}

	rw.Success(buildListResponse(sub))
}

func buildListResponse(sub *models.Submission) listResponse {
	resp := listResponse{
		ID:        sub.ID,
		Stats:     sub.Stats,
		CreatedAt: sub.CreatedAt,
	}
	top := recommend.TopRated(sub.Rated)
	if len(top) > topRatedPreviewSize {
		top = top[:topRatedPreviewSize]
	}
	for _, a := range top {
		resp.TopRated = append(resp.TopRated, topRatedPreview{Title: a.Title, Score: a.Score})
	}
	return resp
}
