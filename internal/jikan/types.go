// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package jikan

import "strconv"

// SimilarEntry is one normalized recommendation from a similarity lookup.
type SimilarEntry struct {
	// AnimeID is the recommended entry's MyAnimeList id.
	AnimeID string `json:"anime_id"`

	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// AnimeDetails is a normalized detail record for a single anime.
type AnimeDetails struct {
	AnimeID   string   `json:"anime_id"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

// Wire types for the Jikan v4 API.

type jikanImages struct {
	JPG struct {
		ImageURL string `json:"image_url"`
	} `json:"jpg"`
}

type recommendationsResponse struct {
	Data []struct {
		Entry struct {
			MALID  int64       `json:"mal_id"`
			URL    string      `json:"url"`
			Title  string      `json:"title"`
			Images jikanImages `json:"images"`
		} `json:"entry"`
		Votes int `json:"votes"`
	} `json:"data"`
}

func (r *recommendationsResponse) normalize() []SimilarEntry {
	entries := make([]SimilarEntry, 0, len(r.Data))
	for _, rec := range r.Data {
		entries = append(entries, SimilarEntry{
			AnimeID: strconv.FormatInt(rec.Entry.MALID, 10),
			Title:   rec.Entry.Title,
			URL:     rec.Entry.URL,
		})
	}
	return entries
}

type animeResponse struct {
	Data struct {
		MALID  int64       `json:"mal_id"`
		URL    string      `json:"url"`
		Title  string      `json:"title"`
		Type   string      `json:"type"`
		Score  *float64    `json:"score"`
		Images jikanImages `json:"images"`
	} `json:"data"`
}

func (r *animeResponse) normalize() *AnimeDetails {
	return &AnimeDetails{
		AnimeID:   strconv.FormatInt(r.Data.MALID, 10),
		Title:     r.Data.Title,
		URL:       r.Data.URL,
		ImageURL:  r.Data.Images.JPG.ImageURL,
		MediaType: r.Data.Type,
		Score:     r.Data.Score,
	}
}
