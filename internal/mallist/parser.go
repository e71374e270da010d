// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

// Package mallist parses MyAnimeList XML exports.
//
// The export is the file MyAnimeList produces under "Export My List": a
// <myanimelist> root with one <anime> element per list entry. Parsing keeps
// two views of the list: the rated entries (score > 0), used to seed the
// recommendation walk, and the full id set, used to suppress recommending
// anything the user already has a record of.
package mallist

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/takumi809/anirec/internal/models"
)

// ParsedList is the result of parsing one export.
type ParsedList struct {
	// Rated holds entries with a non-zero score, sorted by score
	// descending (ties keep export order).
	Rated []models.RatedAnime

	// AllIDs holds every anime id in the export in first-seen order,
	// rated or not.
	AllIDs []string

	Stats models.ListStats
}

type exportAnime struct {
	SeriesID string `xml:"series_animedb_id"`
	Title    string `xml:"series_title"`
	MyScore  string `xml:"my_score"`
	MyStatus string `xml:"my_status"`
}

type exportDoc struct {
	XMLName xml.Name      `xml:"myanimelist"`
	Anime   []exportAnime `xml:"anime"`
}

// Parse reads a MyAnimeList XML export. Entries without a series id are
// skipped; a score that does not parse as an integer counts as unrated.
func Parse(r io.Reader) (*ParsedList, error) {
	var doc exportDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse list export: %w", err)
	}

	parsed := &ParsedList{
		Rated:  make([]models.RatedAnime, 0, len(doc.Anime)),
		AllIDs: make([]string, 0, len(doc.Anime)),
	}

	seen := make(map[string]struct{}, len(doc.Anime))
	scoreSum := 0

	for _, a := range doc.Anime {
		id := strings.TrimSpace(a.SeriesID)
		if id == "" {
			continue
		}

		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			parsed.AllIDs = append(parsed.AllIDs, id)
		}

		score, err := strconv.Atoi(strings.TrimSpace(a.MyScore))
		if err != nil || score <= 0 {
			continue
		}

		scoreSum += score
		parsed.Rated = append(parsed.Rated, models.RatedAnime{
			ID:     id,
			Title:  strings.TrimSpace(a.Title),
			Score:  score,
			Status: strings.TrimSpace(a.MyStatus),
		})
	}

	// Score-descending order is the canonical stored order; ties keep the
	// export's relative order.
	sort.SliceStable(parsed.Rated, func(i, j int) bool {
		return parsed.Rated[i].Score > parsed.Rated[j].Score
	})

	parsed.Stats = models.ListStats{
		TotalAnime: len(parsed.AllIDs),
		RatedAnime: len(parsed.Rated),
	}
	if len(parsed.Rated) > 0 {
		parsed.Stats.MeanScore = float64(scoreSum) / float64(len(parsed.Rated))
	}

	return parsed, nil
}
