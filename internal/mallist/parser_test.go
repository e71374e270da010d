// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package mallist

import (
	"strings"
	"testing"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<myanimelist>
	<myinfo>
		<user_name>takumi</user_name>
	</myinfo>
	<anime>
		<series_animedb_id>5114</series_animedb_id>
		<series_title>Fullmetal Alchemist: Brotherhood</series_title>
		<my_score>10</my_score>
		<my_status>Completed</my_status>
	</anime>
	<anime>
		<series_animedb_id>30276</series_animedb_id>
		<series_title>One Punch Man</series_title>
		<my_score>0</my_score>
		<my_status>Plan to Watch</my_status>
	</anime>
	<anime>
		<series_animedb_id>1535</series_animedb_id>
		<series_title>Death Note</series_title>
		<my_score>8</my_score>
		<my_status>Completed</my_status>
	</anime>
	<anime>
		<series_animedb_id>9253</series_animedb_id>
		<series_title>Steins;Gate</series_title>
		<my_score>9</my_score>
		<my_status>Completed</my_status>
	</anime>
	<anime>
		<series_animedb_id>5114</series_animedb_id>
		<series_title>Fullmetal Alchemist: Brotherhood</series_title>
		<my_score>0</my_score>
		<my_status>Completed</my_status>
	</anime>
</myanimelist>`

func TestParse(t *testing.T) {
	parsed, err := Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Duplicate id 5114 must be collapsed.
	wantIDs := []string{"5114", "30276", "1535", "9253"}
	if len(parsed.AllIDs) != len(wantIDs) {
		t.Fatalf("Expected %d ids, got %d: %v", len(wantIDs), len(parsed.AllIDs), parsed.AllIDs)
	}
	for i, id := range wantIDs {
		if parsed.AllIDs[i] != id {
			t.Errorf("AllIDs[%d]: expected %s, got %s", i, id, parsed.AllIDs[i])
		}
	}

	// Rated entries sorted by score descending, unrated excluded.
	if len(parsed.Rated) != 3 {
		t.Fatalf("Expected 3 rated entries, got %d", len(parsed.Rated))
	}
	wantOrder := []string{"5114", "9253", "1535"}
	for i, id := range wantOrder {
		if parsed.Rated[i].ID != id {
			t.Errorf("Rated[%d]: expected id %s, got %s", i, id, parsed.Rated[i].ID)
		}
	}

	if parsed.Stats.TotalAnime != 4 {
		t.Errorf("Expected TotalAnime=4, got %d", parsed.Stats.TotalAnime)
	}
	if parsed.Stats.RatedAnime != 3 {
		t.Errorf("Expected RatedAnime=3, got %d", parsed.Stats.RatedAnime)
	}
	wantMean := float64(10+8+9) / 3
	if parsed.Stats.MeanScore != wantMean {
		t.Errorf("Expected MeanScore=%f, got %f", wantMean, parsed.Stats.MeanScore)
	}
}

func TestParseTieStability(t *testing.T) {
	export := `<myanimelist>
		<anime><series_animedb_id>1</series_animedb_id><series_title>A</series_title><my_score>8</my_score></anime>
		<anime><series_animedb_id>2</series_animedb_id><series_title>B</series_title><my_score>8</my_score></anime>
		<anime><series_animedb_id>3</series_animedb_id><series_title>C</series_title><my_score>9</my_score></anime>
	</myanimelist>`

	parsed, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantOrder := []string{"3", "1", "2"}
	for i, id := range wantOrder {
		if parsed.Rated[i].ID != id {
			t.Errorf("Rated[%d]: expected id %s, got %s", i, id, parsed.Rated[i].ID)
		}
	}
}

func TestParseSkipsEntriesWithoutID(t *testing.T) {
	export := `<myanimelist>
		<anime><series_title>No ID</series_title><my_score>9</my_score></anime>
		<anime><series_animedb_id>7</series_animedb_id><series_title>Kept</series_title><my_score>7</my_score></anime>
	</myanimelist>`

	parsed, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.AllIDs) != 1 || parsed.AllIDs[0] != "7" {
		t.Errorf("Expected only id 7, got %v", parsed.AllIDs)
	}
}

func TestParseMalformedXML(t *testing.T) {
	if _, err := Parse(strings.NewReader("not xml at all")); err == nil {
		t.Error("Expected error for malformed input, got nil")
	}
}

func TestParseUnparseableScoreCountsAsUnrated(t *testing.T) {
	export := `<myanimelist>
		<anime><series_animedb_id>1</series_animedb_id><series_title>A</series_title><my_score>abc</my_score></anime>
	</myanimelist>`

	parsed, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Rated) != 0 {
		t.Errorf("Expected no rated entries, got %d", len(parsed.Rated))
	}
	if len(parsed.AllIDs) != 1 {
		t.Errorf("Expected id retained in exclusion ids, got %v", parsed.AllIDs)
	}
}
