// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package graph

import (
	"strings"
	"testing"

	"github.com/eventgraph/recommender/internal/recommend"
)

func TestParseEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		wantLen int
	}{
		{"json string", "[0.1, 0.2, 0.3]", 3},
		{"json string with whitespace", "  [1.5, -0.25]  ", 2},
		{"native float list", []any{0.1, 0.2}, 2},
		{"native int list", []any{int64(1), int64(2)}, 2},
		{"empty string", "", 0},
		{"empty json array", "[]", 0},
		{"malformed json", "[0.1, oops]", 0},
		{"mixed list with non-number", []any{0.1, "x"}, 0},
		{"nil", nil, 0},
		{"wrong type", 42, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEmbedding(tt.raw)
			if len(got) != tt.wantLen {
				t.Errorf("parseEmbedding() len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen == 0 && got != nil {
				t.Errorf("parseEmbedding() = %v, want nil for unusable input", got)
			}
		})
	}
}

func TestVisitorFromProps(t *testing.T) {
	props := map[string]any{
		"badge_id":           "B1",
		"job_role":           "Vet",
		"practice_type":      "Small Animal",
		"company":            "Clinic Ltd",
		"country":            "UK",
		"assist_year_before": "1",
		"has_recommendation": "0",
		"interest_area":      "surgery",
	}

	v := visitorFromProps(props)
	if v.BadgeID != "B1" || v.JobRole != "Vet" || v.AssistYearBefore != "1" {
		t.Errorf("typed fields not mapped: %+v", v)
	}
	if v.Props["interest_area"] != "surgery" {
		t.Errorf("extra property not kept in Props: %v", v.Props)
	}
	if _, dup := v.Props["badge_id"]; dup {
		t.Error("typed field duplicated into Props")
	}

	t.Run("config-driven field lookup reaches Props", func(t *testing.T) {
		if got := v.Field("interest_area"); got != "surgery" {
			t.Errorf("Field(interest_area) = %q, want surgery", got)
		}
	})
}

func TestSessionFromProps(t *testing.T) {
	props := map[string]any{
		"id":         "S1",
		"title":      "Lameness workup",
		"stream":     "equine; orthopaedics",
		"theatre":    "Main Hall",
		"date":       "2026-11-19",
		"start_time": "09:30",
		"end_time":   "10:30",
		"show":       "vetshow_2026",
		"embedding":  "[0.1, 0.2]",
	}

	s := sessionFromProps(props)
	if s.ID != "S1" || s.Title != "Lameness workup" || s.Theatre != "Main Hall" {
		t.Errorf("fields not mapped: %+v", s)
	}
	if len(s.Embedding) != 2 {
		t.Errorf("embedding len = %d, want 2", len(s.Embedding))
	}

	t.Run("missing embedding leaves nil", func(t *testing.T) {
		delete(props, "embedding")
		if got := sessionFromProps(props); got.Embedding != nil {
			t.Errorf("embedding = %v, want nil", got.Embedding)
		}
	})
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"london", "london"},
		{"London_2025", "London_2025"},
		{"bad-segment!", "badsegment"},
		{"drop`) MATCH (n", "dropMATCHn"},
	}
	for _, tt := range tests {
		if got := sanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("sanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildScoreClause(t *testing.T) {
	criteria := []recommend.Criterion{
		{Name: "practice", Weight: 3, Value: "Small Animal", Properties: []string{"practice_type", "specialization"}},
		{Name: "role", Weight: 2, Value: "Vet", Properties: []string{"job_role"}},
	}

	clause, params := buildScoreClause(criteria)

	if params["crit_0"] != "Small Animal" || params["crit_1"] != "Vet" {
		t.Errorf("params = %v, want crit_0/crit_1 values", params)
	}
	if !strings.Contains(clause, "p.practice_type = $crit_0 OR p.specialization = $crit_0") {
		t.Errorf("clause missing multi-property OR: %s", clause)
	}
	if !strings.Contains(clause, "THEN 3") || !strings.Contains(clause, "THEN 2") {
		t.Errorf("clause missing weights: %s", clause)
	}
	if !strings.Contains(clause, " + ") {
		t.Errorf("clause terms not summed: %s", clause)
	}

	t.Run("values never interpolated", func(t *testing.T) {
		if strings.Contains(clause, "Small Animal") {
			t.Error("criterion value interpolated into the query text")
		}
	})
}
