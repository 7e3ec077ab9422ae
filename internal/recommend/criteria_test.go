// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import "testing"

func TestBuildCriteria(t *testing.T) {
	attrs := map[string]SimilarityAttribute{
		"practice": {Weight: 3, Field: "practice_type", Properties: []string{"practice_type", "specialization"}},
		"role":     {Weight: 2, Field: "job_role", Properties: []string{"job_role"}},
		"country":  {Weight: 1, Field: "country", Properties: []string{"country"}},
	}

	t.Run("all attributes active, sorted by name", func(t *testing.T) {
		visitor := &Visitor{
			BadgeID: "B1", JobRole: "Vet", PracticeType: "Small Animal", Country: "UK",
		}
		criteria := BuildCriteria(visitor, attrs)
		if len(criteria) != 3 {
			t.Fatalf("got %d criteria, want 3", len(criteria))
		}
		wantOrder := []string{"country", "practice", "role"}
		for i, c := range criteria {
			if c.Name != wantOrder[i] {
				t.Errorf("criteria[%d].Name = %s, want %s", i, c.Name, wantOrder[i])
			}
		}
		if criteria[1].Weight != 3 || criteria[1].Value != "Small Animal" {
			t.Errorf("practice criterion = %+v, want weight 3 value Small Animal", criteria[1])
		}
		if len(criteria[1].Properties) != 2 {
			t.Errorf("practice backing properties = %d, want 2", len(criteria[1].Properties))
		}
	})

	t.Run("blank and NA values skipped", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B2", JobRole: "NA", PracticeType: "  ", Country: "DE"}
		criteria := BuildCriteria(visitor, attrs)
		if len(criteria) != 1 {
			t.Fatalf("got %d criteria, want 1", len(criteria))
		}
		if criteria[0].Name != "country" {
			t.Errorf("surviving criterion = %s, want country", criteria[0].Name)
		}
	})

	t.Run("na is case-insensitive", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B3", Country: "na"}
		if got := BuildCriteria(visitor, attrs); len(got) != 0 {
			t.Errorf("got %d criteria, want 0", len(got))
		}
	})

	t.Run("props fallback for unknown fields", func(t *testing.T) {
		extra := map[string]SimilarityAttribute{
			"interest": {Weight: 1, Field: "interest_area", Properties: []string{"interest_area"}},
		}
		visitor := &Visitor{BadgeID: "B4", Props: map[string]string{"interest_area": "surgery"}}
		criteria := BuildCriteria(visitor, extra)
		if len(criteria) != 1 || criteria[0].Value != "surgery" {
			t.Errorf("criteria = %+v, want one surgery criterion", criteria)
		}
	})

	t.Run("no attributes yields nil", func(t *testing.T) {
		if got := BuildCriteria(&Visitor{BadgeID: "B5"}, nil); got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}
