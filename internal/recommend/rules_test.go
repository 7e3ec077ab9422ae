// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import "testing"

func rulesTestConfig(t *testing.T) *Config {
	cfg := testConfig(t)
	cfg.Rules.PracticeType.EquineMixedExcludedStreams = []string{"exotics", "feline"}
	cfg.Rules.PracticeType.SmallAnimalExcludedStreams = []string{"equine", "farm"}
	cfg.Rules.JobRoles.VetRoles = []string{"Veterinary Surgeon", "Vet"}
	cfg.Rules.JobRoles.VetExcludedStreams = []string{"nursing"}
	cfg.Rules.JobRoles.NurseRoles = []string{"Veterinary Nurse"}
	cfg.Rules.JobRoles.NurseAllowedStreams = []string{"nursing", "wellbeing"}
	return cfg
}

func streamRecs(streams ...string) []Recommendation {
	recs := make([]Recommendation, len(streams))
	for i, stream := range streams {
		recs[i] = Recommendation{
			Session:    Session{ID: streams[i], Title: "T " + stream, Stream: stream},
			Similarity: 1 - float64(i)*0.1,
		}
	}
	return recs
}

func TestPracticeTypeRules(t *testing.T) {
	tests := []struct {
		name     string
		practice string
		streams  []string
		wantLeft []string
	}{
		{
			name:     "equine practice drops excluded streams",
			practice: "Equine Practice",
			streams:  []string{"surgery", "exotics", "medicine"},
			wantLeft: []string{"surgery", "medicine"},
		},
		{
			name:     "mixed practice uses the equine branch",
			practice: "Mixed",
			streams:  []string{"feline", "farm"},
			wantLeft: []string{"farm"},
		},
		{
			name:     "small animal practice uses its own exclusions",
			practice: "Small Animal",
			streams:  []string{"equine", "surgery", "farm"},
			wantLeft: []string{"surgery"},
		},
		{
			name:     "equine branch wins over small animal when both match",
			practice: "Mixed small animal and equine",
			streams:  []string{"exotics", "equine"},
			wantLeft: []string{"equine"},
		},
		{
			name:     "unknown practice leaves the list alone",
			practice: "Aquatics",
			streams:  []string{"exotics", "equine"},
			wantLeft: []string{"exotics", "equine"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
			visitor := &Visitor{BadgeID: "B1", PracticeType: tt.practice}

			got, _ := e.applyPracticeTypeRules(visitor, streamRecs(tt.streams...), nil)
			if len(got) != len(tt.wantLeft) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.wantLeft))
			}
			for i, want := range tt.wantLeft {
				if got[i].Session.Stream != want {
					t.Errorf("candidate %d stream = %s, want %s", i, got[i].Session.Stream, want)
				}
			}
		})
	}

	t.Run("never empties a non-empty list", func(t *testing.T) {
		e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
		visitor := &Visitor{BadgeID: "B2", PracticeType: "Equine"}

		got, notes := e.applyPracticeTypeRules(visitor, streamRecs("exotics", "feline"), nil)
		if len(got) != 2 {
			t.Fatalf("got %d candidates, want original 2 kept", len(got))
		}
		if len(notes) == 0 {
			t.Error("no note recorded for the never-empty fallback")
		}
	})

	t.Run("generic profile skips the family", func(t *testing.T) {
		cfg := rulesTestConfig(t)
		cfg.Profile = ProfileGeneric
		e := newTestEngine(t, cfg, newFakeStore())
		visitor := &Visitor{BadgeID: "B3", PracticeType: "Equine"}

		got, _ := e.applyPracticeTypeRules(visitor, streamRecs("exotics"), nil)
		if len(got) != 1 {
			t.Errorf("got %d candidates, want untouched 1", len(got))
		}
	})
}

func TestJobRoleRules(t *testing.T) {
	t.Run("vet role excludes streams", func(t *testing.T) {
		e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
		visitor := &Visitor{BadgeID: "B1", JobRole: "Veterinary Surgeon"}

		got, _ := e.applyJobRoleRules(visitor, streamRecs("surgery", "nursing"), nil)
		if len(got) != 1 || got[0].Session.Stream != "surgery" {
			t.Errorf("got %v, want only surgery", got)
		}
	})

	t.Run("nurse role restricted to allow-list", func(t *testing.T) {
		e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
		visitor := &Visitor{BadgeID: "B2", JobRole: "Veterinary Nurse"}

		got, _ := e.applyJobRoleRules(visitor, streamRecs("surgery", "nursing", "wellbeing"), nil)
		if len(got) != 2 {
			t.Fatalf("got %d candidates, want 2", len(got))
		}
		for _, r := range got {
			if r.Session.Stream != "nursing" && r.Session.Stream != "wellbeing" {
				t.Errorf("stream %s survived outside the allow-list", r.Session.Stream)
			}
		}
	})

	t.Run("role matching is case-insensitive exact", func(t *testing.T) {
		e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
		visitor := &Visitor{BadgeID: "B3", JobRole: "vet"}

		got, _ := e.applyJobRoleRules(visitor, streamRecs("nursing", "surgery"), nil)
		if len(got) != 1 {
			t.Errorf("got %d candidates, want 1 after vet exclusion", len(got))
		}
	})

	t.Run("unlisted role passes through", func(t *testing.T) {
		e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
		visitor := &Visitor{BadgeID: "B4", JobRole: "Practice Manager"}

		got, _ := e.applyJobRoleRules(visitor, streamRecs("nursing", "surgery"), nil)
		if len(got) != 2 {
			t.Errorf("got %d candidates, want untouched 2", len(got))
		}
	})

	t.Run("nurse allow-list never empties the list", func(t *testing.T) {
		e := newTestEngine(t, rulesTestConfig(t), newFakeStore())
		visitor := &Visitor{BadgeID: "B5", JobRole: "Veterinary Nurse"}

		got, notes := e.applyJobRoleRules(visitor, streamRecs("surgery", "exotics"), nil)
		if len(got) != 2 {
			t.Fatalf("got %d candidates, want original 2 kept", len(got))
		}
		if len(notes) == 0 {
			t.Error("no note recorded for the never-empty fallback")
		}
	})
}

func TestApplyRules_PriorityOrder(t *testing.T) {
	cfg := rulesTestConfig(t)
	cfg.Rules.Priority = []string{"job_roles", "practice_type"}
	e := newTestEngine(t, cfg, newFakeStore())

	// A nurse in equine practice: the allow-list runs first, then the
	// equine exclusions apply to what is left.
	visitor := &Visitor{BadgeID: "B1", JobRole: "Veterinary Nurse", PracticeType: "Equine"}
	recs := streamRecs("nursing", "wellbeing", "surgery", "feline")

	got, _ := e.applyRules(visitor, recs)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	for _, r := range got {
		if r.Session.Stream == "surgery" || r.Session.Stream == "feline" {
			t.Errorf("stream %s should have been filtered", r.Session.Stream)
		}
	}
}

func TestApplyRules_FilteringDisabled(t *testing.T) {
	cfg := rulesTestConfig(t)
	cfg.EnableFiltering = false
	e := newTestEngine(t, cfg, newFakeStore())
	visitor := &Visitor{BadgeID: "B1", JobRole: "Vet", PracticeType: "Equine"}

	recs := streamRecs("nursing", "exotics")
	got, notes := e.applyRules(visitor, recs)
	if len(got) != 2 || len(notes) != 0 {
		t.Errorf("filtering ran despite enable_filtering=false: %d left, %d notes", len(got), len(notes))
	}
}
