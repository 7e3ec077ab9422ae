// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"strings"
	"testing"
)

func customRulesConfig(t *testing.T) *Config {
	cfg := testConfig(t)
	cfg.Rules.Custom = CustomRulesConfig{
		Enabled: true,
		Rules: []CustomRuleConfig{
			{Name: "exclude_equine_streams", Enabled: true},
			{Name: "exclude_small_animal_titles_for_equine", Enabled: true},
		},
	}
	return cfg
}

func TestRuleExcludeEquineStreams(t *testing.T) {
	recs := []Recommendation{
		{Session: Session{ID: "s1", Title: "Lameness workup", Stream: "equine"}, Similarity: 0.9},
		{Session: Session{ID: "s2", Title: "Anaesthesia update", Stream: "surgery"}, Similarity: 0.8},
	}

	t.Run("removed without equine affinity", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B1", Company: "City Small Animal Clinic"}
		kept, removed, rationale := ruleExcludeEquineStreams(visitor, recs, nil)
		if len(kept) != 1 || kept[0].Session.ID != "s2" {
			t.Errorf("kept = %v, want only s2", kept)
		}
		if len(removed) != 1 || rationale == "" {
			t.Errorf("removed = %v rationale = %q, want one removal with rationale", removed, rationale)
		}
	})

	t.Run("kept when company signals horses", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B2", Company: "Dales Equine Hospital"}
		kept, removed, _ := ruleExcludeEquineStreams(visitor, recs, nil)
		if len(kept) != 2 || removed != nil {
			t.Errorf("kept = %d removed = %d, want all kept", len(kept), len(removed))
		}
	})

	t.Run("kept when job title signals horses", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B3", JobTitle: "Horse physiotherapist"}
		kept, _, _ := ruleExcludeEquineStreams(visitor, recs, nil)
		if len(kept) != 2 {
			t.Errorf("kept = %d, want all kept", len(kept))
		}
	})

	t.Run("stream keyword overridable via params", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B4"}
		kept, _, _ := ruleExcludeEquineStreams(visitor, recs, map[string]string{"stream_keyword": "surgery"})
		if len(kept) != 1 || kept[0].Session.ID != "s1" {
			t.Errorf("kept = %v, want only s1", kept)
		}
	})
}

func TestRuleExcludeSmallAnimalTitlesForEquine(t *testing.T) {
	recs := []Recommendation{
		{Session: Session{ID: "s1", Title: "Feline medicine masterclass"}, Similarity: 0.9},
		{Session: Session{ID: "s2", Title: "Dog behaviour clinics"}, Similarity: 0.8},
		{Session: Session{ID: "s3", Title: "Colic surgery"}, Similarity: 0.7},
	}

	t.Run("equine-focused visitor loses small animal titles", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B1", Company: "Equine Referrals Ltd"}
		kept, removed, _ := ruleExcludeSmallAnimalTitlesForEquine(visitor, recs, nil)
		if len(kept) != 1 || kept[0].Session.ID != "s3" {
			t.Errorf("kept = %v, want only s3", kept)
		}
		if len(removed) != 2 {
			t.Errorf("removed = %d, want 2", len(removed))
		}
	})

	t.Run("no equine signal leaves the list alone", func(t *testing.T) {
		visitor := &Visitor{BadgeID: "B2", Company: "General Practice"}
		kept, removed, _ := ruleExcludeSmallAnimalTitlesForEquine(visitor, recs, nil)
		if len(kept) != 3 || removed != nil {
			t.Errorf("kept = %d removed = %d, want untouched", len(kept), len(removed))
		}
	})
}

func TestApplyCustomRules_Gating(t *testing.T) {
	recs := []Recommendation{
		{Session: Session{ID: "s1", Title: "Lameness", Stream: "equine"}, Similarity: 0.9},
		{Session: Session{ID: "s2", Title: "Imaging", Stream: "surgery"}, Similarity: 0.8},
	}
	visitor := &Visitor{BadgeID: "B1", Company: "Town Clinic"}

	t.Run("runs when applicable events include the show", func(t *testing.T) {
		cfg := customRulesConfig(t)
		cfg.Rules.Custom.ApplicableEvents = []string{"vetshow_2026"}
		e := newTestEngine(t, cfg, newFakeStore())

		got, notes := e.applyCustomRules(visitor, recs, nil)
		if len(got) != 1 {
			t.Errorf("got %d candidates, want 1", len(got))
		}
		if len(notes) != 1 {
			t.Errorf("got %d notes, want 1", len(notes))
		}
	})

	t.Run("skipped for other shows", func(t *testing.T) {
		cfg := customRulesConfig(t)
		cfg.Rules.Custom.ApplicableEvents = []string{"other_show"}
		e := newTestEngine(t, cfg, newFakeStore())

		got, _ := e.applyCustomRules(visitor, recs, nil)
		if len(got) != 2 {
			t.Errorf("got %d candidates, want untouched 2", len(got))
		}
	})

	t.Run("empty allow-list means all shows", func(t *testing.T) {
		cfg := customRulesConfig(t)
		e := newTestEngine(t, cfg, newFakeStore())

		got, _ := e.applyCustomRules(visitor, recs, nil)
		if len(got) != 1 {
			t.Errorf("got %d candidates, want 1", len(got))
		}
	})

	t.Run("disabled rule does not run", func(t *testing.T) {
		cfg := customRulesConfig(t)
		cfg.Rules.Custom.Rules[0].Enabled = false
		e := newTestEngine(t, cfg, newFakeStore())

		got, _ := e.applyCustomRules(visitor, recs, nil)
		if len(got) != 2 {
			t.Errorf("got %d candidates, want untouched 2", len(got))
		}
	})

	t.Run("unknown rule name is skipped", func(t *testing.T) {
		cfg := customRulesConfig(t)
		cfg.Rules.Custom.Rules = []CustomRuleConfig{{Name: "does_not_exist", Enabled: true}}
		e := newTestEngine(t, cfg, newFakeStore())

		got, _ := e.applyCustomRules(visitor, recs, nil)
		if len(got) != 2 {
			t.Errorf("got %d candidates, want untouched 2", len(got))
		}
	})

	t.Run("skipped under generic profile", func(t *testing.T) {
		cfg := customRulesConfig(t)
		cfg.Profile = ProfileGeneric
		e := newTestEngine(t, cfg, newFakeStore())

		got, notes := e.applyCustomRules(visitor, recs, nil)
		if len(got) != 2 {
			t.Errorf("got %d candidates, want untouched 2", len(got))
		}
		if len(notes) != 0 {
			t.Errorf("got notes %v, want none", notes)
		}
	})
}

func TestApplyCustomRules_NeverEmptyGuard(t *testing.T) {
	recs := []Recommendation{
		{Session: Session{ID: "s1", Title: "Lameness workup", Stream: "equine"}, Similarity: 0.9},
		{Session: Session{ID: "s2", Title: "Colic referrals", Stream: "equine"}, Similarity: 0.8},
	}
	visitor := &Visitor{BadgeID: "B1", Company: "City Small Animal Clinic"}

	cfg := customRulesConfig(t)
	e := newTestEngine(t, cfg, newFakeStore())

	got, notes := e.applyCustomRules(visitor, recs, nil)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want original 2 restored", len(got))
	}
	if got[0].Session.ID != "s1" || got[1].Session.ID != "s2" {
		t.Errorf("restored list = %v, want original order", got)
	}
	if len(notes) != 1 || !strings.Contains(notes[0], "kept all 2") {
		t.Errorf("notes = %v, want single guard note", notes)
	}
}
