// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"fmt"
	"strings"
)

// CustomRuleFunc is a pluggable domain rule. It receives the visitor, the
// current candidate list and rule-specific parameters, and returns the kept
// list, the removed entries and a human-readable rationale. Rules compose
// sequentially, each operating on the previous rule's output, and must never
// mutate their input slice.
type CustomRuleFunc func(visitor *Visitor, recs []Recommendation, params map[string]string) (kept, removed []Recommendation, rationale string)

// customRuleRegistry maps rule names from the configuration to their
// implementations. Rules are registered statically; an unknown name in the
// configuration is logged and skipped rather than failing the visitor.
var customRuleRegistry = map[string]CustomRuleFunc{
	"exclude_equine_streams":                 ruleExcludeEquineStreams,
	"exclude_small_animal_titles_for_equine": ruleExcludeSmallAnimalTitlesForEquine,
}

// applyCustomRules runs the enabled custom rules in configured order. Like the
// other families it only runs under the veterinary profile, and is further
// gated by its own enabled flag and the applicable-events allow-list; an empty
// allow-list means all shows. The family carries the same never-empty guard as
// the others: when the chain would wipe out the list, the pre-family list is
// restored.
func (e *Engine) applyCustomRules(visitor *Visitor, recs []Recommendation, notes []string) ([]Recommendation, []string) {
	custom := e.cfg.Rules.Custom
	if e.cfg.Profile != ProfileVeterinary {
		return recs, notes
	}
	if !custom.Enabled || len(recs) == 0 {
		return recs, notes
	}
	if len(custom.ApplicableEvents) > 0 && !containsFold(custom.ApplicableEvents, e.cfg.ShowID) {
		return recs, notes
	}

	original := recs
	var familyNotes []string
	for _, rc := range custom.Rules {
		if !rc.Enabled {
			continue
		}
		fn, ok := customRuleRegistry[rc.Name]
		if !ok {
			e.logger.Warn().Str("rule", rc.Name).Msg("unknown custom rule, skipping")
			continue
		}

		kept, removed, rationale := fn(visitor, recs, rc.Params)
		if len(removed) > 0 {
			familyNotes = append(familyNotes, fmt.Sprintf("custom rule %s: removed %d of %d candidates (%s): %s",
				rc.Name, len(removed), len(recs), rationale, sessionTitles(removed)))
			recs = kept
		}
	}

	if len(recs) == 0 {
		e.logger.Warn().
			Str("badge_id", visitor.BadgeID).
			Str("family", "custom").
			Int("candidates", len(original)).
			Msg("rule family would remove all candidates, keeping original list")
		notes = append(notes, fmt.Sprintf("custom: would empty the list, kept all %d candidates", len(original)))
		return original, notes
	}
	return recs, append(notes, familyNotes...)
}

// equineAffinityKeywords signal an equine focus in free-text company or
// job-title fields.
var equineAffinityKeywords = []string{"equine", "horse", "mixed"}

// smallCompanionKeywords mark small-companion-animal session titles.
var smallCompanionKeywords = []string{"cat", "dog", "feline", "canine"}

// ruleExcludeEquineStreams removes sessions on an equine stream unless the
// visitor's company or job title itself signals equine or mixed practice.
// Params: "stream_keyword" overrides the matched stream keyword (default
// "equine").
func ruleExcludeEquineStreams(visitor *Visitor, recs []Recommendation, params map[string]string) (kept, removed []Recommendation, rationale string) {
	if visitorTextMatches(visitor, equineAffinityKeywords) {
		return recs, nil, ""
	}

	keyword := params["stream_keyword"]
	if keyword == "" {
		keyword = "equine"
	}

	for _, r := range recs {
		if streamMatches(r.Session.Stream, []string{keyword}) {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(removed) == 0 {
		return recs, nil, ""
	}
	return kept, removed, fmt.Sprintf("no equine affinity in company/job title, %s streams excluded", keyword)
}

// ruleExcludeSmallAnimalTitlesForEquine removes sessions whose title matches
// small-companion-animal keywords for visitors whose company or job title
// clearly signals an equine focus.
func ruleExcludeSmallAnimalTitlesForEquine(visitor *Visitor, recs []Recommendation, _ map[string]string) (kept, removed []Recommendation, rationale string) {
	if !visitorTextMatches(visitor, []string{"equine", "horse"}) {
		return recs, nil, ""
	}

	for _, r := range recs {
		if textMatches(r.Session.Title, smallCompanionKeywords) {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(removed) == 0 {
		return recs, nil, ""
	}
	return kept, removed, "equine-focused visitor, small-companion-animal titles excluded"
}

// visitorTextMatches checks the visitor's company and job-title free text for
// any of the keywords.
func visitorTextMatches(visitor *Visitor, keywords []string) bool {
	return textMatches(visitor.Company, keywords) || textMatches(visitor.JobTitle, keywords)
}

// textMatches reports whether text contains any keyword, case-insensitively.
func textMatches(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
