// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"fmt"
	"strings"
)

// applyRules runs the configured rule families against the candidate list in
// priority order. Each family receives the previous family's output. Every
// family carries a never-empty guard: it keeps the incoming list whenever its
// filter would empty it. Only overlap resolution, capacity enforcement and the
// similarity threshold itself may reduce a visitor to zero.
func (e *Engine) applyRules(visitor *Visitor, recs []Recommendation) ([]Recommendation, []string) {
	if !e.cfg.EnableFiltering || len(recs) == 0 {
		return recs, nil
	}

	var notes []string
	for _, family := range e.cfg.Rules.Priority {
		switch family {
		case "practice_type":
			recs, notes = e.applyPracticeTypeRules(visitor, recs, notes)
		case "job_roles":
			recs, notes = e.applyJobRoleRules(visitor, recs, notes)
		case "custom":
			recs, notes = e.applyCustomRules(visitor, recs, notes)
		}
	}
	return recs, notes
}

// applyPracticeTypeRules removes candidates whose stream matches the exclusion
// set configured for the visitor's practice type. At most one branch fires,
// first match wins in the checked order: equine/mixed before small animal.
func (e *Engine) applyPracticeTypeRules(visitor *Visitor, recs []Recommendation, notes []string) ([]Recommendation, []string) {
	if e.cfg.Profile != ProfileVeterinary {
		return recs, notes
	}

	practice := strings.ToLower(visitor.PracticeType)
	if practice == "" || strings.EqualFold(practice, NA) {
		return recs, notes
	}

	var excluded []string
	var branch string
	switch {
	case strings.Contains(practice, "equine") || strings.Contains(practice, "mixed"):
		excluded = e.cfg.Rules.PracticeType.EquineMixedExcludedStreams
		branch = "equine/mixed"
	case strings.Contains(practice, "small animal"):
		excluded = e.cfg.Rules.PracticeType.SmallAnimalExcludedStreams
		branch = "small animal"
	default:
		return recs, notes
	}
	if len(excluded) == 0 {
		return recs, notes
	}

	kept, removed := excludeByStream(recs, excluded)
	return e.guardNonEmpty(visitor, "practice_type", branch, recs, kept, removed, notes)
}

// applyJobRoleRules excludes streams for vet roles and restricts nurse roles
// to an allow-list. Role membership is an exact case-insensitive match.
func (e *Engine) applyJobRoleRules(visitor *Visitor, recs []Recommendation, notes []string) ([]Recommendation, []string) {
	if e.cfg.Profile != ProfileVeterinary {
		return recs, notes
	}

	role := strings.TrimSpace(visitor.JobRole)
	if role == "" || strings.EqualFold(role, NA) {
		return recs, notes
	}

	if containsFold(e.cfg.Rules.JobRoles.VetRoles, role) && len(e.cfg.Rules.JobRoles.VetExcludedStreams) > 0 {
		kept, removed := excludeByStream(recs, e.cfg.Rules.JobRoles.VetExcludedStreams)
		return e.guardNonEmpty(visitor, "job_roles", "vet exclusion", recs, kept, removed, notes)
	}

	if containsFold(e.cfg.Rules.JobRoles.NurseRoles, role) && len(e.cfg.Rules.JobRoles.NurseAllowedStreams) > 0 {
		kept, removed := restrictByStream(recs, e.cfg.Rules.JobRoles.NurseAllowedStreams)
		return e.guardNonEmpty(visitor, "job_roles", "nurse allow-list", recs, kept, removed, notes)
	}

	return recs, notes
}

// guardNonEmpty applies the never-empty invariant for a rule family: when the
// filter would wipe out a non-empty list, the original list is restored and a
// warning is logged.
func (e *Engine) guardNonEmpty(visitor *Visitor, family, branch string, original, kept, removed []Recommendation, notes []string) ([]Recommendation, []string) {
	if len(removed) == 0 {
		return original, notes
	}
	if len(kept) == 0 {
		e.logger.Warn().
			Str("badge_id", visitor.BadgeID).
			Str("family", family).
			Str("branch", branch).
			Int("candidates", len(original)).
			Msg("rule family would remove all candidates, keeping original list")
		notes = append(notes, fmt.Sprintf("%s (%s): would empty the list, kept all %d candidates",
			family, branch, len(original)))
		return original, notes
	}

	notes = append(notes, fmt.Sprintf("%s (%s): removed %d of %d candidates: %s",
		family, branch, len(removed), len(original), sessionTitles(removed)))
	return kept, notes
}

// excludeByStream splits recs into entries whose stream does not match any
// keyword (kept) and those that do (removed).
func excludeByStream(recs []Recommendation, keywords []string) (kept, removed []Recommendation) {
	for _, r := range recs {
		if streamMatches(r.Session.Stream, keywords) {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	return kept, removed
}

// restrictByStream keeps only entries whose stream matches at least one
// keyword of the allow-list.
func restrictByStream(recs []Recommendation, allowed []string) (kept, removed []Recommendation) {
	for _, r := range recs {
		if streamMatches(r.Session.Stream, allowed) {
			kept = append(kept, r)
		} else {
			removed = append(removed, r)
		}
	}
	return kept, removed
}

// streamMatches reports whether the semicolon-delimited stream text contains
// any of the keywords, case-insensitively.
func streamMatches(stream string, keywords []string) bool {
	if stream == "" {
		return false
	}
	lower := strings.ToLower(stream)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// containsFold reports whether list contains value, case-insensitively.
func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

// sessionTitles renders a compact title list for rule notes.
func sessionTitles(recs []Recommendation) string {
	titles := make([]string, len(recs))
	for i, r := range recs {
		titles[i] = r.Session.Title
	}
	return strings.Join(titles, "; ")
}
