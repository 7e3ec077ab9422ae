// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"context"
	"fmt"
	"time"
)

// NA is the sentinel used by upstream ETL for absent visitor attributes.
const NA = "NA"

// EventProfile selects the rule-set implementation at construction time.
type EventProfile int

const (
	// ProfileGeneric runs similarity scoring plus overlap/capacity stages
	// with no domain rule families.
	ProfileGeneric EventProfile = iota
	// ProfileVeterinary additionally enables the practice-type, job-role
	// and custom rule families.
	ProfileVeterinary
)

// String returns a human-readable profile name.
func (p EventProfile) String() string {
	switch p {
	case ProfileGeneric:
		return "generic"
	case ProfileVeterinary:
		return "veterinary"
	default:
		return "unknown"
	}
}

// ParseEventProfile converts a config string to an EventProfile.
// Unrecognized values fall back to ProfileGeneric.
func ParseEventProfile(s string) EventProfile {
	if s == "veterinary" {
		return ProfileVeterinary
	}
	return ProfileGeneric
}

// Visitor is a current-year attendee as read from the graph.
type Visitor struct {
	// BadgeID is the unique per-visitor-per-year identifier.
	BadgeID string `json:"badge_id"`

	// JobRole is the visitor's declared job role.
	JobRole string `json:"job_role,omitempty"`

	// PracticeType is the practice/specialization field.
	PracticeType string `json:"practice_type,omitempty"`

	// Company is the visitor's organization.
	Company string `json:"company,omitempty"`

	// JobTitle is the free-text job title.
	JobTitle string `json:"job_title,omitempty"`

	// Country is the visitor's country.
	Country string `json:"country,omitempty"`

	// AssistYearBefore is "1" when the visitor attended the previous year.
	AssistYearBefore string `json:"assist_year_before,omitempty"`

	// HasRecommendation is "1" once the visitor has been processed.
	HasRecommendation string `json:"has_recommendation,omitempty"`

	// Props carries any additional graph properties, keyed by property
	// name. Config-driven field lookups fall through to this map.
	Props map[string]string `json:"props,omitempty"`
}

// Field returns the named visitor attribute, checking the typed fields first
// and falling back to Props. Unknown names return "".
func (v *Visitor) Field(name string) string {
	switch name {
	case "badge_id":
		return v.BadgeID
	case "job_role":
		return v.JobRole
	case "practice_type":
		return v.PracticeType
	case "company":
		return v.Company
	case "job_title":
		return v.JobTitle
	case "country":
		return v.Country
	case "assist_year_before":
		return v.AssistYearBefore
	}
	return v.Props[name]
}

// Session is a conference session. Past-year and current-year sessions share
// this shape; the embedding is parsed from the node's serialized vector by the
// graph layer and is nil when absent or malformed.
type Session struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// Title is the session title.
	Title string `json:"title"`

	// Stream is the semicolon-delimited topical category text.
	Stream string `json:"stream,omitempty"`

	// Theatre is the venue name.
	Theatre string `json:"theatre,omitempty"`

	// Date is the session date as stored upstream (e.g. "2026-11-19").
	Date string `json:"date,omitempty"`

	// StartTime and EndTime are clock times as stored upstream (e.g. "09:30").
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	// Sponsor is the sponsoring organization, if any.
	Sponsor string `json:"sponsor,omitempty"`

	// Show is the show identifier the session belongs to.
	Show string `json:"show,omitempty"`

	// Embedding is the parsed semantic vector. Nil means the session is
	// excluded from similarity scoring.
	Embedding []float64 `json:"-"`
}

// PopularSession is a past-year session ranked by total attendance.
type PopularSession struct {
	Session

	// Attendance is the attended_session edge count across all past-year
	// visitor segments.
	Attendance int `json:"attendance"`
}

// SimilarVisitorCandidate is a weighted-match candidate for the proxy
// population, as returned by the graph layer.
type SimilarVisitorCandidate struct {
	// BadgeID identifies the past-year visitor.
	BadgeID string `json:"badge_id"`

	// Segment is the past-year visitor label segment the candidate lives in.
	Segment string `json:"segment"`

	// Score is the summed weight of matched criteria.
	Score float64 `json:"score"`

	// Attendance is the candidate's attended-session count, used as the
	// secondary ranking key.
	Attendance int `json:"attendance"`
}

// Criterion is one active similarity criterion produced by BuildCriteria.
type Criterion struct {
	// Name is the configured attribute name.
	Name string `json:"name"`

	// Weight added to a candidate's score when any backing property matches.
	Weight float64 `json:"weight"`

	// Value is the visitor-side value to match exactly.
	Value string `json:"value"`

	// Properties are the candidate-side graph property names.
	Properties []string `json:"properties"`
}

// PopulationSource records which strategy produced the comparison population.
type PopulationSource int

const (
	// SourceNone means no population could be resolved.
	SourceNone PopulationSource = iota
	// SourceOwnHistory is the visitor's own past-year attendance.
	SourceOwnHistory
	// SourceSimilarVisitors is the combined attendance of a similar cohort.
	SourceSimilarVisitors
	// SourcePopularity is the global popularity fallback.
	SourcePopularity
)

// String returns a human-readable source name.
func (s PopulationSource) String() string {
	switch s {
	case SourceOwnHistory:
		return "own_history"
	case SourceSimilarVisitors:
		return "similar_visitors"
	case SourcePopularity:
		return "popularity"
	default:
		return "none"
	}
}

// Population is the historical session set a visitor is scored against.
type Population struct {
	// Source records the resolution strategy that succeeded.
	Source PopulationSource

	// Sessions is the historical attendance set. For SourcePopularity this
	// is already the sampled, popularity-ordered recommendation set.
	Sessions []Session

	// SimilarBadges lists the cohort badge ids when Source is
	// SourceSimilarVisitors.
	SimilarBadges []string

	// AdjustScores is set when a returning visitor had no discoverable own
	// history, triggering the similarity-exponent adjustment downstream.
	AdjustScores bool

	// Notes accumulates human-readable provenance for the export payload.
	Notes []string
}

// Recommendation is one scored session for a visitor.
type Recommendation struct {
	// Session is the recommended current-year session.
	Session Session `json:"session"`

	// Similarity is the final similarity score in [0,1].
	Similarity float64 `json:"similarity"`

	// RawSimilarity is the pre-adjustment cosine score; equals Similarity
	// unless the returning-without-history exponent was applied. The
	// configured threshold is guaranteed on this value.
	RawSimilarity float64 `json:"raw_similarity,omitempty"`

	// OverlapsWith lists session ids this entry conflicts with in time.
	// Populated for export annotation even when overlap resolution is off.
	OverlapsWith []string `json:"overlapping_sessions,omitempty"`
}

// Payload is the per-visitor pipeline result.
type Payload struct {
	// Visitor is the processed visitor.
	Visitor Visitor `json:"visitor"`

	// Source records the population strategy used.
	Source string `json:"population_source"`

	// Raw is the threshold-filtered candidate list before business rules.
	Raw []Recommendation `json:"raw_recommendations,omitempty"`

	// Filtered is the final recommendation list after all stages.
	Filtered []Recommendation `json:"filtered_recommendations"`

	// ControlGroup is 1 when the visitor was withheld into the control
	// cohort, else 0.
	ControlGroup int `json:"control_group"`

	// Notes accumulates provenance and rule rationale.
	Notes []string `json:"notes,omitempty"`

	// GeneratedAt is the payload generation timestamp.
	GeneratedAt time.Time `json:"generated_at"`
}

// ProcessingError is a recoverable per-visitor failure. It is recorded in the
// run statistics and never aborts the run.
type ProcessingError struct {
	// BadgeID identifies the failing visitor.
	BadgeID string `json:"badge_id"`

	// Stage names the pipeline stage that failed.
	Stage string `json:"stage"`

	// Message is the underlying error text.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	return fmt.Sprintf("visitor %s: %s: %s", e.BadgeID, e.Stage, e.Message)
}

// CapacityStats summarizes the global capacity-enforcement pass.
type CapacityStats struct {
	// SlotsConstrained is the number of slots with a known capacity.
	SlotsConstrained int `json:"slots_constrained"`

	// SlotsUnconstrained counts coverage gaps: slots whose theatre has no
	// capacity row, plus sessions whose venue or time metadata cannot
	// resolve a slot at all. Each slot or session is counted once.
	SlotsUnconstrained int `json:"slots_unconstrained"`

	// RecommendationsRemoved is the total trimmed across all visitors.
	RecommendationsRemoved int `json:"recommendations_removed"`

	// VisitorsAffected is how many visitors lost at least one entry.
	VisitorsAffected int `json:"visitors_affected"`
}

// RunStats aggregates a full engine run.
type RunStats struct {
	// VisitorsProcessed is the number of visitors the loop attempted.
	VisitorsProcessed int `json:"visitors_processed"`

	// WithRecommendations counts delivered visitors with >= 1 surviving
	// entry. Control-group visitors are not delivered and appear only in
	// ControlGroupSize, so for a run without persist failures
	// VisitorsProcessed = WithRecommendations + WithoutRecommendations +
	// ControlGroupSize + Errors.
	WithRecommendations int `json:"visitors_with_recommendations"`

	// WithoutRecommendations counts delivered visitors processed to zero
	// entries.
	WithoutRecommendations int `json:"visitors_without_recommendations"`

	// TotalRecommendations is the sum of surviving entries.
	TotalRecommendations int `json:"total_recommendations"`

	// UniqueSessions counts distinct recommended session ids.
	UniqueSessions int `json:"unique_sessions"`

	// ControlGroupSize is the withheld cohort size.
	ControlGroupSize int `json:"control_group_size"`

	// Errors counts per-visitor failures at any stage. A visitor whose
	// processing succeeded but whose graph write failed is counted here and
	// in one of the delivery buckets above.
	Errors int `json:"errors"`

	// ErrorDetails carries one entry per failed visitor.
	ErrorDetails []ProcessingError `json:"error_details,omitempty"`

	// DurationMS is the wall-clock run duration.
	DurationMS int64 `json:"duration_ms"`
}

// RunResult is the complete output of Engine.Process.
type RunResult struct {
	// Payloads maps badge id to the primary deliverable payloads.
	Payloads map[string]*Payload `json:"payloads"`

	// ControlPayloads maps badge id to withheld control-group payloads.
	ControlPayloads map[string]*Payload `json:"control_payloads,omitempty"`

	// Capacity summarizes the capacity-enforcement pass, when enabled.
	Capacity *CapacityStats `json:"capacity,omitempty"`

	// Stats is the aggregated run statistics.
	Stats RunStats `json:"stats"`

	// RunID is a unique identifier for this run.
	RunID string `json:"run_id"`

	// GeneratedAt is when the run completed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GraphStore is the engine's view of the knowledge graph. It is implemented by
// the Neo4j layer; tests substitute a fake. All reads are scoped to the show
// identifier the store was constructed with.
type GraphStore interface {
	// SelectVisitors returns the current-year visitors to process. When
	// incrementalOnly is set, visitors whose has_recommendation property is
	// "1" are excluded by the selection query itself.
	SelectVisitors(ctx context.Context, incrementalOnly bool) ([]Visitor, error)

	// ThisYearSessions returns the current-year catalog. Sessions without a
	// parseable embedding have a nil Embedding.
	ThisYearSessions(ctx context.Context) ([]Session, error)

	// OwnHistory follows Same_Visitor edges into the given past-year
	// segments and returns the visitor's attended sessions.
	OwnHistory(ctx context.Context, badgeID string) ([]Session, error)

	// SimilarVisitors returns up to limit past-year candidates matching the
	// weighted criteria, restricted to candidates with at least one
	// attended session, ranked by score desc then attendance desc.
	SimilarVisitors(ctx context.Context, criteria []Criterion, limit int) ([]SimilarVisitorCandidate, error)

	// AttendanceOf returns the combined attended sessions of the given
	// past-year visitors.
	AttendanceOf(ctx context.Context, badgeIDs []string) ([]Session, error)

	// PopularSessions returns up to limit past-year sessions for the
	// current show ranked by total attendance descending.
	PopularSessions(ctx context.Context, limit int) ([]PopularSession, error)

	// PersistVisitor marks a visitor processed: has_recommendation,
	// generation timestamp, and the control-group flag property.
	PersistVisitor(ctx context.Context, badgeID string, hasRecommendation bool, controlFlag int, generatedAt time.Time) error

	// PersistRecommendations upserts one IS_RECOMMENDED edge per entry.
	// Writes are MERGE-idempotent and guarded against placeholder session
	// nodes with empty titles.
	PersistRecommendations(ctx context.Context, badgeID string, recs []Recommendation, generatedAt time.Time) error
}
