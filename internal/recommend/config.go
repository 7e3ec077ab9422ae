// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"fmt"
)

// Operating modes. Only primary runs are eligible for the control-group
// split.
const (
	ModePrimary      = "primary"
	ModePostAnalysis = "post_analysis"
)

// Config contains all engine tunables. A snapshot of this struct is embedded
// in every JSON export so a deliverable records the settings that produced it.
type Config struct {
	// ShowID is the show identifier scoping every graph read and write.
	ShowID string `json:"show_id"`

	// Mode is "primary" or "post_analysis". Only primary runs are eligible
	// for the control-group split.
	Mode string `json:"mode"`

	// Profile selects the rule-set implementation.
	Profile EventProfile `json:"-"`

	// MinSimilarityScore is the cosine similarity threshold.
	MinSimilarityScore float64 `json:"min_similarity_score"`

	// MaxRecommendations caps the per-visitor list.
	MaxRecommendations int `json:"max_recommendations"`

	// SimilarVisitorsCount is the proxy cohort size.
	SimilarVisitorsCount int `json:"similar_visitors_count"`

	// IncrementalOnly restricts the run to unprocessed visitors.
	IncrementalOnly bool `json:"incremental_only"`

	// SimilarityAttributes maps attribute name to weight, visitor field and
	// backing candidate properties.
	SimilarityAttributes map[string]SimilarityAttribute `json:"similarity_attributes"`

	// EnableFiltering gates the whole rule filter chain.
	EnableFiltering bool `json:"enable_filtering"`

	// Rules configures the rule families and their priority order.
	Rules RulesConfig `json:"rules_config"`

	// ResolveOverlaps drops the lower-scoring of two overlapping entries.
	ResolveOverlaps bool `json:"resolve_overlapping_sessions_by_similarity"`

	// ReturningWithoutHistory dampens proxy-population scores for
	// returning visitors whose own history was not found.
	ReturningWithoutHistory ReturningWithoutHistoryConfig `json:"returning_without_history"`

	// Capacity enforces per-venue/per-slot attendance limits globally.
	Capacity CapacityConfig `json:"theatre_capacity_limits"`

	// ControlGroup withholds a random cohort for A/B measurement.
	ControlGroup ControlGroupConfig `json:"control_group"`

	// SaveCSV additionally flattens the export to CSV.
	SaveCSV bool `json:"save_csv"`

	// ExportAdditionalVisitorFields lists extra visitor properties carried
	// into the flat CSV export.
	ExportAdditionalVisitorFields []string `json:"export_additional_visitor_fields,omitempty"`

	// OutputDirectory receives the export files.
	OutputDirectory string `json:"output_directory"`
}

// SimilarityAttribute backs one weighted matching criterion.
type SimilarityAttribute struct {
	// Weight added to a candidate's match score on a property match.
	Weight float64 `json:"weight"`

	// Field is the visitor-side attribute name (see Visitor.Field).
	Field string `json:"field"`

	// Properties are the candidate-side graph property names.
	Properties []string `json:"properties"`
}

// ReturningWithoutHistoryConfig controls the proxy-score adjustment.
type ReturningWithoutHistoryConfig struct {
	Enabled bool `json:"enabled"`

	// SimilarityExponent is applied to each [0,1]-clamped score.
	// Default: 1.5.
	SimilarityExponent float64 `json:"similarity_exponent"`
}

// CapacityConfig controls the global slot capacity stage.
type CapacityConfig struct {
	Enabled bool `json:"enabled"`

	// CapacityMultiplier scales venue capacity before flooring.
	// Default: 1.0.
	CapacityMultiplier float64 `json:"capacity_multiplier"`

	// CapacityFile is a CSV of theatre name to seat capacity.
	CapacityFile string `json:"capacity_file,omitempty"`

	// SessionFile optionally joins session ids to theatre names.
	SessionFile string `json:"session_file,omitempty"`
}

// ControlGroupConfig controls the held-out cohort.
type ControlGroupConfig struct {
	Enabled bool `json:"enabled"`

	// Percentage of eligible visitors to withhold, in [0,1].
	Percentage float64 `json:"percentage"`

	// RandomSeed fixes the draw for reproducibility. Zero seeds from
	// entropy.
	RandomSeed int64 `json:"random_seed,omitempty"`

	// FileSuffix distinguishes control export files. Default: "_control_group".
	FileSuffix string `json:"file_suffix"`

	// OutputDirectory overrides the main export directory when set.
	OutputDirectory string `json:"output_directory,omitempty"`

	// GraphProperty is the visitor property holding the 0/1 flag.
	// Default: "control_group".
	GraphProperty string `json:"neo4j_property"`
}

// RulesConfig configures the rule filter chain.
type RulesConfig struct {
	// Priority is the family execution order. Recognized: "practice_type",
	// "job_roles", "custom". Unlisted families do not run.
	Priority []string `json:"priority"`

	PracticeType PracticeTypeRules `json:"practice_type"`
	JobRoles     JobRoleRules      `json:"job_roles"`
	Custom       CustomRulesConfig `json:"custom_rules"`
}

// PracticeTypeRules holds stream exclusions keyed off the practice type.
type PracticeTypeRules struct {
	// EquineMixedExcludedStreams are removed for equine/mixed practices.
	EquineMixedExcludedStreams []string `json:"equine_mixed_excluded_streams,omitempty"`

	// SmallAnimalExcludedStreams are removed for small-animal practices.
	SmallAnimalExcludedStreams []string `json:"small_animal_excluded_streams,omitempty"`
}

// JobRoleRules holds stream rules keyed off the job role.
type JobRoleRules struct {
	VetRoles           []string `json:"vet_roles,omitempty"`
	VetExcludedStreams []string `json:"vet_excluded_streams,omitempty"`

	NurseRoles          []string `json:"nurse_roles,omitempty"`
	NurseAllowedStreams []string `json:"nurse_allowed_streams,omitempty"`
}

// CustomRulesConfig configures the pluggable domain rules.
type CustomRulesConfig struct {
	Enabled bool `json:"enabled"`

	// ApplicableEvents gates custom rules to specific show identifiers.
	// Empty means all shows.
	ApplicableEvents []string `json:"applicable_events,omitempty"`

	// Rules run in order; each names a handler in the static registry.
	Rules []CustomRuleConfig `json:"rules,omitempty"`
}

// CustomRuleConfig enables one named rule with parameters.
type CustomRuleConfig struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Params  map[string]string `json:"params,omitempty"`
}

// DefaultConfig returns a Config with production defaults. ShowID has no
// default and must be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		Mode:                 ModePrimary,
		Profile:              ProfileVeterinary,
		MinSimilarityScore:   0.3,
		MaxRecommendations:   10,
		SimilarVisitorsCount: 3,
		EnableFiltering:      true,
		ResolveOverlaps:      true,
		ReturningWithoutHistory: ReturningWithoutHistoryConfig{
			Enabled:            true,
			SimilarityExponent: 1.5,
		},
		Capacity: CapacityConfig{
			CapacityMultiplier: 1.0,
		},
		ControlGroup: ControlGroupConfig{
			FileSuffix:    "_control_group",
			GraphProperty: "control_group",
		},
		Rules: RulesConfig{
			Priority: []string{"practice_type", "job_roles", "custom"},
		},
		OutputDirectory: "output",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ShowID == "" {
		return fmt.Errorf("show_id is required")
	}
	if c.Mode != ModePrimary && c.Mode != ModePostAnalysis {
		return fmt.Errorf("mode must be primary or post_analysis, got %q", c.Mode)
	}
	if c.MinSimilarityScore < 0 || c.MinSimilarityScore > 1 {
		return fmt.Errorf("min_similarity_score must be in [0, 1], got %f", c.MinSimilarityScore)
	}
	if c.MaxRecommendations < 1 {
		return fmt.Errorf("max_recommendations must be positive, got %d", c.MaxRecommendations)
	}
	if c.SimilarVisitorsCount < 1 {
		return fmt.Errorf("similar_visitors_count must be positive, got %d", c.SimilarVisitorsCount)
	}
	if c.ReturningWithoutHistory.Enabled && c.ReturningWithoutHistory.SimilarityExponent < 1 {
		return fmt.Errorf("returning_without_history.similarity_exponent must be >= 1, got %f",
			c.ReturningWithoutHistory.SimilarityExponent)
	}
	if c.Capacity.Enabled {
		if c.Capacity.CapacityMultiplier <= 0 {
			return fmt.Errorf("theatre_capacity_limits.capacity_multiplier must be positive, got %f",
				c.Capacity.CapacityMultiplier)
		}
		if c.Capacity.CapacityFile == "" {
			return fmt.Errorf("theatre_capacity_limits.capacity_file is required when enabled")
		}
	}
	if c.ControlGroup.Enabled {
		if c.ControlGroup.Percentage < 0 || c.ControlGroup.Percentage > 1 {
			return fmt.Errorf("control_group.percentage must be in [0, 1], got %f", c.ControlGroup.Percentage)
		}
		if c.ControlGroup.GraphProperty == "" {
			return fmt.Errorf("control_group.neo4j_property is required when enabled")
		}
	}
	for _, family := range c.Rules.Priority {
		switch family {
		case "practice_type", "job_roles", "custom":
		default:
			return fmt.Errorf("rules_config.priority: unknown rule family %q", family)
		}
	}
	for name, attr := range c.SimilarityAttributes {
		if attr.Weight <= 0 {
			return fmt.Errorf("similarity_attributes.%s.weight must be positive, got %f", name, attr.Weight)
		}
		if attr.Field == "" {
			return fmt.Errorf("similarity_attributes.%s.field is required", name)
		}
		if len(attr.Properties) == 0 {
			return fmt.Errorf("similarity_attributes.%s.properties must not be empty", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	if c.SimilarityAttributes != nil {
		clone.SimilarityAttributes = make(map[string]SimilarityAttribute, len(c.SimilarityAttributes))
		for k, v := range c.SimilarityAttributes {
			v.Properties = append([]string(nil), v.Properties...)
			clone.SimilarityAttributes[k] = v
		}
	}

	clone.Rules.Priority = append([]string(nil), c.Rules.Priority...)
	clone.Rules.PracticeType.EquineMixedExcludedStreams = append([]string(nil), c.Rules.PracticeType.EquineMixedExcludedStreams...)
	clone.Rules.PracticeType.SmallAnimalExcludedStreams = append([]string(nil), c.Rules.PracticeType.SmallAnimalExcludedStreams...)
	clone.Rules.JobRoles.VetRoles = append([]string(nil), c.Rules.JobRoles.VetRoles...)
	clone.Rules.JobRoles.VetExcludedStreams = append([]string(nil), c.Rules.JobRoles.VetExcludedStreams...)
	clone.Rules.JobRoles.NurseRoles = append([]string(nil), c.Rules.JobRoles.NurseRoles...)
	clone.Rules.JobRoles.NurseAllowedStreams = append([]string(nil), c.Rules.JobRoles.NurseAllowedStreams...)
	clone.Rules.Custom.ApplicableEvents = append([]string(nil), c.Rules.Custom.ApplicableEvents...)

	if c.Rules.Custom.Rules != nil {
		clone.Rules.Custom.Rules = make([]CustomRuleConfig, len(c.Rules.Custom.Rules))
		for i, r := range c.Rules.Custom.Rules {
			if r.Params != nil {
				params := make(map[string]string, len(r.Params))
				for k, v := range r.Params {
					params[k] = v
				}
				r.Params = params
			}
			clone.Rules.Custom.Rules[i] = r
		}
	}

	clone.ExportAdditionalVisitorFields = append([]string(nil), c.ExportAdditionalVisitorFields...)

	return &clone
}
