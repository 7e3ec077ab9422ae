// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

// Package config loads and validates recommender configuration.
//
// Configuration is layered with koanf v2: built-in defaults, then an optional
// YAML file, then environment variables. Struct-level constraints are enforced
// with go-playground/validator tags plus targeted manual checks for rules that
// tags cannot express.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Mode selects the run mode for the engine.
const (
	// ModePrimary generates personal agendas and is eligible for the
	// control-group split.
	ModePrimary = "primary"

	// ModePostAnalysis generates recommendations for retrospective scoring
	// and never withholds a control group.
	ModePostAnalysis = "post_analysis"
)

// Config is the root configuration for the recommender.
type Config struct {
	Neo4j          Neo4jConfig          `koanf:"neo4j"`
	Show           ShowConfig           `koanf:"show"`
	Mode           string               `koanf:"mode" validate:"oneof=primary post_analysis"`
	Recommendation RecommendationConfig `koanf:"recommendation"`
	Logging        LoggingConfig        `koanf:"logging"`
	Metrics        MetricsConfig        `koanf:"metrics"`
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	// URI is the bolt/neo4j connection URI, e.g. "neo4j://localhost:7687".
	URI string `koanf:"uri" validate:"required"`

	// Username for basic auth.
	Username string `koanf:"username" validate:"required"`

	// Password for basic auth.
	Password string `koanf:"password" validate:"required"`

	// Database is the target database name. Empty uses the server default.
	Database string `koanf:"database"`
}

// ShowConfig identifies the event being processed.
type ShowConfig struct {
	// ID is the current show identifier stored on graph nodes.
	ID string `koanf:"id" validate:"required"`

	// PastSegments lists the past-year visitor label segments, e.g. two
	// parallel events run under the same umbrella show.
	PastSegments []string `koanf:"past_segments" validate:"min=1"`

	// Profile selects the rule set: "generic" or "veterinary".
	Profile string `koanf:"profile" validate:"oneof=generic veterinary"`
}

// SimilarityAttribute backs one weighted criterion for similar-visitor matching.
type SimilarityAttribute struct {
	// Weight added to a candidate's match score when any backing property
	// equals the visitor's value.
	Weight float64 `koanf:"weight" validate:"gt=0"`

	// Field is the visitor-side property holding the value to match.
	Field string `koanf:"field" validate:"required"`

	// Properties are the candidate-side graph properties compared against
	// the visitor value. At least one is required.
	Properties []string `koanf:"properties" validate:"min=1"`
}

// RecommendationConfig holds the engine's tunables.
type RecommendationConfig struct {
	// MinSimilarityScore is the cosine similarity threshold below which a
	// candidate session is discarded.
	MinSimilarityScore float64 `koanf:"min_similarity_score" validate:"gte=0,lte=1"`

	// MaxRecommendations caps the per-visitor recommendation list.
	MaxRecommendations int `koanf:"max_recommendations" validate:"gte=1"`

	// SimilarVisitorsCount is how many proxy visitors feed the population
	// when a visitor has no own history.
	SimilarVisitorsCount int `koanf:"similar_visitors_count" validate:"gte=1"`

	// IncrementalOnly restricts the run to visitors not yet processed
	// (has_recommendation unset or "0").
	IncrementalOnly bool `koanf:"incremental_only"`

	// SimilarityAttributes maps attribute name to its weight and backing
	// graph properties.
	SimilarityAttributes map[string]SimilarityAttribute `koanf:"similarity_attributes"`

	// EnableFiltering gates the whole rule filter chain.
	EnableFiltering bool `koanf:"enable_filtering"`

	// RulesConfig configures the practice-type, job-role and custom rules.
	RulesConfig RulesConfig `koanf:"rules_config"`

	// ResolveOverlappingSessionsBySimilarity drops the lower-scoring of two
	// temporally overlapping recommendations.
	ResolveOverlappingSessionsBySimilarity bool `koanf:"resolve_overlapping_sessions_by_similarity"`

	// ReturningWithoutHistory dampens scores for returning visitors whose
	// own history could not be found.
	ReturningWithoutHistory ReturningWithoutHistoryConfig `koanf:"returning_without_history"`

	// TheatreCapacityLimits enforces per-venue/per-slot capacity globally.
	TheatreCapacityLimits TheatreCapacityConfig `koanf:"theatre_capacity_limits"`

	// ControlGroup withholds a random cohort for A/B measurement.
	ControlGroup ControlGroupConfig `koanf:"control_group"`

	// SaveCSV additionally flattens the JSON export to CSV.
	SaveCSV bool `koanf:"save_csv"`

	// ExportAdditionalVisitorFields lists extra visitor properties carried
	// into the flat CSV export.
	ExportAdditionalVisitorFields []string `koanf:"export_additional_visitor_fields"`

	// OutputDirectory receives the JSON/CSV export files.
	OutputDirectory string `koanf:"output_directory" validate:"required"`
}

// ReturningWithoutHistoryConfig controls the proxy-population score adjustment.
type ReturningWithoutHistoryConfig struct {
	Enabled bool `koanf:"enabled"`

	// SimilarityExponent is applied to each [0,1]-clamped score when a
	// returning visitor is scored against a proxy population.
	SimilarityExponent float64 `koanf:"similarity_exponent" validate:"gte=1"`
}

// TheatreCapacityConfig controls global slot capacity enforcement.
type TheatreCapacityConfig struct {
	Enabled bool `koanf:"enabled"`

	// CapacityMultiplier scales the venue capacity before flooring.
	CapacityMultiplier float64 `koanf:"capacity_multiplier" validate:"gt=0"`

	// CapacityFile is a CSV of theatre name to seat capacity.
	CapacityFile string `koanf:"capacity_file"`

	// SessionFile is an optional CSV joining session ids to theatre names,
	// used when the graph's venue field is unreliable.
	SessionFile string `koanf:"session_file"`
}

// ControlGroupConfig controls the randomized held-out cohort.
type ControlGroupConfig struct {
	Enabled bool `koanf:"enabled"`

	// Percentage of eligible visitors to withhold, in [0,1].
	Percentage float64 `koanf:"percentage" validate:"gte=0,lte=1"`

	// RandomSeed fixes the sampling for reproducible draws. Zero means
	// seed from entropy.
	RandomSeed int64 `koanf:"random_seed"`

	// FileSuffix distinguishes the control export files.
	FileSuffix string `koanf:"file_suffix"`

	// OutputDirectory overrides the main output directory for control
	// exports. Empty uses the main directory.
	OutputDirectory string `koanf:"output_directory"`

	// Neo4jProperty is the visitor property holding the 0/1 control flag.
	Neo4jProperty string `koanf:"neo4j_property" validate:"required"`
}

// RulesConfig configures the rule filter chain.
type RulesConfig struct {
	// Priority is the execution order of rule families. Recognized names:
	// "practice_type", "job_roles", "custom".
	Priority []string `koanf:"priority"`

	PracticeType PracticeTypeRules `koanf:"practice_type"`
	JobRoles     JobRoleRules      `koanf:"job_roles"`
	CustomRules  CustomRulesConfig `koanf:"custom_rules"`
}

// PracticeTypeRules holds stream exclusions keyed off the visitor's practice type.
type PracticeTypeRules struct {
	// EquineMixedExcludedStreams are removed for equine/mixed practices.
	EquineMixedExcludedStreams []string `koanf:"equine_mixed_excluded_streams"`

	// SmallAnimalExcludedStreams are removed for small-animal practices.
	SmallAnimalExcludedStreams []string `koanf:"small_animal_excluded_streams"`
}

// JobRoleRules holds stream rules keyed off the visitor's job role.
type JobRoleRules struct {
	// VetRoles are roles subject to VetExcludedStreams.
	VetRoles []string `koanf:"vet_roles"`

	// VetExcludedStreams are removed for vet roles.
	VetExcludedStreams []string `koanf:"vet_excluded_streams"`

	// NurseRoles are roles restricted to NurseAllowedStreams.
	NurseRoles []string `koanf:"nurse_roles"`

	// NurseAllowedStreams is the allow-list for nurse roles.
	NurseAllowedStreams []string `koanf:"nurse_allowed_streams"`
}

// CustomRulesConfig configures the pluggable domain rules.
type CustomRulesConfig struct {
	Enabled bool `koanf:"enabled"`

	// ApplicableEvents gates custom rules to specific show identifiers.
	ApplicableEvents []string `koanf:"applicable_events"`

	// Rules run in order; each names a registered handler.
	Rules []CustomRuleConfig `koanf:"rules"`
}

// CustomRuleConfig enables one named custom rule with parameters.
type CustomRuleConfig struct {
	Name    string            `koanf:"name" validate:"required"`
	Enabled bool              `koanf:"enabled"`
	Params  map[string]string `koanf:"params"`
}

// LoggingConfig mirrors logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`

	// ListenAddr is the host:port for the /metrics listener.
	ListenAddr string `koanf:"listen_addr"`
}

// Default returns a Config with sensible defaults. Connection settings and the
// show identifier have no defaults and must come from file or environment.
func Default() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
		},
		Show: ShowConfig{
			Profile: "veterinary",
		},
		Mode: ModePrimary,
		Recommendation: RecommendationConfig{
			MinSimilarityScore:                     0.3,
			MaxRecommendations:                     10,
			SimilarVisitorsCount:                   3,
			EnableFiltering:                        true,
			ResolveOverlappingSessionsBySimilarity: true,
			ReturningWithoutHistory: ReturningWithoutHistoryConfig{
				Enabled:            true,
				SimilarityExponent: 1.5,
			},
			TheatreCapacityLimits: TheatreCapacityConfig{
				Enabled:            false,
				CapacityMultiplier: 1.0,
			},
			ControlGroup: ControlGroupConfig{
				Enabled:       false,
				Percentage:    0,
				FileSuffix:    "_control_group",
				Neo4jProperty: "control_group",
			},
			RulesConfig: RulesConfig{
				Priority: []string{"practice_type", "job_roles", "custom"},
			},
			OutputDirectory: "output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9464",
		},
	}
}

// Validate checks the configuration, combining validator tags with rules that
// tags cannot express.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	for name, attr := range c.Recommendation.SimilarityAttributes {
		if attr.Weight <= 0 {
			return fmt.Errorf("similarity_attributes.%s.weight must be positive, got %f", name, attr.Weight)
		}
		if len(attr.Properties) == 0 {
			return fmt.Errorf("similarity_attributes.%s.properties must not be empty", name)
		}
	}

	for _, family := range c.Recommendation.RulesConfig.Priority {
		switch family {
		case "practice_type", "job_roles", "custom":
		default:
			return fmt.Errorf("rules_config.priority: unknown rule family %q", family)
		}
	}

	if c.Recommendation.TheatreCapacityLimits.Enabled && c.Recommendation.TheatreCapacityLimits.CapacityFile == "" {
		return fmt.Errorf("theatre_capacity_limits.capacity_file is required when capacity limits are enabled")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}

	return nil
}
