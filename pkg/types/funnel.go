// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QueryComplexity classifies a search query; the funnel derives its
// per-stage thresholds from this classification.
type QueryComplexity string

const (
	// ComplexityBroad marks short, few-term exploratory queries.
	ComplexityBroad QueryComplexity = "broad"

	// ComplexitySpecific marks ordinary focused queries.
	ComplexitySpecific QueryComplexity = "specific"

	// ComplexityComprehensive marks long or review-style queries where
	// recall matters more than precision.
	ComplexityComprehensive QueryComplexity = "comprehensive"
)

// QueryProfile is derived once per search and is immutable for its
// duration. It carries the query text, its classification, the inferred
// domain/aspect constraints, and the thresholds in force for each stage.
type QueryProfile struct {
	// Query is the raw query text.
	Query string `json:"query" yaml:"query"`

	// Complexity is the query classification driving threshold selection.
	Complexity QueryComplexity `json:"complexity" yaml:"complexity"`

	// Domain is the inferred subject area of the query. Empty means no
	// domain constraint could be inferred.
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Aspect is the inferred facet of inquiry (method, outcome,
	// population, theory). Empty means no aspect constraint.
	Aspect string `json:"aspect,omitempty" yaml:"aspect,omitempty"`

	// MinRelevanceScore is the complexity-scaled nominal BM25 floor.
	MinRelevanceScore float64 `json:"minRelevanceScore" yaml:"min_relevance_score"`

	// BM25Multiplier is the strictness multiplier applied to
	// MinRelevanceScore; the effective lexical threshold is their product.
	BM25Multiplier float64 `json:"bm25Multiplier" yaml:"bm25_multiplier"`

	// QualityThreshold is the minimum 0-100 quality score for the quality
	// filter stage.
	QualityThreshold float64 `json:"qualityThreshold" yaml:"quality_threshold"`

	// TopK bounds how many candidates receive neural scoring.
	TopK int `json:"topK" yaml:"top_k"`

	// TargetFinalCount is the size the final set is bounded to.
	TargetFinalCount int `json:"targetFinalCount" yaml:"target_final_count"`

	// MinAcceptableCount is the floor below which the funnel relaxes
	// thresholds rather than returning too few results.
	MinAcceptableCount int `json:"minAcceptableCount" yaml:"min_acceptable_count"`
}

// BM25Threshold returns the effective lexical cutoff. A score exactly equal
// to the threshold passes.
func (p QueryProfile) BM25Threshold() float64 {
	return p.MinRelevanceScore * p.BM25Multiplier
}

// StageCount records how many candidates survived one named funnel stage.
type StageCount struct {
	// Stage is the stage name, in execution order.
	Stage string `json:"stage" yaml:"stage"`

	// Count is the size of the working set after the stage ran.
	Count int `json:"count" yaml:"count"`
}

// FunnelResult is the final output of one funnel run. It is created fresh
// per search and never shared between concurrent searches.
type FunnelResult struct {
	// FunnelID correlates log lines and reports for one run.
	FunnelID string `json:"funnelId" yaml:"funnel_id"`

	// Profile is the query profile the run used, with the thresholds that
	// were in force for the non-relaxed pass.
	Profile QueryProfile `json:"profile" yaml:"profile"`

	// Results is the final ordered candidate set: deduplicated,
	// quality-filtered, diversity-enforced, sorted by Relevance descending.
	Results []ScoredCandidate `json:"results" yaml:"results"`

	// Stages records the working-set size after each executed stage, in
	// execution order. A relaxation pass appends its stages with a
	// "relaxed_" prefix.
	Stages []StageCount `json:"stages" yaml:"stages"`

	// RawBySource counts the raw candidates each source contributed before
	// deduplication.
	RawBySource map[string]int `json:"rawBySource" yaml:"raw_by_source"`

	// FinalBySource counts each source's share of the final set.
	FinalBySource map[string]int `json:"finalBySource" yaml:"final_by_source"`

	// Relaxed reports whether the bounded relaxation pass ran.
	Relaxed bool `json:"relaxed" yaml:"relaxed"`

	// AppliedBM25Multiplier and AppliedQualityThreshold are the thresholds
	// actually in force for the results: the profile values normally, the
	// relaxed values when Relaxed is true.
	AppliedBM25Multiplier   float64 `json:"appliedBm25Multiplier" yaml:"applied_bm25_multiplier"`
	AppliedQualityThreshold float64 `json:"appliedQualityThreshold" yaml:"applied_quality_threshold"`

	// Warnings lists absorbed non-fatal problems: failed sources, skipped
	// neural scoring, the relaxation notice.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// StageCount returns the recorded count for a named stage, or -1 if the
// stage did not run.
func (r *FunnelResult) StageCount(stage string) int {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Count
		}
	}
	return -1
}
