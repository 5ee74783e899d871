// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"math"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// comprehensiveMarkers are query words that signal a review-style search
// where recall matters more than precision, regardless of query length.
var comprehensiveMarkers = map[string]bool{
	"systematic":    true,
	"review":        true,
	"meta":          true,
	"metaanalysis":  true,
	"comprehensive": true,
	"overview":      true,
	"literature":    true,
}

// Complexity boundaries on the content-term count.
const (
	broadMaxTerms         = 3
	comprehensiveMinTerms = 9
)

// Threshold scaling per complexity class. Broad queries carry few terms
// and score lower absolute BM25, so the floor comes down a little;
// comprehensive queries trade precision for recall with a lower floor and
// a larger neural-scoring budget.
const (
	broadFloorScale         = 0.85
	broadTopKScale          = 1.2
	comprehensiveFloorScale = 0.7
	comprehensiveTopKScale  = 1.5
)

// classifyComplexity buckets a query into broad, specific, or
// comprehensive from its content-term count and review-style markers.
func classifyComplexity(query string) types.QueryComplexity {
	terms := uniqueTerms(query)
	for _, t := range terms {
		if comprehensiveMarkers[t] {
			return types.ComplexityComprehensive
		}
	}
	switch {
	case len(terms) <= broadMaxTerms:
		return types.ComplexityBroad
	case len(terms) >= comprehensiveMinTerms:
		return types.ComplexityComprehensive
	default:
		return types.ComplexitySpecific
	}
}

// buildProfile derives the per-search query profile: classification,
// inferred domain and aspect, and the thresholds in force for each stage.
// The profile is computed once and never changes during the search.
func buildProfile(query string, cfg types.FunnelConfig) types.QueryProfile {
	terms := uniqueTerms(query)
	complexity := classifyComplexity(query)

	p := types.QueryProfile{
		Query:              query,
		Complexity:         complexity,
		Domain:             inferBest(domainLexicon, terms),
		Aspect:             inferBest(aspectLexicon, terms),
		MinRelevanceScore:  cfg.MinRelevanceScore,
		BM25Multiplier:     cfg.BM25Multiplier,
		QualityThreshold:   cfg.QualityThreshold,
		TopK:               cfg.TopKForNeuralScoring,
		TargetFinalCount:   cfg.TargetFinalCount,
		MinAcceptableCount: cfg.MinAcceptableCount,
	}

	switch complexity {
	case types.ComplexityBroad:
		p.MinRelevanceScore *= broadFloorScale
		p.TopK = scaleCount(p.TopK, broadTopKScale)
	case types.ComplexityComprehensive:
		p.MinRelevanceScore *= comprehensiveFloorScale
		p.TopK = scaleCount(p.TopK, comprehensiveTopKScale)
	}
	return p
}

func scaleCount(n int, factor float64) int {
	return int(math.Round(float64(n) * factor))
}
