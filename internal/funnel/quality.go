// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"math"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// MetricsLookup resolves a venue name to journal prestige metrics. The
// journal metrics store satisfies this; it is read-only and shared across
// concurrent searches.
type MetricsLookup interface {
	Lookup(venue string) (types.JournalMetrics, bool)
}

// Quality component weights. When journal metrics are available prestige
// dominates, because raw citation counts are a noisy and field-biased
// proxy. Recency contributes in both formulas so stale work is penalized
// regardless of venue coverage.
const (
	qualityCitationWeight = 0.30
	qualityPrestigeWeight = 0.50
	qualityRecencyWeight  = 0.20

	fallbackCitationWeight = 0.60
	fallbackRecencyWeight  = 0.40
)

// Prestige sub-component weights and saturation points.
const (
	prestigeImpactWeight   = 0.5
	prestigeHIndexWeight   = 0.3
	prestigeQuartileWeight = 0.2

	impactFactorSaturation = 25.0
	hIndexSaturation       = 200.0
)

// citationImpact maps a citation count into [0,1] on a log scale, reaching
// 1.0 at the saturation count. Zero citations is a valid low signal, not a
// missing value.
func citationImpact(citations int, saturation float64) float64 {
	if citations <= 0 {
		return 0
	}
	v := math.Log10(1+float64(citations)) / math.Log10(1+saturation)
	return clamp01(v)
}

// journalPrestige maps venue metrics into [0,1] from impact factor,
// journal h-index, and ranking quartile.
func journalPrestige(m types.JournalMetrics) float64 {
	impact := clamp01(m.ImpactFactor / impactFactorSaturation)
	hIndex := clamp01(float64(m.HIndex) / hIndexSaturation)
	return prestigeImpactWeight*impact +
		prestigeHIndexWeight*hIndex +
		prestigeQuartileWeight*quartileRank(m.Quartile)
}

// quartileRank maps a journal quartile label into [0,1].
func quartileRank(quartile string) float64 {
	switch quartile {
	case "Q1":
		return 1.0
	case "Q2":
		return 0.7
	case "Q3":
		return 0.4
	case "Q4":
		return 0.2
	default:
		return 0
	}
}

// recencySignal maps a publication year into [0,1], decaying linearly to
// zero over the window. An unknown year (zero) returns the neutral
// midpoint 0.5 rather than the worst value.
func recencySignal(year, nowYear, windowYears int) float64 {
	if year == 0 {
		return 0.5
	}
	age := nowYear - year
	if age < 0 {
		age = 0
	}
	return clamp01(1 - float64(age)/float64(windowYears))
}

// scoreQuality computes the 0-100 composite quality score for one
// candidate. metrics is nil when no journal metrics exist for the
// candidate's venue, which selects the citation+recency fallback weighting.
func scoreQuality(c types.Candidate, metrics *types.JournalMetrics, cfg types.FunnelConfig, nowYear int) float64 {
	citation := citationImpact(c.CitationCount, cfg.CitationSaturation)
	recency := recencySignal(c.Year, nowYear, cfg.RecencyWindowYears)

	if metrics != nil {
		prestige := journalPrestige(*metrics)
		return 100 * (qualityCitationWeight*citation +
			qualityPrestigeWeight*prestige +
			qualityRecencyWeight*recency)
	}
	return 100 * (fallbackCitationWeight*citation + fallbackRecencyWeight*recency)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// annotateQuality returns a new collection with QualityScore assigned to
// every candidate. It must run before any quality-based filter; candidates
// it never saw keep the zero score, which fails the quality filter.
func annotateQuality(cands []types.ScoredCandidate, lookup MetricsLookup, cfg types.FunnelConfig, nowYear int) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, len(cands))
	for i, c := range cands {
		var metrics *types.JournalMetrics
		if lookup != nil && c.Venue != "" {
			if m, ok := lookup.Lookup(c.Venue); ok {
				metrics = &m
			}
		}
		c.QualityScore = scoreQuality(c.Candidate, metrics, cfg, nowYear)
		out[i] = c
	}
	return out
}

// filterByQuality keeps candidates whose QualityScore meets the threshold.
// A candidate whose score was never computed carries zero and fails.
func filterByQuality(cands []types.ScoredCandidate, threshold float64) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if c.QualityScore >= threshold {
			out = append(out, c)
		}
	}
	return out
}
