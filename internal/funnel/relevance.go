// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"sort"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// lexicalNorm maps a raw BM25 score into [0,1) with a half-saturation
// constant: norm = score/(score+k). The raw scale is unbounded and
// query-dependent, so the composite needs a bounded form.
func lexicalNorm(score, k float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + k)
}

// cosineToUnit maps a cosine similarity in [-1,1] into [0,1].
func cosineToUnit(cos float64) float64 {
	return clamp01((cos + 1) / 2)
}

// compositeRelevance blends the normalized lexical and neural scores with
// the configured weights, renormalized by the weight sum so the result
// stays in [0,1] for any weight choice. A candidate without a neural
// score is ranked by its lexical score alone.
func compositeRelevance(c types.ScoredCandidate, cfg types.FunnelConfig) float64 {
	lex := lexicalNorm(c.BM25Score, cfg.BM25NormK)
	if !c.NeuralScored {
		return lex
	}
	return (cfg.LexicalWeight*lex + cfg.NeuralWeight*c.NeuralScore) /
		(cfg.LexicalWeight + cfg.NeuralWeight)
}

// annotateRelevance returns a new collection with Relevance assigned.
func annotateRelevance(cands []types.ScoredCandidate, cfg types.FunnelConfig) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, len(cands))
	for i, c := range cands {
		c.Relevance = compositeRelevance(c, cfg)
		out[i] = c
	}
	return out
}

// sortByRelevance returns a new collection ordered by Relevance
// descending, preserving input order among equal scores.
func sortByRelevance(cands []types.ScoredCandidate) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	return out
}
