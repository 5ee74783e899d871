// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"math"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// enforceDiversity bounds the set to the target count while capping any
// single source's share at maxShare of the target. Input must already be
// sorted by relevance descending; trimming therefore removes the
// lowest-relevance members of an over-represented source first. Capping
// is a soft constraint: if it would leave fewer than the minimum
// acceptable count, trimmed candidates are restored in relevance order
// until the minimum is met. A single-source input has no diversity to
// enforce and is only bounded to the target.
func enforceDiversity(cands []types.ScoredCandidate, profile types.QueryProfile, maxShare float64) []types.ScoredCandidate {
	target := profile.TargetFinalCount

	perSourceCap := target
	if countSources(cands) > 1 {
		perSourceCap = int(math.Floor(maxShare * float64(target)))
		if perSourceCap < 1 {
			perSourceCap = 1
		}
	}

	kept := make([]types.ScoredCandidate, 0, min(len(cands), target))
	var trimmed []types.ScoredCandidate
	perSource := make(map[string]int)

	for _, c := range cands {
		if len(kept) == target {
			break
		}
		if perSource[c.Source] < perSourceCap {
			perSource[c.Source]++
			kept = append(kept, c)
		} else {
			trimmed = append(trimmed, c)
		}
	}

	floor := min(profile.MinAcceptableCount, target)
	refilled := false
	for len(kept) < floor && len(trimmed) > 0 {
		kept = append(kept, trimmed[0])
		trimmed = trimmed[1:]
		refilled = true
	}
	if refilled {
		kept = sortByRelevance(kept)
	}
	return kept
}

func countSources(cands []types.ScoredCandidate) int {
	seen := make(map[string]bool)
	for _, c := range cands {
		seen[c.Source] = true
	}
	return len(seen)
}
