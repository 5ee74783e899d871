// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"strings"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// authorOverlapThreshold is the minimum family-name overlap coefficient
// for a title-based duplicate match. Title equality alone is not enough
// when both records carry author lists: different works can share a title.
const authorOverlapThreshold = 0.5

// deduplicate collapses candidates that represent the same underlying
// work. The primary key is the normalized identifier (DOI); the fallback
// is the normalized title combined with author overlap, used when
// identifiers are absent or differ. Of two duplicates the more complete
// record is retained and its gaps are filled from the other. Running
// deduplicate on its own output is a no-op.
func deduplicate(cands []types.ScoredCandidate) ([]types.ScoredCandidate, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.ScoredCandidate
	removed := 0

	for _, c := range cands {
		if idx, ok := matchExisting(seen, deduped, c); ok {
			deduped[idx] = mergeCandidates(deduped[idx], c)
			// A merge can promote an identifier or title the kept record
			// lacked; register it so later copies still match.
			registerKeys(seen, deduped[idx], idx)
			removed++
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, c)
		registerKeys(seen, c, idx)
	}
	return deduped, removed
}

// matchExisting finds the retained record c duplicates, if any: first by
// normalized identifier, then by normalized title confirmed by author
// overlap.
func matchExisting(seen map[string]int, deduped []types.ScoredCandidate, c types.ScoredCandidate) (int, bool) {
	if norm := normalizeIdentifier(c.Identifier); norm != "" {
		if idx, ok := seen["id:"+norm]; ok {
			return idx, true
		}
	}
	if norm := normalizeTitle(c.Title); norm != "" {
		if idx, ok := seen["title:"+norm]; ok && sameAuthors(deduped[idx].Authors, c.Authors) {
			return idx, true
		}
	}
	return 0, false
}

// registerKeys records c's dedup keys for index idx. First registration
// wins; an occupied key keeps pointing at the earlier record.
func registerKeys(seen map[string]int, c types.ScoredCandidate, idx int) {
	if norm := normalizeIdentifier(c.Identifier); norm != "" {
		if _, taken := seen["id:"+norm]; !taken {
			seen["id:"+norm] = idx
		}
	}
	if norm := normalizeTitle(c.Title); norm != "" {
		if _, taken := seen["title:"+norm]; !taken {
			seen["title:"+norm] = idx
		}
	}
}

// sameAuthors reports whether two author lists plausibly name the same
// authors: the overlap coefficient of their family-name sets meets the
// threshold. A record with no authors cannot contradict the match, so an
// empty list on either side passes.
func sameAuthors(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	fa, fb := familyNames(a), familyNames(b)
	if len(fa) == 0 || len(fb) == 0 {
		return true
	}

	shared := 0
	for name := range fa {
		if fb[name] {
			shared++
		}
	}
	smaller := len(fa)
	if len(fb) < smaller {
		smaller = len(fb)
	}
	return float64(shared)/float64(smaller) >= authorOverlapThreshold
}

// familyNames extracts the lowercased last token of each author name.
func familyNames(authors []string) map[string]bool {
	out := make(map[string]bool, len(authors))
	for _, a := range authors {
		fields := strings.Fields(strings.ToLower(a))
		if len(fields) > 0 {
			out[fields[len(fields)-1]] = true
		}
	}
	return out
}

// mergeCandidates combines two records of the same work. The more complete
// record wins; the loser fills the winner's remaining gaps. Citation
// counts keep the maximum since sources lag each other.
func mergeCandidates(kept, dup types.ScoredCandidate) types.ScoredCandidate {
	winner, loser := kept, dup
	if completeness(dup.Candidate) > completeness(kept.Candidate) {
		winner, loser = dup, kept
	}

	if winner.Identifier == "" {
		winner.Identifier = loser.Identifier
	}
	if winner.Title == "" {
		winner.Title = loser.Title
	}
	if winner.Abstract == "" {
		winner.Abstract = loser.Abstract
	}
	if len(winner.Authors) < len(loser.Authors) {
		winner.Authors = loser.Authors
	}
	if winner.Year == 0 {
		winner.Year = loser.Year
	}
	if winner.Venue == "" {
		winner.Venue = loser.Venue
	}
	if len(winner.Keywords) == 0 {
		winner.Keywords = loser.Keywords
	}
	if winner.URL == "" {
		winner.URL = loser.URL
	}
	if loser.CitationCount > winner.CitationCount {
		winner.CitationCount = loser.CitationCount
	}
	return winner
}

// completeness counts how much usable metadata a record carries, for
// choosing which duplicate to retain.
func completeness(c types.Candidate) int {
	score := len(c.Authors)
	if c.Identifier != "" {
		score += 2
	}
	if c.Abstract != "" {
		score += 2
	}
	if c.Venue != "" {
		score++
	}
	if c.Year != 0 {
		score++
	}
	if len(c.Keywords) > 0 {
		score++
	}
	if c.URL != "" {
		score++
	}
	return score
}
