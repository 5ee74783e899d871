// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"testing"

	"github.com/pdiddy/litfunnel/pkg/types"
)

func TestScoreLexicalTitleOutweighsAbstract(t *testing.T) {
	input := scoredFrom(
		types.Candidate{
			Title:    "Attention mechanisms in sequence encoders",
			Abstract: "General architectures for machine translation benchmarks today.",
		},
		types.Candidate{
			Title:    "Sequence encoder architectures for translation",
			Abstract: "We study attention variants on machine translation benchmarks.",
		},
		types.Candidate{
			Title:    "Sediment transport in river deltas",
			Abstract: "Field study of sediment deposition rates in deltas.",
		},
	)

	scored := scoreLexical(input, []string{"attention"})

	if scored[0].BM25Score <= scored[1].BM25Score {
		t.Errorf("title match %.3f should outscore abstract match %.3f",
			scored[0].BM25Score, scored[1].BM25Score)
	}
	if scored[1].BM25Score <= 0 {
		t.Errorf("abstract match scored %.3f, want > 0", scored[1].BM25Score)
	}
	if scored[2].BM25Score != 0 {
		t.Errorf("non-matching candidate scored %.3f, want 0", scored[2].BM25Score)
	}
}

func TestScoreLexicalRareTermScoresHigher(t *testing.T) {
	// "ubiquitous" appears in every title, "singular" in one. Same
	// position and term frequency, so document frequency decides.
	input := scoredFrom(
		types.Candidate{Title: "ubiquitous singular pattern", Abstract: "filler text body one"},
		types.Candidate{Title: "ubiquitous ordinary pattern", Abstract: "filler text body two"},
		types.Candidate{Title: "ubiquitous ordinary theme", Abstract: "filler text body three"},
	)

	scored := scoreLexical(input, []string{"ubiquitous", "singular"})

	common := scoreLexical(input, []string{"ubiquitous"})[0].BM25Score
	rare := scoreLexical(input, []string{"singular"})[0].BM25Score
	if rare <= common {
		t.Errorf("rare term %.3f should outscore common term %.3f", rare, common)
	}
	if scored[0].BM25Score <= scored[1].BM25Score {
		t.Errorf("candidate with both terms %.3f should outscore one with one term %.3f",
			scored[0].BM25Score, scored[1].BM25Score)
	}
}

func TestScoreLexicalEmptyQuery(t *testing.T) {
	input := scoredFrom(
		types.Candidate{Title: "Any title", Abstract: "Any abstract text here."},
	)
	scored := scoreLexical(input, nil)
	if scored[0].BM25Score != 0 {
		t.Errorf("BM25Score = %.3f with no query terms, want 0", scored[0].BM25Score)
	}
}

func TestFilterByBM25ExactThresholdPasses(t *testing.T) {
	cands := []types.ScoredCandidate{
		{BM25Score: 2.5},
		{BM25Score: 2.4999},
		{BM25Score: 3.1},
		{BM25Score: 0},
	}

	kept := filterByBM25(cands, 2.5)
	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
	if kept[0].BM25Score != 2.5 {
		t.Errorf("score exactly at threshold should pass, kept %v", kept)
	}
}

func TestFilterByBM25ZeroThreshold(t *testing.T) {
	cands := []types.ScoredCandidate{{BM25Score: 0}, {BM25Score: 1}}
	if kept := filterByBM25(cands, 0); len(kept) != 2 {
		t.Errorf("len(kept) = %d, want 2: zero scores pass a zero threshold", len(kept))
	}
}

func TestTopKByBM25(t *testing.T) {
	cands := []types.ScoredCandidate{
		{BM25Score: 2},
		{BM25Score: 5},
		{BM25Score: 1},
		{BM25Score: 4},
		{BM25Score: 3},
	}

	top := topKByBM25(cands, 3)
	if len(top) != 3 {
		t.Fatalf("len(top) = %d, want 3", len(top))
	}
	want := []float64{5, 4, 3}
	for i, c := range top {
		if c.BM25Score != want[i] {
			t.Errorf("top[%d].BM25Score = %g, want %g", i, c.BM25Score, want[i])
		}
	}

	all := topKByBM25(cands, 10)
	if len(all) != len(cands) {
		t.Errorf("k beyond input: len = %d, want %d", len(all), len(cands))
	}
}

func TestTopKByBM25StableForEqualScores(t *testing.T) {
	cands := []types.ScoredCandidate{
		{Candidate: types.Candidate{Identifier: "first"}, BM25Score: 1},
		{Candidate: types.Candidate{Identifier: "second"}, BM25Score: 1},
		{Candidate: types.Candidate{Identifier: "third"}, BM25Score: 1},
	}

	top := topKByBM25(cands, 2)
	if top[0].Identifier != "first" || top[1].Identifier != "second" {
		t.Errorf("equal scores should keep input order, got %q, %q",
			top[0].Identifier, top[1].Identifier)
	}
}

func TestInverseDocFrequency(t *testing.T) {
	tests := []struct {
		name               string
		totalDocs, docFreq int
		positive           bool
	}{
		{"absent term", 10, 0, false},
		{"rare term", 10, 1, true},
		{"universal term", 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inverseDocFrequency(tt.totalDocs, tt.docFreq)
			if tt.positive && got <= 0 {
				t.Errorf("idf = %g, want > 0", got)
			}
			if !tt.positive && got != 0 {
				t.Errorf("idf = %g, want 0", got)
			}
		})
	}

	if rare, common := inverseDocFrequency(10, 1), inverseDocFrequency(10, 9); rare <= common {
		t.Errorf("idf(df=1)=%g should exceed idf(df=9)=%g", rare, common)
	}
}
