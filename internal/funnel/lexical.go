// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"math"
	"sort"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// BM25 constants. k1 controls term-frequency saturation, b controls
// document-length normalization.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Field weights for the lexical score. A title match is a much stronger
// relevance signal than the same term in an abstract, so title term
// frequencies count triple.
const (
	weightTitle    = 3.0
	weightKeywords = 1.5
	weightAbstract = 1.0
)

// lexicalDoc is one candidate's weighted term-frequency view.
type lexicalDoc struct {
	counts map[string]float64
	length float64
}

// lexicalCorpus holds the per-search corpus statistics BM25 needs. It is
// built once per search over the full deduplicated working set, so the
// statistics reflect the actual comparison population rather than any
// single source's slice of it.
type lexicalCorpus struct {
	docs   []lexicalDoc
	df     map[string]int
	avgLen float64
}

// buildLexicalCorpus tokenizes every candidate's title, keywords, and
// abstract into weighted term counts and computes document frequencies and
// the average weighted length.
func buildLexicalCorpus(cands []types.ScoredCandidate) *lexicalCorpus {
	c := &lexicalCorpus{
		docs: make([]lexicalDoc, len(cands)),
		df:   make(map[string]int),
	}

	var totalLen float64
	for i, cand := range cands {
		doc := lexicalDoc{counts: make(map[string]float64)}
		addField(doc.counts, cand.Title, weightTitle, &doc.length)
		for _, kw := range cand.Keywords {
			addField(doc.counts, kw, weightKeywords, &doc.length)
		}
		addField(doc.counts, cand.Abstract, weightAbstract, &doc.length)

		for term := range doc.counts {
			c.df[term]++
		}
		c.docs[i] = doc
		totalLen += doc.length
	}

	if len(cands) > 0 {
		c.avgLen = totalLen / float64(len(cands))
	}
	return c
}

func addField(counts map[string]float64, text string, weight float64, length *float64) {
	for _, term := range tokenize(text) {
		counts[term] += weight
		*length += weight
	}
}

// score computes the BM25 score of document i against the query terms.
func (c *lexicalCorpus) score(terms []string, i int) float64 {
	doc := c.docs[i]
	if doc.length == 0 || c.avgLen == 0 {
		return 0
	}

	var score float64
	for _, term := range terms {
		tf := doc.counts[term]
		if tf == 0 {
			continue
		}
		tfn := lengthNormalizedTF(tf, doc.length, c.avgLen)
		score += inverseDocFrequency(len(c.docs), c.df[term]) * saturate(tfn)
	}
	return score
}

// inverseDocFrequency computes ln(1 + (N - df + 0.5) / (df + 0.5)).
func inverseDocFrequency(totalDocs, docFreq int) float64 {
	if docFreq == 0 {
		return 0
	}
	ratio := (float64(totalDocs) - float64(docFreq) + 0.5) / (float64(docFreq) + 0.5)
	if ratio < 0 {
		ratio = 0
	}
	return math.Log(1 + ratio)
}

// lengthNormalizedTF scales a raw term frequency by the document's length
// relative to the corpus average: tf / (1 - b + b*len/avgLen).
func lengthNormalizedTF(tf, docLen, avgLen float64) float64 {
	denom := 1 - bm25B + bm25B*(docLen/avgLen)
	if denom <= 0 {
		return 0
	}
	return tf / denom
}

// saturate applies BM25 term-frequency saturation:
// ((k1 + 1) * tfn) / (k1 + tfn).
func saturate(tfn float64) float64 {
	if tfn <= 0 {
		return 0
	}
	return ((bm25K1 + 1) * tfn) / (bm25K1 + tfn)
}

// scoreLexical returns a new collection with BM25Score assigned to every
// candidate, computed against corpus statistics over the whole input set.
func scoreLexical(cands []types.ScoredCandidate, queryTerms []string) []types.ScoredCandidate {
	corpus := buildLexicalCorpus(cands)
	out := make([]types.ScoredCandidate, len(cands))
	for i, c := range cands {
		c.BM25Score = corpus.score(queryTerms, i)
		out[i] = c
	}
	return out
}

// filterByBM25 keeps candidates whose BM25Score meets the threshold. A
// score exactly equal to the threshold passes.
func filterByBM25(cands []types.ScoredCandidate, threshold float64) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if c.BM25Score >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// topKByBM25 returns the k highest-scoring candidates by BM25Score,
// preserving input order among equal scores. This bound exists purely to
// cap the cost of neural scoring.
func topKByBM25(cands []types.ScoredCandidate, k int) []types.ScoredCandidate {
	if k >= len(cands) {
		out := make([]types.ScoredCandidate, len(cands))
		copy(out, cands)
		return out
	}

	out := make([]types.ScoredCandidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BM25Score > out[j].BM25Score
	})
	return out[:k]
}
