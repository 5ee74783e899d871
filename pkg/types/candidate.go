// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litfunnel pipeline:
// bibliographic candidates, the scored working records the funnel produces,
// the per-search query profile, and the configuration surface.
package types

// Candidate is a raw bibliographic record as returned by an external source,
// before any scoring or filtering.
type Candidate struct {
	// Identifier is the stable identifier for the work: the DOI when the
	// source provides one, otherwise the source-native ID (arXiv ID,
	// OpenAlex work ID). May be empty; dedup then falls back to fuzzy
	// title/author matching.
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the work's title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract or summary text. May be empty; candidates
	// without an abstract are dropped at the structural filter.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists author names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year. Zero means unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference name. May be empty (preprints).
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Keywords are subject terms attached by the source (OpenAlex concepts,
	// Crossref subjects, arXiv categories).
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// CitationCount is the number of citations the source reports for this
	// work. Zero is a valid count, not a missing value.
	CitationCount int `json:"citationCount" yaml:"citation_count"`

	// Source names the connector that produced this record
	// (e.g. "openalex", "crossref", "semantic_scholar", "arxiv").
	Source string `json:"source" yaml:"source"`

	// URL is a landing page or full-text link for the work.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ScoredCandidate is a Candidate annotated with the funnel's independently
// computed signals. Score fields are zero until the corresponding stage has
// run; a zero score is the worst value and never passes a threshold by
// accident.
type ScoredCandidate struct {
	Candidate `yaml:",inline"`

	// QualityScore is the 0-100 composite of citation impact, journal
	// prestige and recency.
	QualityScore float64 `json:"qualityScore" yaml:"quality_score"`

	// BM25Score is the raw lexical relevance score (>= 0) against the
	// search query.
	BM25Score float64 `json:"bm25Score" yaml:"bm25_score"`

	// NeuralScore is the embedding similarity mapped to [0,1]. Only
	// meaningful when NeuralScored is true; the funnel computes it for the
	// bounded top-K subset only.
	NeuralScore float64 `json:"neuralScore,omitempty" yaml:"neural_score,omitempty"`

	// NeuralScored reports whether NeuralScore was actually computed for
	// this candidate.
	NeuralScored bool `json:"neuralScored" yaml:"neural_scored"`

	// DomainMatch reports whether the candidate's subject area matched the
	// query's inferred domain.
	DomainMatch bool `json:"domainMatch" yaml:"domain_match"`

	// AspectMatch reports whether the candidate matched the query's
	// inferred aspect (method, outcome, population, theory).
	AspectMatch bool `json:"aspectMatch" yaml:"aspect_match"`

	// Relevance is the composite of lexical and neural scores used for the
	// final ordering.
	Relevance float64 `json:"relevance" yaml:"relevance"`
}
