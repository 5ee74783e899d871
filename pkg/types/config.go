package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by connectors that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litfunnel/0.1"). Polite identification is required by the
	// OpenAlex and Crossref etiquette guidelines.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig holds settings for the source collection boundary.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxPerSource is the maximum number of raw candidates requested from
	// each source (default 100).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source" mapstructure:"max_per_source"`

	// CollectTimeout bounds how long the collector waits for any single
	// source. A source that misses the deadline contributes nothing.
	CollectTimeout time.Duration `json:"collect_timeout" yaml:"collect_timeout" mapstructure:"collect_timeout"`

	// InterSourceDelay staggers the start of consecutive source requests
	// to avoid bursting all APIs at the same instant (default 500ms).
	InterSourceDelay time.Duration `json:"inter_source_delay" yaml:"inter_source_delay" mapstructure:"inter_source_delay"`

	// EnableOpenAlex controls whether the OpenAlex connector is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// OpenAlexEmail joins the OpenAlex polite pool when set.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// EnableCrossref controls whether the Crossref connector is used.
	EnableCrossref bool `json:"enable_crossref" yaml:"enable_crossref" mapstructure:"enable_crossref"`

	// CrossrefMailto joins the Crossref polite pool when set.
	CrossrefMailto string `json:"crossref_mailto,omitempty" yaml:"crossref_mailto,omitempty" mapstructure:"crossref_mailto"`

	// EnableSemanticScholar controls whether the Semantic Scholar
	// connector is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// EnableArxiv controls whether the arXiv connector is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`
}

// DefaultSourcesConfig returns the collection settings used when no
// configuration file overrides them.
func DefaultSourcesConfig() SourcesConfig {
	return SourcesConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "litfunnel/0.1",
		},
		MaxPerSource:          100,
		CollectTimeout:        20 * time.Second,
		InterSourceDelay:      500 * time.Millisecond,
		EnableOpenAlex:        true,
		EnableCrossref:        true,
		EnableSemanticScholar: true,
		EnableArxiv:           true,
	}
}

// FunnelConfig holds the thresholds and tunable weights of the filtering
// funnel. Zero values are invalid; construct with DefaultFunnelConfig and
// override fields as needed.
type FunnelConfig struct {
	// MinRelevanceScore is the nominal BM25 floor, calibrated on
	// representative-length abstracts. The effective cutoff is
	// MinRelevanceScore * BM25Multiplier.
	MinRelevanceScore float64 `json:"min_relevance_score" yaml:"min_relevance_score" mapstructure:"min_relevance_score"`

	// BM25Multiplier tightens the lexical cutoff above the nominal floor
	// to compensate for BM25 score inflation on long abstracts (default 1.25).
	BM25Multiplier float64 `json:"bm25_multiplier" yaml:"bm25_multiplier" mapstructure:"bm25_multiplier"`

	// BM25MultiplierRelaxed replaces BM25Multiplier during the relaxation
	// pass (default 1.0).
	BM25MultiplierRelaxed float64 `json:"bm25_multiplier_relaxed" yaml:"bm25_multiplier_relaxed" mapstructure:"bm25_multiplier_relaxed"`

	// QualityThreshold is the minimum 0-100 quality score (default 40).
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold" mapstructure:"quality_threshold"`

	// QualityThresholdRelaxed replaces QualityThreshold during the
	// relaxation pass (default 25).
	QualityThresholdRelaxed float64 `json:"quality_threshold_relaxed" yaml:"quality_threshold_relaxed" mapstructure:"quality_threshold_relaxed"`

	// TopKForNeuralScoring bounds how many candidates are batch-embedded
	// for neural scoring (default 1200). Scaled by query complexity.
	TopKForNeuralScoring int `json:"top_k_for_neural_scoring" yaml:"top_k_for_neural_scoring" mapstructure:"top_k_for_neural_scoring"`

	// TargetFinalCount is the size the final set is bounded to (default 300).
	TargetFinalCount int `json:"target_final_count" yaml:"target_final_count" mapstructure:"target_final_count"`

	// MinAcceptableCount is the floor that triggers the relaxation pass
	// and that diversity trimming never cuts below (default 100).
	MinAcceptableCount int `json:"min_acceptable_count" yaml:"min_acceptable_count" mapstructure:"min_acceptable_count"`

	// MaxSharePerSource caps any single source's share of the final set
	// (default 0.4).
	MaxSharePerSource float64 `json:"max_share_per_source" yaml:"max_share_per_source" mapstructure:"max_share_per_source"`

	// LexicalWeight and NeuralWeight blend the normalized BM25 and neural
	// scores into the composite relevance (defaults 0.4 and 0.6). When a
	// candidate has no neural score the composite is the normalized
	// lexical score alone.
	LexicalWeight float64 `json:"lexical_weight" yaml:"lexical_weight" mapstructure:"lexical_weight"`
	NeuralWeight  float64 `json:"neural_weight" yaml:"neural_weight" mapstructure:"neural_weight"`

	// BM25NormK is the half-saturation constant mapping raw BM25 scores
	// into [0,1) for the composite: norm = score/(score+k) (default 10).
	BM25NormK float64 `json:"bm25_norm_k" yaml:"bm25_norm_k" mapstructure:"bm25_norm_k"`

	// CitationSaturation is the citation count treated as a full 1.0
	// citation-impact signal (default 1000, log-scaled below it).
	CitationSaturation float64 `json:"citation_saturation" yaml:"citation_saturation" mapstructure:"citation_saturation"`

	// RecencyWindowYears is the age at which the recency signal reaches
	// zero (default 10).
	RecencyWindowYears int `json:"recency_window_years" yaml:"recency_window_years" mapstructure:"recency_window_years"`
}

// DefaultFunnelConfig returns the funnel thresholds used when no
// configuration overrides them.
func DefaultFunnelConfig() FunnelConfig {
	return FunnelConfig{
		MinRelevanceScore:       1.0,
		BM25Multiplier:          1.25,
		BM25MultiplierRelaxed:   1.0,
		QualityThreshold:        40,
		QualityThresholdRelaxed: 25,
		TopKForNeuralScoring:    1200,
		TargetFinalCount:        300,
		MinAcceptableCount:      100,
		MaxSharePerSource:       0.4,
		LexicalWeight:           0.4,
		NeuralWeight:            0.6,
		BM25NormK:               10,
		CitationSaturation:      1000,
		RecencyWindowYears:      10,
	}
}

// Validate checks the funnel configuration for values that indicate a
// programming or deployment mistake. It is called at funnel construction;
// a failure here is fatal, unlike the runtime data conditions the funnel
// absorbs.
func (c FunnelConfig) Validate() error {
	if c.MinRelevanceScore < 0 {
		return fmt.Errorf("funnel config: min_relevance_score must be >= 0, got %g", c.MinRelevanceScore)
	}
	if c.BM25Multiplier <= 0 {
		return fmt.Errorf("funnel config: bm25_multiplier must be > 0, got %g", c.BM25Multiplier)
	}
	if c.BM25MultiplierRelaxed <= 0 || c.BM25MultiplierRelaxed > c.BM25Multiplier {
		return fmt.Errorf("funnel config: bm25_multiplier_relaxed must be in (0, %g], got %g",
			c.BM25Multiplier, c.BM25MultiplierRelaxed)
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 100 {
		return fmt.Errorf("funnel config: quality_threshold must be in [0,100], got %g", c.QualityThreshold)
	}
	if c.QualityThresholdRelaxed < 0 || c.QualityThresholdRelaxed > c.QualityThreshold {
		return fmt.Errorf("funnel config: quality_threshold_relaxed must be in [0, %g], got %g",
			c.QualityThreshold, c.QualityThresholdRelaxed)
	}
	if c.TopKForNeuralScoring <= 0 {
		return fmt.Errorf("funnel config: top_k_for_neural_scoring must be > 0, got %d", c.TopKForNeuralScoring)
	}
	if c.TargetFinalCount <= 0 {
		return fmt.Errorf("funnel config: target_final_count must be > 0, got %d", c.TargetFinalCount)
	}
	if c.MinAcceptableCount < 0 || c.MinAcceptableCount > c.TargetFinalCount {
		return fmt.Errorf("funnel config: min_acceptable_count must be in [0, %d], got %d",
			c.TargetFinalCount, c.MinAcceptableCount)
	}
	if c.MaxSharePerSource <= 0 || c.MaxSharePerSource > 1 {
		return fmt.Errorf("funnel config: max_share_per_source must be in (0,1], got %g", c.MaxSharePerSource)
	}
	if c.LexicalWeight < 0 || c.NeuralWeight < 0 || c.LexicalWeight+c.NeuralWeight == 0 {
		return fmt.Errorf("funnel config: lexical_weight and neural_weight must be >= 0 and not both zero, got %g and %g",
			c.LexicalWeight, c.NeuralWeight)
	}
	if c.BM25NormK <= 0 {
		return fmt.Errorf("funnel config: bm25_norm_k must be > 0, got %g", c.BM25NormK)
	}
	if c.CitationSaturation <= 1 {
		return fmt.Errorf("funnel config: citation_saturation must be > 1, got %g", c.CitationSaturation)
	}
	if c.RecencyWindowYears < 1 {
		return fmt.Errorf("funnel config: recency_window_years must be >= 1, got %d", c.RecencyWindowYears)
	}
	return nil
}

// EmbeddingConfig holds settings for the embedding client backing the
// neural scorer.
type EmbeddingConfig struct {
	// Model is the embedding model identifier (default "text-embedding-3-small").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the embeddings API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint, for tests or self-hosted
	// OpenAI-compatible servers. Empty uses the public endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// BatchSize is the maximum number of texts per embeddings request
	// (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// CacheSize is the capacity of the text-to-vector LRU cache
	// (default 4096 entries).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`

	// Timeout bounds the whole neural-scoring batch; on expiry the funnel
	// keeps the lexical ordering (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultEmbeddingConfig returns the embedding settings used when no
// configuration overrides them.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Model:     "text-embedding-3-small",
		BatchSize: 100,
		CacheSize: 4096,
		Timeout:   30 * time.Second,
	}
}

// MetricsConfig holds settings for the journal prestige store.
type MetricsConfig struct {
	// DBPath is the SQLite database location (default "metrics/journals.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// Config groups all litfunnel configuration sections.
type Config struct {
	Funnel    FunnelConfig    `json:"funnel" yaml:"funnel" mapstructure:"funnel"`
	Sources   SourcesConfig   `json:"sources" yaml:"sources" mapstructure:"sources"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// DefaultConfig returns a complete default configuration.
func DefaultConfig() Config {
	return Config{
		Funnel:    DefaultFunnelConfig(),
		Sources:   DefaultSourcesConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Metrics:   MetricsConfig{DBPath: "metrics/journals.db"},
	}
}
