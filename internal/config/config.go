// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads litfunnel configuration from a YAML file and
// environment variables, layered over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// Load reads configuration and returns it together with the path of the
// config file used ("" when running on defaults alone). When cfgFile is
// empty, litfunnel.yaml is searched for in the working directory and in
// ~/.config/litfunnel/. Environment variables prefixed with LITFUNNEL_
// override file values (e.g. LITFUNNEL_FUNNEL_QUALITY_THRESHOLD).
func Load(cfgFile string) (types.Config, string, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("litfunnel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "litfunnel"))
		}
	}

	v.SetEnvPrefix("LITFUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		// No config file found; defaults and environment apply.
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, "", fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Funnel.Validate(); err != nil {
		return types.Config{}, "", fmt.Errorf("validating config: %w", err)
	}

	return cfg, v.ConfigFileUsed(), nil
}

// setDefaults registers every configuration key with its default so that
// environment overrides work for keys absent from the config file.
func setDefaults(v *viper.Viper) {
	def := types.DefaultConfig()

	v.SetDefault("funnel.min_relevance_score", def.Funnel.MinRelevanceScore)
	v.SetDefault("funnel.bm25_multiplier", def.Funnel.BM25Multiplier)
	v.SetDefault("funnel.bm25_multiplier_relaxed", def.Funnel.BM25MultiplierRelaxed)
	v.SetDefault("funnel.quality_threshold", def.Funnel.QualityThreshold)
	v.SetDefault("funnel.quality_threshold_relaxed", def.Funnel.QualityThresholdRelaxed)
	v.SetDefault("funnel.top_k_for_neural_scoring", def.Funnel.TopKForNeuralScoring)
	v.SetDefault("funnel.target_final_count", def.Funnel.TargetFinalCount)
	v.SetDefault("funnel.min_acceptable_count", def.Funnel.MinAcceptableCount)
	v.SetDefault("funnel.max_share_per_source", def.Funnel.MaxSharePerSource)
	v.SetDefault("funnel.lexical_weight", def.Funnel.LexicalWeight)
	v.SetDefault("funnel.neural_weight", def.Funnel.NeuralWeight)
	v.SetDefault("funnel.bm25_norm_k", def.Funnel.BM25NormK)
	v.SetDefault("funnel.citation_saturation", def.Funnel.CitationSaturation)
	v.SetDefault("funnel.recency_window_years", def.Funnel.RecencyWindowYears)

	v.SetDefault("sources.timeout", def.Sources.Timeout)
	v.SetDefault("sources.user_agent", def.Sources.UserAgent)
	v.SetDefault("sources.max_per_source", def.Sources.MaxPerSource)
	v.SetDefault("sources.collect_timeout", def.Sources.CollectTimeout)
	v.SetDefault("sources.inter_source_delay", def.Sources.InterSourceDelay)
	v.SetDefault("sources.enable_openalex", def.Sources.EnableOpenAlex)
	v.SetDefault("sources.enable_crossref", def.Sources.EnableCrossref)
	v.SetDefault("sources.enable_semantic_scholar", def.Sources.EnableSemanticScholar)
	v.SetDefault("sources.enable_arxiv", def.Sources.EnableArxiv)

	v.SetDefault("embedding.model", def.Embedding.Model)
	v.SetDefault("embedding.batch_size", def.Embedding.BatchSize)
	v.SetDefault("embedding.cache_size", def.Embedding.CacheSize)
	v.SetDefault("embedding.timeout", def.Embedding.Timeout)

	v.SetDefault("metrics.db_path", def.Metrics.DBPath)
}
