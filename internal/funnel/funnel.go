// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package funnel ranks and filters literature search candidates through a
// fixed pipeline: deduplication, quality scoring, structural filtering,
// BM25 relevance filtering, bounded neural re-scoring, domain filtering,
// and source diversity enforcement. Each stage consumes an immutable
// collection and returns a new one, so a single Funnel serves concurrent
// searches without shared mutable state.
package funnel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// Stage names recorded in FunnelResult.Stages, in execution order.
const (
	StageCollected        = "collected"
	StageDeduplicated     = "deduplicated"
	StageQualityScored    = "quality_scored"
	StageStructuralFilter = "structural_filter"
	StageBM25Filter       = "bm25_filter"
	StageTopK             = "top_k"
	StageNeuralScored     = "neural_scored"
	StageDomainAspect     = "domain_aspect_filter"
	StageRelevanceSorted  = "relevance_sorted"
	StageQualityFilter    = "quality_filter"
	StageDiversity        = "diversity"
	StageFinal            = "final"
)

// RelaxedStagePrefix marks the stages re-run by the relaxation pass.
const RelaxedStagePrefix = "relaxed_"

// Funnel executes the ranking pipeline. Construct with New. The metrics
// lookup and embedder are shared and read-only; every run builds its own
// working state.
type Funnel struct {
	cfg      types.FunnelConfig
	embedder Embedder
	metrics  MetricsLookup
	logger   *slog.Logger
}

// New validates the configuration and returns a ready Funnel. A nil
// embedder disables neural scoring; the pipeline then ranks on lexical
// scores alone and reports it. A nil metrics lookup is allowed and makes
// quality scoring fall back to citations and recency.
func New(cfg types.FunnelConfig, embedder Embedder, metrics MetricsLookup, logger *slog.Logger) (*Funnel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Funnel{cfg: cfg, embedder: embedder, metrics: metrics, logger: logger}, nil
}

// Run executes the full pipeline for one query over the per-source
// candidate lists. It always returns a usable result; the error is
// non-nil only when ctx is canceled between stages. An empty input
// produces an empty result with zero stage counts.
func (f *Funnel) Run(ctx context.Context, query string, sourceCandidates [][]types.Candidate) (types.FunnelResult, error) {
	profile := buildProfile(query, f.cfg)
	result := types.FunnelResult{
		FunnelID:                uuid.NewString(),
		Profile:                 profile,
		RawBySource:             make(map[string]int),
		FinalBySource:           make(map[string]int),
		AppliedBM25Multiplier:   profile.BM25Multiplier,
		AppliedQualityThreshold: profile.QualityThreshold,
	}
	logger := f.logger.With(
		slog.String("funnel_id", result.FunnelID),
		slog.String("complexity", string(profile.Complexity)),
	)

	all := flatten(sourceCandidates)
	for _, c := range all {
		result.RawBySource[c.Source]++
	}
	logger.Info("funnel run started",
		slog.String("query", query),
		slog.Int("sources", len(sourceCandidates)),
		slog.Int("collected", len(all)),
	)
	recordStage(&result, logger, StageCollected, len(all))

	deduped, removed := deduplicate(all)
	recordStage(&result, logger, StageDeduplicated, len(deduped))
	if removed > 0 {
		logger.Info("duplicates merged", slog.Int("removed", removed))
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("funnel canceled after %s: %w", StageDeduplicated, err)
	}

	nowYear := time.Now().Year()
	scored := annotateQuality(deduped, f.metrics, f.cfg, nowYear)
	recordStage(&result, logger, StageQualityScored, len(scored))

	working := filterStructural(scored)
	recordStage(&result, logger, StageStructuralFilter, len(working))
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("funnel canceled after %s: %w", StageStructuralFilter, err)
	}

	// BM25 corpus statistics are computed once here; the relaxation pass
	// reuses the same scores with a lower threshold.
	working = scoreLexical(working, uniqueTerms(query))

	final, err := f.rankingPass(ctx, logger, working, profile, "", &result)
	if err != nil {
		return result, err
	}

	if len(final) < profile.MinAcceptableCount && len(final) < len(working) {
		relaxed := profile
		relaxed.BM25Multiplier = f.cfg.BM25MultiplierRelaxed
		relaxed.QualityThreshold = f.cfg.QualityThresholdRelaxed

		warn(&result, logger, fmt.Sprintf(
			"only %d results met thresholds (minimum %d); relaxed bm25 multiplier to %.2f and quality threshold to %.0f",
			len(final), profile.MinAcceptableCount, relaxed.BM25Multiplier, relaxed.QualityThreshold))

		final, err = f.rankingPass(ctx, logger, working, relaxed, RelaxedStagePrefix, &result)
		if err != nil {
			return result, err
		}
		result.Relaxed = true
		result.AppliedBM25Multiplier = relaxed.BM25Multiplier
		result.AppliedQualityThreshold = relaxed.QualityThreshold
	}

	result.Results = final
	for _, c := range final {
		result.FinalBySource[c.Source]++
	}
	recordStage(&result, logger, StageFinal, len(final))

	logger.Info("funnel run finished",
		slog.Int("final", len(final)),
		slog.Bool("relaxed", result.Relaxed),
		slog.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// rankingPass runs the threshold-dependent stages over the lexically
// scored working set: BM25 filter, top-K cut, neural scoring, domain
// filter, relevance sort, quality filter, and diversity enforcement.
// The relaxation pass re-runs it with lowered thresholds and a stage
// name prefix.
func (f *Funnel) rankingPass(ctx context.Context, logger *slog.Logger, working []types.ScoredCandidate, profile types.QueryProfile, prefix string, result *types.FunnelResult) ([]types.ScoredCandidate, error) {
	cands := filterByBM25(working, profile.BM25Threshold())
	recordStage(result, logger, prefix+StageBM25Filter, len(cands))

	cands = topKByBM25(cands, profile.TopK)
	recordStage(result, logger, prefix+StageTopK, len(cands))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("funnel canceled after %s: %w", prefix+StageTopK, err)
	}

	switch {
	case len(cands) == 0:
		// Nothing to embed.
	case f.embedder == nil:
		warn(result, logger, "neural scoring skipped: no embedder configured")
	case strings.TrimSpace(profile.Query) == "":
		warn(result, logger, "neural scoring skipped: empty query")
	default:
		neural, err := scoreNeural(ctx, cands, profile.Query, f.embedder)
		if err != nil {
			warn(result, logger, fmt.Sprintf("neural scoring failed, ranking on lexical scores: %v", err))
		} else {
			cands = neural
		}
	}
	recordStage(result, logger, prefix+StageNeuralScored, len(cands))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("funnel canceled after %s: %w", prefix+StageNeuralScored, err)
	}

	cands = filterByDomainAspect(cands, profile, f.metrics)
	recordStage(result, logger, prefix+StageDomainAspect, len(cands))

	cands = sortByRelevance(annotateRelevance(cands, f.cfg))
	recordStage(result, logger, prefix+StageRelevanceSorted, len(cands))

	cands = filterByQuality(cands, profile.QualityThreshold)
	recordStage(result, logger, prefix+StageQualityFilter, len(cands))

	cands = enforceDiversity(cands, profile, f.cfg.MaxSharePerSource)
	recordStage(result, logger, prefix+StageDiversity, len(cands))

	return cands, nil
}

// flatten merges the per-source candidate lists into one working
// collection, preserving source order.
func flatten(sourceCandidates [][]types.Candidate) []types.ScoredCandidate {
	total := 0
	for _, list := range sourceCandidates {
		total += len(list)
	}
	out := make([]types.ScoredCandidate, 0, total)
	for _, list := range sourceCandidates {
		for _, c := range list {
			out = append(out, types.ScoredCandidate{Candidate: c})
		}
	}
	return out
}

// filterStructural drops candidates that cannot be ranked: without a
// title and an abstract there is nothing for the lexical or neural
// scorers to work with.
func filterStructural(cands []types.ScoredCandidate) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Abstract) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func recordStage(result *types.FunnelResult, logger *slog.Logger, stage string, count int) {
	result.Stages = append(result.Stages, types.StageCount{Stage: stage, Count: count})
	logger.Debug("funnel stage", slog.String("stage", stage), slog.Int("count", count))
}

func warn(result *types.FunnelResult, logger *slog.Logger, msg string) {
	result.Warnings = append(result.Warnings, msg)
	logger.Warn(msg)
}
