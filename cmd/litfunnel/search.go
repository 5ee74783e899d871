package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litfunnel/internal/embed"
	"github.com/pdiddy/litfunnel/internal/funnel"
	"github.com/pdiddy/litfunnel/internal/metrics"
	"github.com/pdiddy/litfunnel/internal/source"
	"github.com/pdiddy/litfunnel/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search scholarly sources and rank the results",
	Long: `Search queries the enabled scholarly sources concurrently, deduplicates
the merged candidates, and ranks them through the relevance funnel. The
default output is a table of the final candidates; use --json for the full
machine-readable result or --stages for the per-stage funnel counts.

Neural scoring requires an OpenAI API key (config, OPENAI_API_KEY, or
.secrets/openai-api-key). Without one the funnel ranks on lexical scores
alone. Journal quality metrics come from the local metrics database; seed
it with "litfunnel metrics ingest".`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query required: pass it as arguments or --query")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applySearchFlags(cmd, &cfg)

	ctx := context.Background()

	sources := source.Enabled(cfg.Sources, nil)
	groups, warnings, err := source.Collect(ctx, query, sources, cfg.Sources, logger)
	if err != nil {
		return err
	}

	f, err := funnel.New(cfg.Funnel, newEmbedder(cfg.Embedding), openMetricsLookup(cfg.Metrics), logger)
	if err != nil {
		return err
	}

	result, err := f.Run(ctx, query, groups)
	if err != nil {
		return err
	}
	result.Warnings = append(warnings, result.Warnings...)

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := funnel.WriteReport(save, result); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Report saved to", save)
	}
	if cslPath, _ := cmd.Flags().GetString("csl"); cslPath != "" {
		if err := writeCSL(cslPath, result); err != nil {
			return err
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return funnel.FormatJSON(result, os.Stdout)
	}

	funnel.FormatTable(result, os.Stdout)
	if stages, _ := cmd.Flags().GetBool("stages"); stages {
		fmt.Println()
		funnel.FormatStages(result, os.Stdout)
	}
	return nil
}

// applySearchFlags overlays command-line overrides on the loaded config.
func applySearchFlags(cmd *cobra.Command, cfg *types.Config) {
	if v, _ := cmd.Flags().GetInt("max-per-source"); v > 0 {
		cfg.Sources.MaxPerSource = v
	}
	if v, _ := cmd.Flags().GetInt("target"); v > 0 {
		cfg.Funnel.TargetFinalCount = v
		// Keep the acceptability floor below a lowered target.
		if cfg.Funnel.MinAcceptableCount > v {
			cfg.Funnel.MinAcceptableCount = v
		}
	}
}

// openMetricsLookup loads the journal metrics snapshot. Metrics are
// optional: any failure degrades quality scoring to its citation fallback
// instead of blocking the search.
func openMetricsLookup(cfg types.MetricsConfig) funnel.MetricsLookup {
	store, err := metrics.NewStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: journal metrics unavailable: %v\n", err)
		return nil
	}
	defer store.Close()

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: journal metrics unavailable: %v\n", err)
		return nil
	}
	if snap.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Journal metrics database is empty; run 'litfunnel metrics ingest' to enable prestige scoring.")
		return nil
	}
	return snap
}

// newEmbedder builds the embedding client, or returns nil when no API key
// is configured so the funnel ranks on lexical scores alone.
func newEmbedder(cfg types.EmbeddingConfig) funnel.Embedder {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "No OpenAI API key configured; neural scoring disabled.")
		return nil
	}
	client, err := embed.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedding client unavailable: %v\n", err)
		return nil
	}
	return client
}

func writeCSL(path string, result types.FunnelResult) error {
	if path == "-" {
		return funnel.FormatCSL(result, os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSL file: %w", err)
	}
	defer f.Close()
	if err := funnel.FormatCSL(result, f); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "CSL bibliography written to", path)
	return nil
}

func init() {
	searchCmd.Flags().String("query", "", "search query (alternative to positional arguments)")
	searchCmd.Flags().Int("max-per-source", 0, "maximum results per source (0 = use config)")
	searchCmd.Flags().Int("target", 0, "target final candidate count (0 = use config)")
	searchCmd.Flags().Bool("json", false, "output the full result as JSON")
	searchCmd.Flags().Bool("stages", false, "print per-stage funnel counts after the table")
	searchCmd.Flags().String("save", "", "write the full result to a YAML report file")
	searchCmd.Flags().String("csl", "", "write a CSL-YAML bibliography to a file (\"-\" for stdout)")

	rootCmd.AddCommand(searchCmd)
}
