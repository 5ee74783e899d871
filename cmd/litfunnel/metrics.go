// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litfunnel/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Manage the journal metrics database (ingest, lookup, search)",
	Long: `Metrics manages the local SQLite database of journal quality metrics
(impact factor, h-index, quartile) that the funnel uses for prestige
scoring. Use subcommands to ingest seed files, look up a venue, or search
the recorded venues.`,
}

// --- ingest subcommand ---

var metricsIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest journal metrics seed files into the database",
	Long: `Ingest reads seed YAML files from the seed directory and upserts their
journal entries into the metrics database. Unchanged files are skipped on
subsequent runs.`,
	RunE: runMetricsIngest,
}

func runMetricsIngest(cmd *cobra.Command, args []string) error {
	store, err := openMetricsStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	seedDir, _ := cmd.Flags().GetString("seed-dir")
	summary, err := store.Ingest(context.Background(), seedDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d seed file(s) failed ingestion", summary.Failed)
	}
	return nil
}

// --- lookup subcommand ---

var metricsLookupCmd = &cobra.Command{
	Use:   "lookup [venue]",
	Short: "Look up the recorded metrics for one venue",
	RunE:  runMetricsLookup,
}

func runMetricsLookup(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("venue name required")
	}
	venue := strings.Join(args, " ")

	store, err := openMetricsStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	m, ok, err := store.LookupVenue(context.Background(), venue)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no metrics recorded for %q", venue)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	fmt.Printf("Venue:         %s\n", m.Venue)
	fmt.Printf("Impact factor: %.2f\n", m.ImpactFactor)
	fmt.Printf("H-index:       %d\n", m.HIndex)
	fmt.Printf("Quartile:      %s\n", m.Quartile)
	fmt.Printf("Subjects:      %s\n", strings.Join(m.Subjects, ", "))
	return nil
}

// --- search subcommand ---

var metricsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search venues recorded in the metrics database",
	RunE:  runMetricsSearch,
}

func runMetricsSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search query required")
	}
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openMetricsStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.SearchVenues(context.Background(), query, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No venues matched.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-50s  %-8s  %-8s  %-4s\n", "Venue", "Impact", "H-index", "Q")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 76))

	for _, m := range results {
		venue := m.Venue
		if len(venue) > 50 {
			venue = venue[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-50s  %-8.2f  %-8d  %-4s\n", venue, m.ImpactFactor, m.HIndex, m.Quartile)
	}

	fmt.Fprintf(os.Stdout, "\n%d venues\n", len(results))
	return nil
}

// --- shared helpers ---

func openMetricsStore(cmd *cobra.Command) (*metrics.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Metrics.DBPath = db
	}
	return metrics.NewStore(cfg.Metrics)
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	metricsCmd.PersistentFlags().String("db", "", "path to the metrics database (default: from config)")

	metricsIngestCmd.Flags().String("seed-dir", "metrics/seeds", "directory of journal metrics seed YAML files")

	metricsLookupCmd.Flags().Bool("json", false, "output the record as JSON")

	metricsSearchCmd.Flags().Int("limit", 20, "maximum number of venues to list")
	metricsSearchCmd.Flags().Bool("json", false, "output results as JSON")

	metricsCmd.AddCommand(metricsIngestCmd)
	metricsCmd.AddCommand(metricsLookupCmd)
	metricsCmd.AddCommand(metricsSearchCmd)

	rootCmd.AddCommand(metricsCmd)
}
