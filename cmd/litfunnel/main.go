// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litfunnel CLI. litfunnel
// searches scholarly sources and ranks the merged results through a
// staged relevance funnel.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litfunnel/internal/config"
	"github.com/pdiddy/litfunnel/internal/secrets"
	"github.com/pdiddy/litfunnel/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is swapped for a real stderr handler in PersistentPreRunE once
// the verbosity flag is known. Commands and the packages they call share it.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// rootCmd is the base command for the litfunnel CLI.
var rootCmd = &cobra.Command{
	Use:   "litfunnel",
	Short: "Multi-source literature search and ranking funnel",
	Long: `litfunnel queries scholarly search APIs (OpenAlex, Crossref, Semantic
Scholar, arXiv), deduplicates the merged candidates, and ranks them through
a staged funnel: lexical BM25 scoring, optional neural embedding scoring,
journal quality filtering, and per-source diversity enforcement.

Run a search with "litfunnel search", manage the journal metrics database
with "litfunnel metrics", or expose the funnel over HTTP with
"litfunnel serve".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		logger = newLogger(cmd, level)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litfunnel.yaml or ~/.config/litfunnel/litfunnel.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "log output format: text or json")
}

// newLogger builds the stderr logger in the format the --log-format flag
// selects.
func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format, _ := cmd.Flags().GetString("log-format"); format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig reads the layered configuration and fills credentials from
// loaded secrets where the file and environment left them empty.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, used, err := config.Load(cfgFile)
	if err != nil {
		return types.Config{}, err
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	applySecrets(&cfg)
	return cfg, nil
}

func applySecrets(cfg *types.Config) {
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = secrets.Resolve(loadedSecrets, "openai-api-key")
	}
	if cfg.Sources.SemanticScholarAPIKey == "" {
		cfg.Sources.SemanticScholarAPIKey = secrets.Resolve(loadedSecrets, "semantic-scholar-api-key")
	}
	if cfg.Sources.OpenAlexEmail == "" {
		cfg.Sources.OpenAlexEmail = secrets.Resolve(loadedSecrets, "openalex-email")
	}
	if cfg.Sources.CrossrefMailto == "" {
		cfg.Sources.CrossrefMailto = secrets.Resolve(loadedSecrets, "crossref-mailto")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
