// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package funnel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// ReportFile is the on-disk representation of one funnel run. The
// researcher can save a run to a file and export or inspect it later
// without re-querying sources.
type ReportFile struct {
	FunnelID                string                  `yaml:"funnel_id"`
	Profile                 types.QueryProfile      `yaml:"profile"`
	Relaxed                 bool                    `yaml:"relaxed"`
	AppliedBM25Multiplier   float64                 `yaml:"applied_bm25_multiplier"`
	AppliedQualityThreshold float64                 `yaml:"applied_quality_threshold"`
	Stages                  []types.StageCount      `yaml:"stages"`
	RawBySource             map[string]int          `yaml:"raw_by_source"`
	FinalBySource           map[string]int          `yaml:"final_by_source"`
	Warnings                []string                `yaml:"warnings,omitempty"`
	Results                 []types.ScoredCandidate `yaml:"results"`
	Timestamp               time.Time               `yaml:"timestamp"`
}

// WriteReport saves a funnel result to a YAML file.
func WriteReport(path string, result types.FunnelResult) error {
	rf := ReportFile{
		FunnelID:                result.FunnelID,
		Profile:                 result.Profile,
		Relaxed:                 result.Relaxed,
		AppliedBM25Multiplier:   result.AppliedBM25Multiplier,
		AppliedQualityThreshold: result.AppliedQualityThreshold,
		Stages:                  result.Stages,
		RawBySource:             result.RawBySource,
		FinalBySource:           result.FinalBySource,
		Warnings:                result.Warnings,
		Results:                 result.Results,
		Timestamp:               time.Now(),
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling funnel report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously saved funnel report from disk.
func ReadReport(path string) (*ReportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading funnel report: %w", err)
	}
	var rf ReportFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing funnel report: %w", err)
	}
	return &rf, nil
}

// ToResult converts a loaded report back into a FunnelResult so the
// formatters below work on saved runs too.
func (rf *ReportFile) ToResult() types.FunnelResult {
	return types.FunnelResult{
		FunnelID:                rf.FunnelID,
		Profile:                 rf.Profile,
		Results:                 rf.Results,
		Stages:                  rf.Stages,
		RawBySource:             rf.RawBySource,
		FinalBySource:           rf.FinalBySource,
		Relaxed:                 rf.Relaxed,
		AppliedBM25Multiplier:   rf.AppliedBM25Multiplier,
		AppliedQualityThreshold: rf.AppliedQualityThreshold,
		Warnings:                rf.Warnings,
	}
}

// FormatTable writes the final results as a human-readable table to w.
func FormatTable(result types.FunnelResult, w io.Writer) {
	if len(result.Results) == 0 {
		fmt.Fprintln(w, "No results passed the funnel.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-55s  %-20s  %-4s  %-5s  %-5s  %s\n",
		"Rank", "Title", "Authors", "Year", "Qual", "Rel", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, c := range result.Results {
		title := c.Title
		if len(title) > 55 {
			title = title[:52] + "..."
		}
		year := ""
		if c.Year != 0 {
			year = fmt.Sprintf("%d", c.Year)
		}
		fmt.Fprintf(w, "%-4d  %-55s  %-20s  %-4s  %-5.0f  %-5.2f  %s\n",
			i+1, title, formatAuthorList(c.Authors), year, c.QualityScore, c.Relevance, c.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(result.Results))
	if collected := result.StageCount(StageCollected); collected > len(result.Results) {
		fmt.Fprintf(w, " (from %d collected)", collected)
	}
	if result.Relaxed {
		fmt.Fprintf(w, ", thresholds relaxed")
	}
	fmt.Fprintln(w)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

// FormatStages writes the per-stage counts to w so the researcher can see
// where candidates were eliminated.
func FormatStages(result types.FunnelResult, w io.Writer) {
	fmt.Fprintf(w, "%-28s  %s\n", "Stage", "Count")
	fmt.Fprintln(w, strings.Repeat("-", 36))
	for _, s := range result.Stages {
		fmt.Fprintf(w, "%-28s  %d\n", s.Stage, s.Count)
	}
}

// FormatJSON writes the complete funnel result, stage counts included, as
// indented JSON to w.
func FormatJSON(result types.FunnelResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func formatAuthorList(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
