package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litfunnel/internal/funnel"
)

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Render a saved funnel report",
	Long: `Report loads a funnel report saved with "litfunnel search --save" and
renders it without re-querying sources. Output options mirror the search
command: table by default, --json for the full result, --stages for the
funnel counts, --csl for a bibliography export.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("report file required")
	}

	rf, err := funnel.ReadReport(args[0])
	if err != nil {
		return err
	}
	result := rf.ToResult()

	if cslPath, _ := cmd.Flags().GetString("csl"); cslPath != "" {
		if err := writeCSL(cslPath, result); err != nil {
			return err
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return funnel.FormatJSON(result, os.Stdout)
	}

	fmt.Fprintf(os.Stdout, "Query %q, saved %s\n\n", rf.Profile.Query, rf.Timestamp.Format("2006-01-02 15:04"))
	funnel.FormatTable(result, os.Stdout)
	if stages, _ := cmd.Flags().GetBool("stages"); stages {
		fmt.Println()
		funnel.FormatStages(result, os.Stdout)
	}
	return nil
}

func init() {
	reportCmd.Flags().Bool("json", false, "output the full result as JSON")
	reportCmd.Flags().Bool("stages", false, "print per-stage funnel counts after the table")
	reportCmd.Flags().String("csl", "", "write a CSL-YAML bibliography to a file (\"-\" for stdout)")

	rootCmd.AddCommand(reportCmd)
}
