// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report <project>",
	Short: "Render the HTML report for a project",
	Long: `Report renders the overview page and one detail page per paper into the
project's reports directory. When llm_response.json is present its text
fills the analysis sections; otherwise the pages carry placeholders and
the report can be regenerated after the response is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	proc, err := newProcessor()
	if err != nil {
		return err
	}
	defer proc.Close()

	path, err := resolveProject(proc, args[0])
	if err != nil {
		return err
	}
	result := proc.RunStep(cmd.Context(), path, pipeline.LastStep)
	return reportResults([]types.StepResult{result})
}
