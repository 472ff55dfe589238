// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect <project>",
	Short: "Generate the per-paper and overview prompts",
	Long: `Collect runs the prompt stages on an existing project: one analysis
prompt per paper, then the merged overview prompt. Both require the
paper details stage to have completed. The overview prompt is written to
step5_overview/merged_prompt.txt; feed it to your language model and
save the response as step5_overview/llm_response.json before generating
the report.`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	proc, err := newProcessor()
	if err != nil {
		return err
	}
	defer proc.Close()

	path, err := resolveProject(proc, args[0])
	if err != nil {
		return err
	}
	return reportResults(proc.RunSteps(cmd.Context(), path, 4, 5))
}
