// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/pkg/types"
)

var stepCmd = &cobra.Command{
	Use:   "step <project> <stage>",
	Short: "Run a single pipeline stage on an existing project",
	Long: `Step runs one stage (1-6) of the pipeline on an existing project. Stages
past the first require the previous stage's persisted results, so a
project resumes from wherever it last stopped. Re-running a completed
stage overwrites its results.

Stages: 1 search, 2 details, 3 figures, 4 prompts, 5 overview, 6 report.`,
	Args: cobra.ExactArgs(2),
	RunE: runStep,
}

func init() {
	stepCmd.Flags().Int("through", 0, "also run every following stage up to this one")

	rootCmd.AddCommand(stepCmd)
}

func runStep(cmd *cobra.Command, args []string) error {
	step, err := strconv.Atoi(args[1])
	if err != nil || step < pipeline.FirstStep || step > pipeline.LastStep {
		return fmt.Errorf("stage must be a number between %d and %d", pipeline.FirstStep, pipeline.LastStep)
	}

	proc, err := newProcessor()
	if err != nil {
		return err
	}
	defer proc.Close()

	path, err := resolveProject(proc, args[0])
	if err != nil {
		return err
	}

	through, _ := cmd.Flags().GetInt("through")
	var results []types.StepResult
	if through > step {
		if through > pipeline.LastStep {
			return fmt.Errorf("--through must be at most %d", pipeline.LastStep)
		}
		results = proc.RunSteps(cmd.Context(), path, step, through)
	} else {
		results = []types.StepResult{proc.RunStep(cmd.Context(), path, step)}
	}
	return reportResults(results)
}
