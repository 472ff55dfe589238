// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Start a project and search PubMed",
	Long: `Search creates a new project directory for the query and runs the PubMed
search stage. With --all the remaining stages run too, stopping at the
first failure. An empty result set is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of papers to retrieve")
	searchCmd.Flags().Bool("all", false, "run all remaining stages after the search")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if max, _ := cmd.Flags().GetInt("max-results"); max > 0 {
		cfg.MaxResults = max
	}

	proc, err := pipeline.NewProcessor(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer proc.Close()

	path, result := proc.StartProject(cmd.Context(), args[0])
	if path != "" {
		fmt.Printf("project: %s\n", filepath.Base(path))
	}

	results := []types.StepResult{result}
	runAll, _ := cmd.Flags().GetBool("all")
	if result.Success && runAll {
		results = append(results, proc.RunSteps(cmd.Context(), path, 2, pipeline.LastStep)...)
	}
	return reportResults(results)
}
