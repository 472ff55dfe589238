// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/project"
)

var statusCmd = &cobra.Command{
	Use:   "status <project>",
	Short: "Show a project's pipeline status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// artifactFiles lists each stage's persisted result file in order.
var artifactFiles = []struct {
	Stage int
	Name  string
	File  string
}{
	{1, "search", project.SearchFile},
	{2, "details", project.DetailsFile},
	{3, "figures", project.FiguresFile},
	{4, "prompts", project.PromptsFile},
	{5, "overview", project.OverviewFile},
	{6, "report", project.ReportFile},
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := project.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}
	path, err := store.Resolve(args[0])
	if err != nil {
		return fmt.Errorf("project %q: %w", args[0], err)
	}
	summary, err := store.ReadSummary(path)
	if err != nil {
		return fmt.Errorf("read project status: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("project:  %s\n", filepath.Base(path))
	fmt.Printf("query:    %s\n", summary.SearchQuery)
	fmt.Printf("status:   %s\n", summary.Status)
	fmt.Printf("step:     %d\n", summary.CurrentStep)
	fmt.Printf("updated:  %s\n", summary.LastUpdated.Format("2006-01-02 15:04:05"))
	fmt.Println("stages:")
	for _, af := range artifactFiles {
		mark := " "
		if store.HasArtifact(path, af.File) {
			mark = "x"
		}
		fmt.Printf("  [%s] %d %s\n", mark, af.Stage, af.Name)
	}
	return nil
}
