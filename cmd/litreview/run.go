// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/pkg/types"
)

// newProcessor builds a pipeline processor from the merged configuration.
// Callers must Close it.
func newProcessor() (*pipeline.Processor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.NewProcessor(cfg, newLogger(cfg))
}

// resolveProject maps a project name or path argument to its directory.
func resolveProject(proc *pipeline.Processor, nameOrPath string) (string, error) {
	path, err := proc.Store().Resolve(nameOrPath)
	if err != nil {
		return "", fmt.Errorf("project %q: %w", nameOrPath, err)
	}
	return path, nil
}

// reportResults prints each stage outcome and returns an error if any
// stage failed, so the command exits non-zero.
func reportResults(results []types.StepResult) error {
	failed := 0
	for _, res := range results {
		if res.Success {
			fmt.Fprintln(os.Stdout, res.Message)
			continue
		}
		failed++
		fmt.Fprintf(os.Stderr, "error: %s\n", res.Error)
	}
	if failed > 0 {
		return fmt.Errorf("%d stage(s) failed", failed)
	}
	return nil
}
