// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Project status values persisted in project_summary.json besides the
// per-stage "stepN_completed" markers.
const (
	StatusInProgress = "in_progress"
	StatusError      = "error"
)

// StepError is the CurrentStep value recorded when a stage fails.
const StepError = -1

// ProjectSummary is the persisted status record for a project directory.
// CurrentStep is the highest completed stage number, 0 before stage 1
// finishes, or StepError after a failure.
type ProjectSummary struct {
	SearchQuery string    `json:"search_query"`
	Status      string    `json:"status"`
	CurrentStep int       `json:"current_step"`
	CreatedTime time.Time `json:"created_time"`
	LastUpdated time.Time `json:"last_updated"`
}

// ProjectInfo describes one project directory as listed by the store.
type ProjectInfo struct {
	// Name is the directory name under the output dir.
	Name string `json:"name"`

	// Path is the absolute project path.
	Path string `json:"path"`

	Summary ProjectSummary `json:"summary"`

	// ModTime is the directory modification time used for listing order.
	ModTime time.Time `json:"mod_time"`
}
