package findings

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vsecure-io/vsecure/internal/git"
	"github.com/vsecure-io/vsecure/pkg/shared/files"
)

// SavedResults is the on-disk form of one analysis run, reloaded by later
// commands so they aggregate against the same raw input.
type SavedResults struct {
	RunID     string      `json:"run_id"`
	Root      string      `json:"root"`
	CreatedAt time.Time   `json:"created_at"`
	Results   ToolResults `json:"results"`

	// Repository is the version control state of Root, when it is a work tree.
	Repository *git.Metadata `json:"repository,omitempty"`

	// Stale lists files rewritten by a whole-file fix since the run.
	Stale []string `json:"stale,omitempty"`
}

// SaveResults writes results as indented JSON to path.
func SaveResults(path string, results SavedResults) error {
	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling the results: %w", err)
	}
	if err := files.WriteJsonFile(path, data); err != nil {
		return fmt.Errorf("error writing results to %q: %w", path, err)
	}
	return nil
}

// LoadResults reads results previously written by SaveResults.
func LoadResults(path string) (*SavedResults, error) {
	if err := files.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results %q: %w", path, err)
	}

	var results SavedResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results %q: %w", path, err)
	}
	if results.Results == nil {
		results.Results = ToolResults{}
	}
	return &results, nil
}
