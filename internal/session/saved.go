package session

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/internal/workspace"
)

// Open reloads the run saved at path: the raw records are aggregated again
// against the saved root and files marked stale since then stay stale.
func Open(path string, logger hclog.Logger) (*Session, *findings.SavedResults, error) {
	saved, err := findings.LoadResults(path)
	if err != nil {
		return nil, nil, err
	}
	ws, err := workspace.New(saved.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis root of %q is unavailable: %w", path, err)
	}

	s := New(ws, logger)
	res := s.Load(saved.Results)
	if saved.RunID != "" {
		res.RunID = saved.RunID
	}
	s.Restore(saved.Stale)
	return s, saved, nil
}

// Save writes saved back to path with the current stale files.
func (s *Session) Save(path string, saved *findings.SavedResults) error {
	saved.Stale = s.StaleFiles()
	return findings.SaveResults(path, *saved)
}
