// Package git reads version control metadata of an analysis root.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// StateDir holds saved runs below an analysis root and is not part of the
// work tree state.
const StateDir = ".vsecure"

// ErrNotRepository is returned when the root is not inside a git work tree.
var ErrNotRepository = errors.New("source folder is not a git repository")

// Metadata describes the repository state an analysis ran against.
type Metadata struct {
	Branch     string `json:"branch,omitempty"`
	CommitHash string `json:"commit,omitempty"`
	Remote     string `json:"remote,omitempty"`
	Subfolder  string `json:"subfolder,omitempty"`
	RootFolder string `json:"root_folder"`
	Clean      bool   `json:"clean"`
}

// CollectMetadata opens the repository containing sourceFolder, walking up
// the parents, and reports its head, origin remote and work tree state.
func CollectMetadata(sourceFolder string) (*Metadata, error) {
	if sourceFolder == "" {
		return nil, fmt.Errorf("source folder is not set")
	}
	abs, err := filepath.Abs(sourceFolder)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open work tree: %w", err)
	}

	md := &Metadata{RootFolder: filepath.Clean(wt.Filesystem.Root())}
	if rel, err := filepath.Rel(md.RootFolder, abs); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
		md.CommitHash = head.Hash().String()
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			md.Remote = strings.TrimSuffix(cfg.URLs[0], ".git")
		}
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read work tree status: %w", err)
	}
	md.Clean = isClean(status)

	return md, nil
}

// isClean reports whether status has no changes outside the tool's own
// state directory.
func isClean(status git.Status) bool {
	for path, s := range status {
		if path == StateDir || strings.HasPrefix(path, StateDir+"/") || strings.Contains(path, "/"+StateDir+"/") {
			continue
		}
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			return false
		}
	}
	return true
}
