// Package patch plans and applies single-patch fixes to source files.
package patch

import (
	"fmt"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/pkg/shared/errors"
)

// Target is one planned edit: replace the 0-based half-open line range
// [Start, End) of FilePath with ReplacementText.
type Target struct {
	FilePath        string
	Origin          findings.Origin
	Line            int
	Start           int
	End             int
	ReplacementText string
}

// LineCounter reports the current number of lines of a file.
type LineCounter interface {
	LineCount(path string) (int, error)
}

// Planner computes targets. It reads current file state but never writes.
type Planner struct {
	counter LineCounter
}

// NewPlanner returns a Planner that sizes whole-file targets with counter.
func NewPlanner(counter LineCounter) *Planner {
	return &Planner{counter: counter}
}

// Plan builds the target for applying f's remediation with the given origin.
// The origin must be chosen by the caller; a finding does not say whether its
// fixed code covers a line or the whole file.
func (p *Planner) Plan(f findings.Finding, origin findings.Origin) (Target, error) {
	code := f.FixedCode()
	if code == "" {
		return Target{}, errors.NewFixError(errors.ErrNoFixAvailable, f.FilePath, f.Line, nil)
	}

	target := Target{
		FilePath:        f.FilePath,
		Origin:          origin,
		Line:            f.Line,
		ReplacementText: code + "\n",
	}

	switch origin {
	case findings.LineLevel:
		target.Start = max(0, f.Line-1)
		target.End = target.Start + 1
	case findings.WholeFile:
		// the file may have changed since the finding was produced
		count, err := p.counter.LineCount(f.FilePath)
		if err != nil {
			return Target{}, err
		}
		target.Start = 0
		target.End = count
	default:
		return Target{}, fmt.Errorf("unsupported fix origin %d", origin)
	}

	return target, nil
}
