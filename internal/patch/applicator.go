package patch

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/vsecure-io/vsecure/internal/findings"
)

// Outcome is the result of an apply request that did not fail.
type Outcome int

const (
	// Declined means the user refused and the file was left untouched.
	Declined Outcome = iota
	// Applied means the replacement was written.
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "declined"
}

// ConfirmFunc asks the user to approve prompt.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Editor performs a single line range replacement on a file.
type Editor interface {
	ReplaceLines(path string, start, end int, text string) error
}

// Invalidator is told about files whose line numbers no longer hold.
type Invalidator interface {
	MarkStale(path string)
}

// Applicator executes targets after confirmation.
type Applicator struct {
	editor      Editor
	invalidator Invalidator
	logger      hclog.Logger
}

// NewApplicator returns an Applicator writing through editor and reporting
// whole-file replacements to invalidator.
func NewApplicator(editor Editor, invalidator Invalidator, logger hclog.Logger) *Applicator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Applicator{editor: editor, invalidator: invalidator, logger: logger}
}

// Prompt returns the confirmation question for target.
func Prompt(target Target) string {
	if target.Origin == findings.WholeFile {
		return fmt.Sprintf("This fix will replace the entire file %s and may invalidate other findings in it. Continue?", target.FilePath)
	}
	return fmt.Sprintf("Apply fix for line %d of %s?", target.Line, target.FilePath)
}

// Apply asks confirm and, on approval, writes target as one edit. Anything
// other than approval leaves the file unchanged.
func (a *Applicator) Apply(ctx context.Context, target Target, confirm ConfirmFunc) (Outcome, error) {
	ok, err := confirm(ctx, Prompt(target))
	if err != nil {
		return Declined, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		a.logger.Debug("fix declined", "file", target.FilePath, "origin", target.Origin)
		return Declined, nil
	}
	if err := ctx.Err(); err != nil {
		return Declined, err
	}

	if err := a.editor.ReplaceLines(target.FilePath, target.Start, target.End, target.ReplacementText); err != nil {
		a.logger.Error("failed to apply fix", "file", target.FilePath, "error", err)
		return Declined, err
	}

	if target.Origin == findings.WholeFile && a.invalidator != nil {
		a.invalidator.MarkStale(target.FilePath)
	}
	a.logger.Info("fix applied", "file", target.FilePath, "origin", target.Origin, "start", target.Start, "end", target.End)
	return Applied, nil
}
