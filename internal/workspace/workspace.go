// Package workspace gives line-oriented access to files below one analysis root.
package workspace

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vsecure-io/vsecure/pkg/shared/errors"
	"github.com/vsecure-io/vsecure/pkg/shared/files"
)

// Workspace resolves finding paths against a single analysis root.
type Workspace struct {
	root string
}

// New returns a Workspace for root, which must be an existing directory.
func New(root string) (*Workspace, error) {
	expanded, err := files.ExpandPath(root)
	if err != nil {
		return nil, fmt.Errorf("failed to expand root %q: %w", root, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	if err := files.ValidateDir(abs); err != nil {
		return nil, err
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute analysis root.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve returns the absolute path of rel, refusing paths outside the root.
func (w *Workspace) Resolve(rel string) (string, error) {
	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(w.root, filepath.FromSlash(rel))
	}
	return files.EnsureWithinRoot(w.root, target)
}

// Relative converts p to the canonical slash separated form used as a file
// key. Absolute paths inside the root become relative; absolute paths outside
// it stay absolute.
func (w *Workspace) Relative(p string) string {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(w.root, p)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			p = rel
		}
	}
	return path.Clean(filepath.ToSlash(p))
}

// ReadLine returns the text of the 1-based line without its terminator.
func (w *Workspace) ReadLine(rel string, line int) (string, error) {
	content, err := w.read(rel)
	if err != nil {
		return "", err
	}
	segments := SplitLines(content)
	if line < 1 || line > len(segments) {
		return "", errors.NewFixError(errors.ErrIO, rel, line, fmt.Errorf("line out of range (file has %d lines)", len(segments)))
	}
	return strings.TrimRight(segments[line-1], "\r\n"), nil
}

// LineCount returns the number of lines of the current file content.
func (w *Workspace) LineCount(rel string) (int, error) {
	content, err := w.read(rel)
	if err != nil {
		return 0, err
	}
	return len(SplitLines(content)), nil
}

// ReplaceLines substitutes the 0-based half-open line range [start, end) of
// rel with text and writes the file back in one atomic replace.
func (w *Workspace) ReplaceLines(rel string, start, end int, text string) error {
	path, err := w.Resolve(rel)
	if err != nil {
		return errors.NewIOError(rel, err)
	}
	if err := files.ValidatePath(path); err != nil {
		return errors.NewIOError(rel, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIOError(rel, err)
	}

	updated := Splice(string(data), start, end, text)
	if err := files.WriteFileAtomic(path, []byte(updated)); err != nil {
		return errors.NewIOError(rel, err)
	}
	return nil
}

func (w *Workspace) read(rel string) (string, error) {
	path, err := w.Resolve(rel)
	if err != nil {
		return "", errors.NewIOError(rel, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(rel, err)
	}
	return string(data), nil
}

// SplitLines splits content into lines that keep their terminators. A trailing
// newline yields a final empty line, so the count matches what editors show.
func SplitLines(content string) []string {
	return strings.SplitAfter(content, "\n")
}

// Splice replaces the 0-based line range [start, end) of content with text.
// The range is clamped to the document.
func Splice(content string, start, end int, text string) string {
	segments := SplitLines(content)
	start = clamp(start, 0, len(segments))
	end = clamp(end, start, len(segments))

	var b strings.Builder
	b.Grow(len(content) + len(text))
	for _, s := range segments[:start] {
		b.WriteString(s)
	}
	b.WriteString(text)
	for _, s := range segments[end:] {
		b.WriteString(s)
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
