// Package staleness records files whose line numbers were invalidated by a
// whole-file fix.
package staleness

import "sort"

// Tracker is a per-file stale flag ledger. It is owned by one workflow and is
// not safe for concurrent use; fix requests are serialized by the caller.
type Tracker struct {
	stale map[string]bool
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{stale: make(map[string]bool)}
}

// MarkStale flags filePath as requiring re-analysis.
func (t *Tracker) MarkStale(filePath string) {
	t.stale[filePath] = true
}

// IsStale reports whether filePath was flagged since the last reset.
func (t *Tracker) IsStale(filePath string) bool {
	return t.stale[filePath]
}

// Clear removes the flag for filePath.
func (t *Tracker) Clear(filePath string) {
	delete(t.stale, filePath)
}

// Reset clears every flag. Called when a new analysis run supersedes the
// previous one.
func (t *Tracker) Reset() {
	t.stale = make(map[string]bool)
}

// Files returns the flagged files sorted by path.
func (t *Tracker) Files() []string {
	out := make([]string, 0, len(t.stale))
	for f := range t.stale {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
