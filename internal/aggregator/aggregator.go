// Package aggregator merges raw tool output into the canonical finding set.
package aggregator

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/pkg/shared/errors"
)

// Source resolves finding paths and reads live source lines.
type Source interface {
	Relative(path string) string
	ReadLine(path string, line int) (string, error)
}

// DroppedRecord describes a raw record that could not be positioned.
type DroppedRecord struct {
	Channel string
	Index   int
	Err     error
}

// Result is the outcome of one aggregation pass.
type Result struct {
	RunID      string
	Findings   []findings.Finding
	Candidates []findings.Finding
	Dropped    []DroppedRecord
}

// Groups returns the findings grouped by file.
func (r *Result) Groups() []findings.Group {
	return findings.GroupByFile(r.Findings)
}

// Files returns the distinct files with at least one finding, in aggregation order.
func (r *Result) Files() []string {
	groups := r.Groups()
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.FilePath)
	}
	return out
}

// Aggregator turns ToolResults into findings with source context attached.
type Aggregator struct {
	source Source
	logger hclog.Logger
}

// New creates an Aggregator reading snippets from source. A nil source skips
// snippet extraction.
func New(source Source, logger hclog.Logger) *Aggregator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Aggregator{source: source, logger: logger}
}

// Aggregate concatenates every channel in findings.ToolResults.Channels order,
// keeping each channel's internal order. Records without a file path are
// dropped and reported in Result.Dropped; the rest of the pass continues.
func (a *Aggregator) Aggregate(results findings.ToolResults) *Result {
	res := &Result{
		RunID:    uuid.NewString(),
		Findings: make([]findings.Finding, 0, results.Len()),
	}

	for _, channel := range results.Channels() {
		for i, rec := range results[channel] {
			f, err := a.normalize(channel, rec)
			if err != nil {
				a.logger.Warn("dropping record", "channel", channel, "index", i, "error", err)
				res.Dropped = append(res.Dropped, DroppedRecord{Channel: channel, Index: i, Err: err})
				continue
			}
			res.Findings = append(res.Findings, f)
		}
	}
	res.Candidates = Candidates(res.Findings)

	a.logger.Debug("aggregation completed",
		"run", res.RunID,
		"findings", len(res.Findings),
		"candidates", len(res.Candidates),
		"dropped", len(res.Dropped),
	)
	return res
}

func (a *Aggregator) normalize(channel string, rec findings.RawRecord) (findings.Finding, error) {
	file := strings.TrimSpace(rec.FilePath)
	if file == "" {
		return findings.Finding{}, errors.NewFixError(errors.ErrMalformedRecord, "", 0,
			fmt.Errorf("%s record has no filePath", channel))
	}

	tool := rec.Tool
	if tool == "" {
		tool = channel
	}
	line := rec.Line
	if line < 1 {
		line = 1
	}

	f := findings.Finding{
		ToolID:   tool,
		RuleID:   rec.RuleID,
		FilePath: path.Clean(filepath.ToSlash(file)),
		Line:     line,
		Message:  rec.Message,
	}
	if rec.Recommendation != nil {
		r := *rec.Recommendation
		f.Remediation = &r
	}

	if a.source != nil {
		f.FilePath = a.source.Relative(file)
		snippet, err := a.source.ReadLine(f.FilePath, line)
		if err != nil {
			a.logger.Trace("source line unavailable", "file", f.FilePath, "line", line, "error", err)
		} else {
			f.SourceSnippet = snippet
		}
	}
	return f, nil
}

// Candidates keeps the first actionable finding of every file, in order.
func Candidates(list []findings.Finding) []findings.Finding {
	seen := make(map[string]bool)
	var out []findings.Finding
	for _, f := range list {
		if !f.IsWholeFileCandidate() || seen[f.FilePath] {
			continue
		}
		seen[f.FilePath] = true
		out = append(out, f)
	}
	return out
}
