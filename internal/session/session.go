// Package session holds the state of one remediation workflow: the current
// aggregation result, the staleness ledger and the collaborators that act on
// them. Calls must be serialized by the caller.
package session

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/vsecure-io/vsecure/internal/aggregator"
	"github.com/vsecure-io/vsecure/internal/analyzer"
	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/internal/patch"
	"github.com/vsecure-io/vsecure/internal/staleness"
	"github.com/vsecure-io/vsecure/internal/workspace"
	"github.com/vsecure-io/vsecure/pkg/shared/errors"
)

// Analyzer submits a workspace archive for analysis.
type Analyzer interface {
	Submit(ctx context.Context, archive []byte, flags analyzer.Flags, credential string) (findings.ToolResults, error)
}

// Fixer produces a replacement for one line of code.
type Fixer interface {
	RequestFix(ctx context.Context, message, code, credential string) (string, error)
}

// Session is the explicit owner of workflow state.
type Session struct {
	ws         *workspace.Workspace
	aggregator *aggregator.Aggregator
	planner    *patch.Planner
	applicator *patch.Applicator
	tracker    *staleness.Tracker
	logger     hclog.Logger

	raw    findings.ToolResults
	result *aggregator.Result
}

// New creates an empty session over ws.
func New(ws *workspace.Workspace, logger hclog.Logger) *Session {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	tracker := staleness.NewTracker()
	return &Session{
		ws:         ws,
		aggregator: aggregator.New(ws, logger.Named("aggregator")),
		planner:    patch.NewPlanner(ws),
		applicator: patch.NewApplicator(ws, tracker, logger.Named("applicator")),
		tracker:    tracker,
		logger:     logger,
		raw:        findings.ToolResults{},
		result:     &aggregator.Result{},
	}
}

// Workspace returns the workspace the session edits.
func (s *Session) Workspace() *workspace.Workspace {
	return s.ws
}

// Load replaces the current findings with a fresh aggregation of results.
// Every staleness flag is cleared since the new findings describe current
// content.
func (s *Session) Load(results findings.ToolResults) *aggregator.Result {
	if results == nil {
		results = findings.ToolResults{}
	}
	s.raw = results
	s.result = s.aggregator.Aggregate(results)
	s.tracker.Reset()
	return s.result
}

// Restore marks files as stale without re-aggregating. It is used when a
// saved run is reloaded after whole-file fixes were applied to it.
func (s *Session) Restore(stale []string) {
	for _, f := range stale {
		s.tracker.MarkStale(f)
	}
}

// Analyze submits archive to a and loads the returned results. On failure the
// previous findings are kept unchanged.
func (s *Session) Analyze(ctx context.Context, a Analyzer, archive []byte, flags analyzer.Flags, credential string) (*aggregator.Result, error) {
	results, err := a.Submit(ctx, archive, flags, credential)
	if err != nil {
		s.logger.Error("analysis failed, keeping previous findings", "error", err)
		if errors.Kind(err) != errors.ErrAnalysisUnavailable {
			err = errors.NewAnalysisUnavailableError("%w", err)
		}
		return nil, err
	}
	return s.Load(results), nil
}

// Result returns the current aggregation result.
func (s *Session) Result() *aggregator.Result {
	return s.result
}

// Raw returns the raw records the current result was built from.
func (s *Session) Raw() findings.ToolResults {
	return s.raw
}

// IsStale reports whether filePath was rewritten by a whole-file fix.
func (s *Session) IsStale(filePath string) bool {
	return s.tracker.IsStale(filePath)
}

// StaleFiles returns every stale file in lexical order.
func (s *Session) StaleFiles() []string {
	return s.tracker.Files()
}

// Plan computes the target for f, refusing findings on stale files.
func (s *Session) Plan(f findings.Finding, origin findings.Origin) (patch.Target, error) {
	if s.tracker.IsStale(f.FilePath) {
		return patch.Target{}, errors.NewFixError(errors.ErrStaleFinding, f.FilePath, f.Line, nil)
	}
	return s.planner.Plan(f, origin)
}

// Apply plans f with origin and applies it after confirmation.
func (s *Session) Apply(ctx context.Context, f findings.Finding, origin findings.Origin, confirm patch.ConfirmFunc) (patch.Outcome, error) {
	target, err := s.Plan(f, origin)
	if err != nil {
		return patch.Declined, err
	}
	return s.applicator.Apply(ctx, target, confirm)
}

// Suggest asks fx for a line-level remediation of f and records it on the
// matching finding of the current result. The updated finding is returned.
func (s *Session) Suggest(ctx context.Context, fx Fixer, f findings.Finding, credential string) (findings.Finding, error) {
	if s.tracker.IsStale(f.FilePath) {
		return f, errors.NewFixError(errors.ErrStaleFinding, f.FilePath, f.Line, nil)
	}

	code := f.SourceSnippet
	if code == "" {
		line, err := s.ws.ReadLine(f.FilePath, f.Line)
		if err != nil {
			return f, err
		}
		code = line
	}

	fixed, err := fx.RequestFix(ctx, f.Message, code, credential)
	if err != nil {
		return f, err
	}
	if fixed == "" {
		return f, errors.NewFixError(errors.ErrNoFixAvailable, f.FilePath, f.Line, fmt.Errorf("empty suggestion"))
	}

	f.Remediation = &findings.Remediation{Explanation: f.Message, FixedCode: fixed}
	for i := range s.result.Findings {
		cur := &s.result.Findings[i]
		if cur.FilePath == f.FilePath && cur.Line == f.Line && cur.Message == f.Message && cur.ToolID == f.ToolID {
			cur.Remediation = f.Remediation
		}
	}
	s.logger.Debug("suggestion attached", "file", f.FilePath, "line", f.Line)
	return f, nil
}
