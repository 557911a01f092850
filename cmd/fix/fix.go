package fix

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/vsecure-io/vsecure/internal/analyzer"
	"github.com/vsecure-io/vsecure/internal/console"
	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/internal/patch"
	"github.com/vsecure-io/vsecure/internal/session"
	"github.com/vsecure-io/vsecure/pkg/shared/config"
	sherrors "github.com/vsecure-io/vsecure/pkg/shared/errors"
	"github.com/vsecure-io/vsecure/pkg/shared/logger"
)

// RunOptionsFix holds the arguments for the fix command.
type RunOptionsFix struct {
	ResultsPath string
	File        string
	Line        int
	Origin      string
	Yes         bool
	Suggest     bool
}

// Global variables for configuration and command arguments
var (
	AppConfig       *config.Config
	fixOptions      RunOptionsFix
	exampleFixUsage = `  # Pick findings interactively and apply their fixes
  vsecure fix

  # Apply the fix for line 12 of src/app.js without asking
  vsecure fix --file src/app.js --line 12 --yes

  # Replace a whole file with the recommended version
  vsecure fix --file src/app.js --origin file

  # Ask the service for a fix when the finding has none
  vsecure fix --file src/app.js --line 12 --suggest`
)

// FixCmd represents the fix command.
var FixCmd = &cobra.Command{
	Use:                   "fix [--results/-r PATH] [--file F [--line N]] [--origin line|file] [--yes/-y] [--suggest] [PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleFixUsage,
	Short:                 "Applies suggested fixes to the analysed workspace",
	Long: `Applies the remediation of one finding as a single confirmed edit. A line fix replaces the
line the finding points at; a file fix replaces the whole file and marks its other findings as
stale until the next analyse run.`,
	RunE: runFixCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runFixCommand executes the fix command.
func runFixCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-fix")

	resultsPath, origin, err := validateFixArgs(&fixOptions, args)
	if err != nil {
		logger.Error("invalid fix arguments", "error", err)
		return err
	}

	sess, saved, err := session.Open(resultsPath, logger)
	if err != nil {
		logger.Error("failed to load results", "path", resultsPath, "error", err)
		return err
	}

	out := console.New(cmd.OutOrStdout(), logger)
	r := &runner{
		sess:     sess,
		out:      out,
		w:        cmd.OutOrStdout(),
		fixer:    analyzer.NewClient(AppConfig, logger.Named("analyzer")),
		logger:   logger,
		suggest:  fixOptions.Suggest,
		confirm:  out.Confirm,
		origin:   origin,
		explicit: cmd.Flags().Changed("origin"),
		applied:  make(map[fixKey]bool),
	}
	if AppConfig != nil {
		r.credential = AppConfig.Analyzer.APIKey
	}
	if fixOptions.Yes {
		r.confirm = console.AssumeYes
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if fixOptions.File != "" {
		err = r.fixOne(ctx, fixOptions.File, fixOptions.Line)
	} else {
		err = r.interactive(ctx)
	}

	if saveErr := sess.Save(resultsPath, saved); saveErr != nil {
		logger.Error("failed to save results", "path", resultsPath, "error", saveErr)
		if err == nil {
			err = saveErr
		}
	}
	if err != nil {
		return sherrors.NewCommandError(err, 1)
	}
	return nil
}

// runner drives fixes against one session.
type runner struct {
	sess       *session.Session
	out        *console.Console
	w          io.Writer
	fixer      session.Fixer
	logger     hclog.Logger
	credential string
	suggest    bool
	confirm    patch.ConfirmFunc
	origin     findings.Origin
	explicit   bool
	applied    map[fixKey]bool
}

// fixKey identifies a finding within one loaded run.
type fixKey struct {
	tool, rule, file, message string
	line                      int
}

func keyOf(f findings.Finding) fixKey {
	return fixKey{tool: f.ToolID, rule: f.RuleID, file: f.FilePath, message: f.Message, line: f.Line}
}

// pending drops the findings already applied in this session.
func pending(list []findings.Finding, applied map[fixKey]bool) []findings.Finding {
	out := make([]findings.Finding, 0, len(list))
	for _, f := range list {
		if !applied[keyOf(f)] {
			out = append(out, f)
		}
	}
	return out
}

// fixOne applies the fix of the finding at file and line. line 0 picks the
// first actionable finding of the file.
func (r *runner) fixOne(ctx context.Context, file string, line int) error {
	f, ok := selectFinding(r.sess.Result().Findings, r.sess.Workspace().Relative(file), line)
	if !ok {
		if line > 0 {
			return fmt.Errorf("no finding at %s:%d", file, line)
		}
		return fmt.Errorf("no finding in %s", file)
	}
	_, err := r.apply(ctx, f, r.origin)
	return err
}

// interactive lets the user pick findings until they are done.
func (r *runner) interactive(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		list := pending(r.sess.Result().Findings, r.applied)
		if len(list) == 0 {
			fmt.Fprintln(r.w, "No findings to fix.")
			return nil
		}

		idx, err := r.out.SelectFinding(list, r.sess.IsStale)
		if errors.Is(err, console.ErrNoSelection) {
			r.logger.Debug("selection finished", "reason", err)
			return nil
		}
		if err != nil {
			return err
		}
		if idx < 0 {
			return nil
		}

		f := list[idx]
		origin := r.origin
		if !r.explicit && f.IsActionable() {
			origin, err = r.out.SelectOrigin(f)
			if errors.Is(err, console.ErrNoSelection) {
				continue
			}
			if err != nil {
				return err
			}
		}

		// failures are reported and the loop goes on
		outcome, err := r.apply(ctx, f, origin)
		if err != nil && ctx.Err() != nil {
			return err
		}
		if outcome == patch.Applied {
			r.applied[keyOf(f)] = true
		}
	}
}

// apply runs one fix and reports the outcome. Recoverable failures are
// printed with their kind and the location they concern.
func (r *runner) apply(ctx context.Context, f findings.Finding, origin findings.Origin) (patch.Outcome, error) {
	if !f.IsActionable() && r.suggest && origin == findings.LineLevel {
		var err error
		f, err = r.sess.Suggest(ctx, r.fixer, f, r.credential)
		if err != nil {
			r.report(f, err)
			return patch.Declined, err
		}
		fmt.Fprintf(r.w, "Suggested fix for %s: %s\n", f.Location(), f.FixedCode())
	}

	outcome, err := r.sess.Apply(ctx, f, origin, r.confirm)
	if err != nil {
		r.report(f, err)
		return outcome, err
	}

	switch {
	case outcome == patch.Declined:
		// declining is not an error and is not reported
	case origin == findings.WholeFile:
		fmt.Fprintf(r.w, "Replaced %s. Its other findings are stale; run 'vsecure analyse' again before fixing them.\n", f.FilePath)
	default:
		fmt.Fprintf(r.w, "Fixed %s.\n", f.Location())
	}
	return outcome, nil
}

func (r *runner) report(f findings.Finding, err error) {
	switch sherrors.Kind(err) {
	case sherrors.ErrStaleFinding:
		fmt.Fprintf(r.w, "%s is stale after a whole-file fix; run 'vsecure analyse' again.\n", f.FilePath)
	case sherrors.ErrNoFixAvailable:
		fmt.Fprintf(r.w, "No fix available for %s.\n", f.Location())
	default:
		fmt.Fprintf(r.w, "Failed to fix %s: %v\n", f.Location(), err)
	}
	r.logger.Debug("fix not applied", "file", f.FilePath, "line", f.Line, "error", err)
}

// selectFinding returns the finding at file and line, preferring actionable
// ones. line 0 matches any line of the file.
func selectFinding(list []findings.Finding, file string, line int) (findings.Finding, bool) {
	var fallback *findings.Finding
	for i := range list {
		f := list[i]
		if f.FilePath != file || (line > 0 && f.Line != line) {
			continue
		}
		if f.IsActionable() {
			return f, true
		}
		if fallback == nil {
			fallback = &list[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return findings.Finding{}, false
}

// Initialize flags for the fix command.
func init() {
	FixCmd.Flags().StringVarP(&fixOptions.ResultsPath, "results", "r", "", "Path of the results file written by analyse (default PATH/.vsecure/results.json).")
	FixCmd.Flags().StringVar(&fixOptions.File, "file", "", "Relative path of the file to fix. Without it findings are picked interactively.")
	FixCmd.Flags().IntVar(&fixOptions.Line, "line", 0, "Line of the finding to fix. Requires 'file'.")
	FixCmd.Flags().StringVar(&fixOptions.Origin, "origin", "line", "How the fix is applied: 'line' replaces the finding's line, 'file' replaces the whole file.")
	FixCmd.Flags().BoolVarP(&fixOptions.Yes, "yes", "y", false, "Apply without asking for confirmation.")
	FixCmd.Flags().BoolVar(&fixOptions.Suggest, "suggest", false, "Request a line fix from the service for findings without one.")
	FixCmd.Flags().BoolP("help", "h", false, "Show help for the fix command.")
}
