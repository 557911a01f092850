package analyse

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/vsecure-io/vsecure/internal/aggregator"
	"github.com/vsecure-io/vsecure/internal/analyzer"
	"github.com/vsecure-io/vsecure/internal/archive"
	"github.com/vsecure-io/vsecure/internal/console"
	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/internal/git"
	"github.com/vsecure-io/vsecure/internal/sarif"
	"github.com/vsecure-io/vsecure/internal/session"
	"github.com/vsecure-io/vsecure/internal/workspace"
	"github.com/vsecure-io/vsecure/pkg/shared"
	"github.com/vsecure-io/vsecure/pkg/shared/config"
	"github.com/vsecure-io/vsecure/pkg/shared/logger"
)

// RunOptionsAnalyse holds the arguments for the analyse command.
type RunOptionsAnalyse struct {
	Semgrep      bool
	CodeQL       bool
	SarifReports []string
	OutputPath   string
	Format       string
}

// sarifInput is one --sarif value split into its tool and path.
type sarifInput struct {
	Tool string
	Path string
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	analyseOptions      RunOptionsAnalyse
	exampleAnalyseUsage = `  # Analyse the current directory with semgrep on the configured server
  vsecure analyse --semgrep .

  # Run both analyzers and save the results to a custom location
  vsecure analyse --semgrep --codeql --output /tmp/results.json /path/to/project

  # Ingest local SARIF reports instead of calling the server
  vsecure analyse --sarif semgrep=semgrep.sarif --sarif codeql.sarif /path/to/project

  # Print the aggregated findings as JSON
  vsecure analyse --semgrep --format json .`
)

// AnalyseCmd represents the analyse command.
var AnalyseCmd = &cobra.Command{
	Use:                   "analyse [--semgrep] [--codeql] [--sarif [TOOL=]PATH]... [--output/-o PATH] [--format/-f FORMAT] PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyseUsage,
	Short:                 "Analyses a workspace and saves the aggregated findings",
	Long: `Archives the workspace, submits it to the analysis service and aggregates the returned
findings. With --sarif the service is skipped and local SARIF reports are aggregated instead.
A new analysis clears every stale mark left by whole-file fixes.`,
	RunE: runAnalyseCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runAnalyseCommand executes the analyse command.
func runAnalyseCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-analyse")

	inputs, err := validateAnalyseArgs(&analyseOptions, args)
	if err != nil {
		logger.Error("invalid analyse arguments", "error", err)
		return err
	}

	ws, err := workspace.New(args[0])
	if err != nil {
		logger.Error("invalid analysis root", "error", err)
		return err
	}
	sess := session.New(ws, logger)
	out := console.New(cmd.OutOrStdout(), logger)

	var res *aggregator.Result
	if len(inputs) > 0 {
		res, err = loadSarif(sess, inputs, logger)
	} else {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		res, err = analyseRemote(ctx, sess, out, flagsFromOptions(&analyseOptions, AppConfig), logger)
	}
	if err != nil {
		logger.Error("analyse command failed", "error", err)
		return err
	}

	outputPath := analyseOptions.OutputPath
	if outputPath == "" {
		outputPath = shared.DefaultResultsPath(ws.Root())
	}
	saved := findings.SavedResults{
		RunID:     res.RunID,
		Root:      ws.Root(),
		CreatedAt: time.Now().UTC(),
		Results:   sess.Raw(),
	}
	if md, err := git.CollectMetadata(ws.Root()); err == nil {
		saved.Repository = md
		if !md.Clean {
			logger.Warn("work tree has uncommitted changes, fixes will be mixed with them", "root", md.RootFolder)
		}
	} else {
		logger.Debug("no repository metadata", "reason", err)
	}

	if err := findings.SaveResults(outputPath, saved); err != nil {
		logger.Error("failed to save results", "error", err)
		return err
	}

	if err := out.Render(analyseOptions.Format, console.NewReport(res, nil)); err != nil {
		return err
	}

	logger.Info("analyse command completed successfully",
		"run_id", res.RunID, "findings", len(res.Findings), "dropped", len(res.Dropped), "output", outputPath)
	return nil
}

func analyseRemote(ctx context.Context, sess *session.Session, out *console.Console, flags analyzer.Flags, logger hclog.Logger) (*aggregator.Result, error) {
	data, err := archive.Zip(sess.Workspace().Root(), logger.Named("archive"))
	if err != nil {
		return nil, fmt.Errorf("failed to archive workspace: %w", err)
	}

	client := analyzer.NewClient(AppConfig, logger.Named("analyzer"))
	logger.Info("submitting workspace for analysis", "server", client.ServerURL(), "bytes", len(data), "semgrep", flags.Semgrep, "codeql", flags.CodeQL)
	credential := ""
	if AppConfig != nil {
		credential = AppConfig.Analyzer.APIKey
	}

	var res *aggregator.Result
	err = out.WithSpinner("Analyzing code...", func() error {
		var err error
		res, err = sess.Analyze(ctx, client, data, flags, credential)
		return err
	})
	return res, err
}

func loadSarif(sess *session.Session, inputs []sarifInput, logger hclog.Logger) (*aggregator.Result, error) {
	merged := findings.ToolResults{}
	for _, in := range inputs {
		results, err := sarif.ReadRecords(in.Path, in.Tool, sess.Workspace(), logger.Named("sarif"))
		if err != nil {
			return nil, fmt.Errorf("failed to read SARIF report %q: %w", in.Path, err)
		}
		for channel, records := range results {
			merged[channel] = append(merged[channel], records...)
		}
		logger.Debug("SARIF report merged", "path", in.Path)
	}
	return sess.Load(merged), nil
}

// flagsFromOptions picks the analyzers to run. Command line flags win over
// the configuration; with neither, semgrep runs alone.
func flagsFromOptions(options *RunOptionsAnalyse, cfg *config.Config) analyzer.Flags {
	if options.Semgrep || options.CodeQL {
		return analyzer.Flags{Semgrep: options.Semgrep, CodeQL: options.CodeQL}
	}
	flags := analyzer.Flags{
		Semgrep: config.GetBoolValue(cfg, "Analyzer.Semgrep", false),
		CodeQL:  config.GetBoolValue(cfg, "Analyzer.CodeQL", false),
	}
	if !flags.Any() {
		flags.Semgrep = true
	}
	return flags
}

// Initialize flags for the analyse command.
func init() {
	AnalyseCmd.Flags().BoolVar(&analyseOptions.Semgrep, "semgrep", false, "Run the semgrep analyzer on the service.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.CodeQL, "codeql", false, "Run the CodeQL analyzer on the service.")
	AnalyseCmd.Flags().StringArrayVar(&analyseOptions.SarifReports, "sarif", nil, "Local SARIF report to ingest, optionally prefixed with the tool name (TOOL=PATH). Repeatable.")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.OutputPath, "output", "o", "", "Path of the results file (default PATH/"+shared.DefaultResultsFile+").")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.Format, "format", "f", console.FormatHuman, "Output format: human, json or yaml.")
	AnalyseCmd.Flags().BoolP("help", "h", false, "Show help for the analyse command.")
}
