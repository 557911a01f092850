package findings

import (
	"github.com/spf13/cobra"

	"github.com/vsecure-io/vsecure/internal/console"
	"github.com/vsecure-io/vsecure/internal/session"
	"github.com/vsecure-io/vsecure/pkg/shared/config"
	"github.com/vsecure-io/vsecure/pkg/shared/logger"
)

// RunOptionsFindings holds the arguments for the findings command.
type RunOptionsFindings struct {
	ResultsPath string
	Format      string
}

// Global variables for configuration and command arguments
var (
	AppConfig            *config.Config
	findingsOptions      RunOptionsFindings
	exampleFindingsUsage = `  # Show the findings of the last analysis of the current directory
  vsecure findings

  # Show the findings saved below a project root
  vsecure findings /path/to/project

  # Read a custom results file and print YAML
  vsecure findings --results /tmp/results.json --format yaml`
)

// FindingsCmd represents the findings command.
var FindingsCmd = &cobra.Command{
	Use:                   "findings [--results/-r PATH] [--format/-f FORMAT] [PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleFindingsUsage,
	Short:                 "Shows the saved findings grouped by file",
	RunE:                  runFindingsCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runFindingsCommand executes the findings command.
func runFindingsCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-findings")

	resultsPath, err := validateFindingsArgs(&findingsOptions, args)
	if err != nil {
		logger.Error("invalid findings arguments", "error", err)
		return err
	}

	sess, _, err := session.Open(resultsPath, logger)
	if err != nil {
		logger.Error("failed to load results", "path", resultsPath, "error", err)
		return err
	}

	out := console.New(cmd.OutOrStdout(), logger)
	return out.Render(findingsOptions.Format, console.NewReport(sess.Result(), sess.IsStale))
}

// Initialize flags for the findings command.
func init() {
	FindingsCmd.Flags().StringVarP(&findingsOptions.ResultsPath, "results", "r", "", "Path of the results file written by analyse (default PATH/.vsecure/results.json).")
	FindingsCmd.Flags().StringVarP(&findingsOptions.Format, "format", "f", console.FormatHuman, "Output format: human, json or yaml.")
	FindingsCmd.Flags().BoolP("help", "h", false, "Show help for the findings command.")
}
