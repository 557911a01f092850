package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vsecure-io/vsecure/cmd/analyse"
	"github.com/vsecure-io/vsecure/cmd/findings"
	"github.com/vsecure-io/vsecure/cmd/fix"
	"github.com/vsecure-io/vsecure/cmd/version"
	"github.com/vsecure-io/vsecure/pkg/shared/config"
	sherrors "github.com/vsecure-io/vsecure/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "vsecure [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "vsecure finds vulnerabilities in a workspace and applies suggested fixes.",
		Long: `vsecure submits a workspace to a remote analysis service (or reads local SARIF reports),
	groups the findings by file and applies the suggested remediations one confirmed patch at a time.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yml)")
	rootCmd.AddCommand(analyse.AnalyseCmd)
	rootCmd.AddCommand(findings.FindingsCmd)
	rootCmd.AddCommand(fix.FixCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		var cmdErr *sherrors.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	explicit := cfgFile != ""
	if !explicit {
		cfgFile = config.DefaultConfigFile
	}
	AppConfig, err = config.LoadConfig(cfgFile, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	analyse.Init(AppConfig)
	findings.Init(AppConfig)
	fix.Init(AppConfig)
	version.Init(AppConfig)
}
