// Package cli implements the autotab command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	cfgFile  string
	logLevel string
	out      io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &options{out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:   "autotab",
		Short: "Open URLs automatically at scheduled times.",
		Long: `autotab opens URLs in your browser at the times you schedule, on
specific dates or on chosen days of the week, optionally grouped into
tab groups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.out = cmd.OutOrStdout()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/autotab.yaml or ./configs/autotab.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "", "Set log level. Available: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newSchedulesCmd(opts),
		newGroupsCmd(opts),
		newSettingsCmd(opts),
		newUpcomingCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newTickCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
