package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "adsweep",
	Short: "Audit Active Directory for inactive and empty objects",
	Long: `adsweep finds directory objects that are inactive or empty under
configurable criteria and writes a CSV report per run:

  - users and computers: enabled accounts whose last logon is older than a
    threshold, or that never logged on
  - groups: no members
  - organizational units: no direct children

By default a run only reports. Pass --disable (users and computers) or
--delete to remediate each reported object; failures on individual objects
are recorded and do not stop the rest of the batch.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}
