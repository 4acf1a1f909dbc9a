package main

import (
	"github.com/spf13/cobra"

	"adsweep/internal/audit"
)

var computersFlags auditFlags

var computersCmd = &cobra.Command{
	Use:   "computers",
	Short: "Audit inactive computer accounts",
	Long: `Audit enabled computer accounts whose last logon is older than the
inactivity threshold, or that never logged on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd, audit.KindComputer, &computersFlags)
	},
}

func init() {
	addAuditFlags(computersCmd, &computersFlags, audit.KindComputer)
	rootCmd.AddCommand(computersCmd)
}
