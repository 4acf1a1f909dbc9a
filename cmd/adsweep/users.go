package main

import (
	"github.com/spf13/cobra"

	"adsweep/internal/audit"
)

var usersFlags auditFlags

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Audit inactive user accounts",
	Long: `Audit enabled user accounts whose last logon is older than the
inactivity threshold, or that never logged on. The search mode narrows the
set: only-inactive excludes service accounts and never-logged-on accounts,
only-service-accounts keeps just the accounts matching the service pattern,
and the except-* modes subtract one category from the full set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd, audit.KindUser, &usersFlags)
	},
}

func init() {
	addAuditFlags(usersCmd, &usersFlags, audit.KindUser)
	rootCmd.AddCommand(usersCmd)
}
