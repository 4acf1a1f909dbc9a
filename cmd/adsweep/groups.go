package main

import (
	"github.com/spf13/cobra"

	"adsweep/internal/audit"
)

var groupsFlags auditFlags

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Audit empty groups",
	Long: `Audit groups with no members, security and distribution alike.
Groups can be deleted but not disabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd, audit.KindGroup, &groupsFlags)
	},
}

func init() {
	addAuditFlags(groupsCmd, &groupsFlags, audit.KindGroup)
	rootCmd.AddCommand(groupsCmd)
}
