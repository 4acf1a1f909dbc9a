package main

import (
	"github.com/spf13/cobra"

	"adsweep/internal/audit"
)

var ousFlags auditFlags

var ousCmd = &cobra.Command{
	Use:   "ous",
	Short: "Audit empty organizational units",
	Long: `Audit organizational units with no direct children. Nesting is not
cascaded: a parent OU whose only children are themselves empty OUs is not
reported until those children are gone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd, audit.KindOU, &ousFlags)
	},
}

func init() {
	addAuditFlags(ousCmd, &ousFlags, audit.KindOU)
	rootCmd.AddCommand(ousCmd)
}
