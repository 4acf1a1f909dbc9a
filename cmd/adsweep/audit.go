package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adsweep/internal/audit"
	"adsweep/internal/config"
	"adsweep/internal/ldap"
	"adsweep/internal/logging"
)

// auditFlags holds the per-kind command flags.
type auditFlags struct {
	searchBase string
	days       int
	pattern    string
	mode       string
	report     string
	disable    bool
	delete     bool
}

// addAuditFlags registers the flag set shared by the object-kind commands.
func addAuditFlags(cmd *cobra.Command, flags *auditFlags, kind audit.Kind) {
	cmd.Flags().StringVarP(&flags.searchBase, "search-base", "b", "", "subtree DN to audit (default: whole directory)")
	cmd.Flags().StringVarP(&flags.report, "report", "r", "", "report file or directory (default: configured report directory)")
	cmd.Flags().BoolVar(&flags.delete, "delete", false, "delete each reported object")

	if kind == audit.KindUser || kind == audit.KindComputer {
		cmd.Flags().IntVarP(&flags.days, "days", "d", 90, "inactivity threshold in days")
		cmd.Flags().BoolVar(&flags.disable, "disable", false, "disable each reported account")
		cmd.Flags().StringVarP(&flags.mode, "mode", "m", string(audit.ModeAll),
			"search mode: "+strings.Join(audit.ModesFor(kind), ", "))
	} else {
		flags.mode = string(audit.ModeAll)
	}

	if kind == audit.KindUser {
		cmd.Flags().StringVarP(&flags.pattern, "service-pattern", "p", "svc",
			"substring identifying service accounts in sAMAccountName")
	}
}

// runAudit executes one audit for the given kind.
func runAudit(cmd *cobra.Command, kind audit.Kind, flags *auditFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}
	log := logging.New(logging.Options{Level: level, Format: format})

	runCfg, err := buildRunConfig(cmd, kind, flags, cfg)
	if err != nil {
		return err
	}
	if err := runCfg.Validate(); err != nil {
		return err
	}

	client, err := ldap.NewClient(cfg.ConnectionConfig(), log)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	if err := client.Connect(ctx); err != nil {
		return err
	}

	if authzID, err := client.WhoAmI(ctx); err == nil {
		log.Info().Str("authz_id", authzID).Msg("connected to directory")
	} else {
		log.Warn().Err(err).Msg("whoami preflight failed")
	}

	summary, err := audit.NewRunner(client, log).Run(ctx, runCfg)
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	return nil
}

// buildRunConfig merges flags over configuration file defaults. A flag the
// user did not set falls back to the file value.
func buildRunConfig(cmd *cobra.Command, kind audit.Kind, flags *auditFlags, cfg *config.Config) (*audit.Config, error) {
	mode, err := audit.ParseMode(flags.mode)
	if err != nil {
		return nil, err
	}

	if flags.disable && flags.delete {
		return nil, fmt.Errorf("--disable and --delete are mutually exclusive")
	}
	action := audit.ActionNone
	switch {
	case flags.disable:
		action = audit.ActionDisable
	case flags.delete:
		action = audit.ActionDelete
	}

	days := flags.days
	if f := cmd.Flags().Lookup("days"); f == nil || !f.Changed {
		days = cfg.Audit.InactivityThresholdDays
	}

	pattern := flags.pattern
	if f := cmd.Flags().Lookup("service-pattern"); f == nil || !f.Changed {
		pattern = cfg.Audit.ServiceAccountPattern
	}

	report := flags.report
	if report == "" {
		report = cfg.Audit.ReportDir
	}

	return &audit.Config{
		Kind:                    kind,
		Mode:                    mode,
		ScopeRoot:               flags.searchBase,
		InactivityThresholdDays: days,
		ServiceAccountPattern:   pattern,
		ReportDestination:       report,
		Action:                  action,
	}, nil
}

// printSummary writes the remediation outcome to stdout. Per-item failures
// are a normal partial outcome and do not change the exit code.
func printSummary(cmd *cobra.Command, summary *audit.ExecutionSummary) {
	if summary.Action == audit.ActionNone || summary.Attempted == 0 {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d succeeded, %d failed\n",
		summary.Action, summary.Succeeded, len(summary.Failed))
	for _, failure := range summary.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s (%s)\n", failure.DN, failure.Reason)
	}
}
