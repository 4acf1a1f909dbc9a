package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// Runner wires the pipeline phases together: discover, report, then
// optionally remediate. Remediation never starts before the report has
// been persisted.
type Runner struct {
	engine   *Engine
	reporter *ReportWriter
	executor *Executor
	log      zerolog.Logger
}

// NewRunner creates a runner over the given directory client.
func NewRunner(client DirectoryClient, log zerolog.Logger) *Runner {
	return &Runner{
		engine:   NewEngine(client, log),
		reporter: NewReportWriter(log),
		executor: NewExecutor(client, log),
		log:      log,
	}
}

// Run executes one audit. Configuration, discovery, and report errors are
// fatal and returned; per-item remediation failures are carried in the
// summary.
func (r *Runner) Run(ctx context.Context, cfg *Config) (*ExecutionSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set, err := r.engine.Discover(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := r.reporter.Write(set, cfg.ReportDestination); err != nil {
		return nil, err
	}

	return r.executor.Run(ctx, set, cfg.Action), nil
}
