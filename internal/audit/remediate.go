package audit

import (
	"context"

	"github.com/rs/zerolog"

	"adsweep/internal/ldap"
)

// ItemFailure records one candidate the remediation action could not be
// applied to.
type ItemFailure struct {
	DN     string
	Name   string
	Reason string
}

// ExecutionSummary aggregates the outcome of one remediation pass.
// Partial completion is a normal outcome, not an error state.
type ExecutionSummary struct {
	Action    Action
	Attempted int
	Succeeded int
	Failed    []ItemFailure
}

// Executor applies the configured action to each candidate sequentially.
// A failed item is recorded and the pass continues; there is no rollback.
type Executor struct {
	client DirectoryClient
	log    zerolog.Logger
}

// NewExecutor creates a remediation executor.
func NewExecutor(client DirectoryClient, log zerolog.Logger) *Executor {
	return &Executor{client: client, log: log}
}

// Run iterates the set in its captured order, applying action to each
// item. ActionNone returns an empty summary without touching the
// directory.
func (x *Executor) Run(ctx context.Context, set *CandidateSet, action Action) *ExecutionSummary {
	summary := &ExecutionSummary{Action: action}
	if action == ActionNone || set.Len() == 0 {
		return summary
	}

	x.log.Info().
		Str("kind", set.Kind.String()).
		Str("action", string(action)).
		Int("candidates", set.Len()).
		Msg("remediation started")

	for _, obj := range set.Items {
		summary.Attempted++

		err := x.apply(ctx, obj, action)
		if err != nil {
			reason := failureReason(err)
			summary.Failed = append(summary.Failed, ItemFailure{
				DN:     obj.DN,
				Name:   obj.Name,
				Reason: reason,
			})
			x.log.Warn().
				Str("dn", obj.DN).
				Str("action", string(action)).
				Str("reason", reason).
				Err(err).
				Msg("remediation failed for item")
			continue
		}

		summary.Succeeded++
		x.log.Info().
			Str("dn", obj.DN).
			Str("action", string(action)).
			Msg("remediated")
	}

	x.log.Info().
		Str("action", string(action)).
		Int("succeeded", summary.Succeeded).
		Int("failed", len(summary.Failed)).
		Msg("remediation finished")

	return summary
}

func (x *Executor) apply(ctx context.Context, obj Object, action Action) error {
	switch action {
	case ActionDisable:
		return x.client.SetEnabled(ctx, obj.DN, false)
	case ActionDelete:
		return x.client.Delete(ctx, obj.DN)
	default:
		return nil
	}
}

// failureReason maps a remediation error to the reason recorded in the
// summary.
func failureReason(err error) string {
	switch ldap.GetErrorCategory(err) {
	case ldap.ErrorCategoryProtected:
		return "protected from deletion"
	case ldap.ErrorCategoryNotFound:
		return "object no longer exists"
	case ldap.ErrorCategoryPermission:
		return "access denied"
	case ldap.ErrorCategoryConnection:
		return "transport error or timeout"
	default:
		return err.Error()
	}
}
