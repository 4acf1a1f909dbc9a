package audit

import "fmt"

// Action is the remediation applied to each candidate.
type Action string

const (
	ActionNone    Action = "none"
	ActionDisable Action = "disable"
	ActionDelete  Action = "delete"
)

// Config is the immutable input to a single audit run.
type Config struct {
	Kind                    Kind
	Mode                    Mode
	ScopeRoot               string // subtree anchor DN; empty means the whole directory
	InactivityThresholdDays int
	ServiceAccountPattern   string
	ReportDestination       string
	Action                  Action
}

// Validate checks the configuration before any directory access.
func (c *Config) Validate() error {
	switch c.Kind {
	case KindUser, KindComputer, KindGroup, KindOU:
	default:
		return &ConfigurationError{Message: fmt.Sprintf("unknown object kind %q", c.Kind)}
	}

	if !c.Mode.ValidFor(c.Kind) {
		return &ConfigurationError{Message: fmt.Sprintf(
			"search mode %q is not valid for %ss", c.Mode, c.Kind)}
	}

	if c.InactivityThresholdDays < 0 {
		return &ConfigurationError{Message: fmt.Sprintf(
			"inactivity threshold must be >= 0 days, got %d", c.InactivityThresholdDays)}
	}

	switch c.Action {
	case "", ActionNone, ActionDelete:
	case ActionDisable:
		if c.Kind == KindGroup || c.Kind == KindOU {
			return &ConfigurationError{Message: fmt.Sprintf(
				"%ss cannot be disabled, only deleted", c.Kind)}
		}
	default:
		return &ConfigurationError{Message: fmt.Sprintf("unknown remediation action %q", c.Action)}
	}

	if c.Kind == KindUser && needsServicePattern(c.Mode) && c.ServiceAccountPattern == "" {
		return &ConfigurationError{Message: fmt.Sprintf(
			"search mode %q requires a service account pattern", c.Mode)}
	}

	return nil
}

func needsServicePattern(mode Mode) bool {
	switch mode {
	case ModeOnlyInactive, ModeOnlyServiceAccounts, ModeExceptServiceAccounts:
		return true
	default:
		return false
	}
}
