package audit

import (
	"strings"
	"time"
)

// predicate reports whether an object is a management candidate. Predicates
// are pure and total.
type predicate func(obj Object, cfg *Config, now time.Time) bool

// classifiers is the single dispatch table keyed by kind and mode. Group
// and OU emptiness ignore the mode-specific restrictions entirely.
var classifiers = map[Kind]map[Mode]predicate{
	KindUser: {
		ModeAll:                   userAll,
		ModeOnlyInactive:          userOnlyInactive,
		ModeOnlyServiceAccounts:   userOnlyServiceAccounts,
		ModeOnlyNeverLoggedOn:     neverLoggedOn,
		ModeExceptServiceAccounts: userExceptServiceAccounts,
		ModeExceptNeverLoggedOn:   inactiveWithTimestamp,
	},
	KindComputer: {
		ModeAll:                 userAll,
		ModeOnlyInactive:        inactiveWithTimestamp,
		ModeOnlyNeverLoggedOn:   neverLoggedOn,
		ModeExceptNeverLoggedOn: inactiveWithTimestamp,
	},
	KindGroup: {
		ModeAll: groupEmpty,
	},
	KindOU: {
		ModeAll: ouEmpty,
	},
}

// Classify reports whether obj is a candidate under cfg at the given
// instant. Unknown kind/mode combinations classify nothing.
func Classify(obj Object, cfg *Config, now time.Time) bool {
	pred, ok := classifiers[cfg.Kind][cfg.Mode]
	if !ok {
		return false
	}
	return pred(obj, cfg, now)
}

// isInactive is the base inactivity rule shared by all user and computer
// modes: the account is enabled and either never logged on or last logged
// on strictly before the threshold cutoff.
func isInactive(obj Object, cfg *Config, now time.Time) bool {
	if !obj.Enabled {
		return false
	}
	if obj.LastLogon == nil {
		return true
	}
	cutoff := now.AddDate(0, 0, -cfg.InactivityThresholdDays)
	return obj.LastLogon.Before(cutoff)
}

// isServiceAccount matches the configured pattern as a case-insensitive
// substring of sAMAccountName.
func isServiceAccount(obj Object, cfg *Config) bool {
	if cfg.ServiceAccountPattern == "" {
		return false
	}
	return strings.Contains(
		strings.ToLower(obj.SAMAccountName),
		strings.ToLower(cfg.ServiceAccountPattern),
	)
}

func userAll(obj Object, cfg *Config, now time.Time) bool {
	return isInactive(obj, cfg, now)
}

func userOnlyInactive(obj Object, cfg *Config, now time.Time) bool {
	return isInactive(obj, cfg, now) && obj.LastLogon != nil && !isServiceAccount(obj, cfg)
}

func userOnlyServiceAccounts(obj Object, cfg *Config, now time.Time) bool {
	return isInactive(obj, cfg, now) && obj.LastLogon != nil && isServiceAccount(obj, cfg)
}

func neverLoggedOn(obj Object, cfg *Config, now time.Time) bool {
	return obj.Enabled && obj.LastLogon == nil
}

// userExceptServiceAccounts keeps inactive non-service accounts and every
// never-logged-on account, service-named or not.
func userExceptServiceAccounts(obj Object, cfg *Config, now time.Time) bool {
	if obj.LastLogon == nil {
		return obj.Enabled
	}
	return isInactive(obj, cfg, now) && !isServiceAccount(obj, cfg)
}

func inactiveWithTimestamp(obj Object, cfg *Config, now time.Time) bool {
	return isInactive(obj, cfg, now) && obj.LastLogon != nil
}

func groupEmpty(obj Object, cfg *Config, now time.Time) bool {
	return obj.MemberCount == 0
}

func ouEmpty(obj Object, cfg *Config, now time.Time) bool {
	return obj.ChildCount == 0
}
