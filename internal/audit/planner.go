package audit

import (
	"fmt"
	"time"

	ldapv3 "github.com/go-ldap/ldap/v3"

	"adsweep/internal/ldap"
)

// PostFilter marks classification work the directory query language cannot
// express, executed by the discovery engine against the raw results.
type PostFilter int

const (
	PostFilterNone         PostFilter = iota
	PostFilterZeroMembers             // groups: no forward-links in member
	PostFilterZeroChildren            // OUs: no direct child objects
)

// QuerySpec is the executable output of the planner: an LDAP filter with as
// much of the classification pushed down as the server can evaluate, plus
// the attributes to load and any required post-filter.
type QuerySpec struct {
	BaseDN     string // empty means the connection's default naming context
	Scope      ldap.SearchScope
	Filter     string
	Attributes []string
	PostFilter PostFilter
}

// Filter fragments shared across kinds. The matching-rule clause excludes
// disabled accounts server-side.
const (
	filterEnabled       = "(!(userAccountControl:" + ldap.MatchingRuleBitAnd + ":=2))"
	filterNeverLoggedOn = "(!(lastLogonTimestamp=*))"
	filterHasLoggedOn   = "(lastLogonTimestamp=*)"
)

// Plan builds the query spec for one run. Pushdown is a superset filter
// where exact semantics differ (the server compares <= against the cutoff
// while classification is strictly before); the classifier is re-applied to
// every result, so overmatching here only costs bandwidth.
func Plan(cfg *Config, now time.Time) (*QuerySpec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	spec := &QuerySpec{
		BaseDN: cfg.ScopeRoot,
		Scope:  ldap.ScopeWholeSubtree,
	}

	switch cfg.Kind {
	case KindUser:
		spec.Filter = userFilter(cfg, now)
		spec.Attributes = []string{
			"distinguishedName", "name", "sAMAccountName",
			"lastLogonTimestamp", "userAccountControl",
			"objectGUID", "objectSid",
		}

	case KindComputer:
		spec.Filter = computerFilter(cfg, now)
		spec.Attributes = []string{
			"distinguishedName", "name", "sAMAccountName",
			"lastLogonTimestamp", "userAccountControl",
			"objectGUID", "objectSid",
		}

	case KindGroup:
		// Absence of member forward-links is evaluated server-side, which
		// also sidesteps range retrieval of large memberships. The
		// projected member count stays the definitive check.
		spec.Filter = "(&(objectClass=group)(!(member=*)))"
		spec.Attributes = []string{
			"distinguishedName", "name", "member", "groupType", "objectGUID",
		}
		spec.PostFilter = PostFilterZeroMembers

	case KindOU:
		spec.Filter = "(objectClass=organizationalUnit)"
		spec.Attributes = []string{"distinguishedName", "name", "objectGUID"}
		spec.PostFilter = PostFilterZeroChildren
	}

	return spec, nil
}

// userFilter builds the pushdown filter for user modes. Users carry
// objectClass=user, which computers inherit, hence the explicit exclusion.
func userFilter(cfg *Config, now time.Time) string {
	base := "(objectClass=user)(!(objectClass=computer))" + filterEnabled
	return "(&" + base + modeClause(cfg, now, true) + ")"
}

func computerFilter(cfg *Config, now time.Time) string {
	return "(&(objectClass=computer)" + filterEnabled + modeClause(cfg, now, false) + ")"
}

// modeClause renders the mode-specific lastLogonTimestamp and service
// pattern terms. withPattern is false for computers, which have no service
// account heuristic.
func modeClause(cfg *Config, now time.Time, withPattern bool) string {
	cutoff := staleClause(cfg, now)
	service := servicePatternClause(cfg)

	switch cfg.Mode {
	case ModeOnlyInactive:
		if withPattern {
			return cutoff + not(service)
		}
		return cutoff

	case ModeOnlyServiceAccounts:
		return cutoff + service

	case ModeOnlyNeverLoggedOn:
		return filterNeverLoggedOn

	case ModeExceptServiceAccounts:
		return "(|" + filterNeverLoggedOn + "(&" + cutoff + not(service) + "))"

	case ModeExceptNeverLoggedOn:
		return cutoff

	default: // ModeAll
		return "(|" + filterNeverLoggedOn + cutoff + ")"
	}
}

// staleClause compares lastLogonTimestamp against the threshold cutoff as
// an AD FILETIME literal.
func staleClause(cfg *Config, now time.Time) string {
	cutoff := now.AddDate(0, 0, -cfg.InactivityThresholdDays)
	return fmt.Sprintf("(&%s(lastLogonTimestamp<=%s))", filterHasLoggedOn, ldap.FormatFiletime(cutoff))
}

// servicePatternClause matches the configured token anywhere in
// sAMAccountName. AD evaluates sAMAccountName case-insensitively.
func servicePatternClause(cfg *Config) string {
	return fmt.Sprintf("(sAMAccountName=*%s*)", ldapv3.EscapeFilter(cfg.ServiceAccountPattern))
}

func not(clause string) string {
	return "(!" + clause + ")"
}
