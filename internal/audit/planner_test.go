package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsweep/internal/ldap"
)

var planNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestPlan_Users(t *testing.T) {
	cfg := &Config{
		Kind:                    KindUser,
		Mode:                    ModeOnlyInactive,
		InactivityThresholdDays: 90,
		ServiceAccountPattern:   "svc",
	}

	spec, err := Plan(cfg, planNow)
	require.NoError(t, err)

	cutoff := ldap.FormatFiletime(planNow.AddDate(0, 0, -90))

	assert.Equal(t, ldap.ScopeWholeSubtree, spec.Scope)
	assert.Equal(t, PostFilterNone, spec.PostFilter)
	assert.Contains(t, spec.Filter, "(objectClass=user)")
	assert.Contains(t, spec.Filter, "(!(objectClass=computer))")
	assert.Contains(t, spec.Filter, "(!(userAccountControl:1.2.840.113556.1.4.803:=2))")
	assert.Contains(t, spec.Filter, fmt.Sprintf("(lastLogonTimestamp<=%s)", cutoff))
	assert.Contains(t, spec.Filter, "(!(sAMAccountName=*svc*))")
	assert.Contains(t, spec.Attributes, "lastLogonTimestamp")
	assert.Contains(t, spec.Attributes, "userAccountControl")
	assert.Contains(t, spec.Attributes, "objectGUID")
}

func TestPlan_UserModeClauses(t *testing.T) {
	tests := []struct {
		mode        Mode
		contains    []string
		notContains []string
	}{
		{
			mode:     ModeOnlyServiceAccounts,
			contains: []string{"(sAMAccountName=*svc*)", "(lastLogonTimestamp<="},
		},
		{
			mode:        ModeOnlyNeverLoggedOn,
			contains:    []string{"(!(lastLogonTimestamp=*))"},
			notContains: []string{"(lastLogonTimestamp<="},
		},
		{
			mode:     ModeExceptServiceAccounts,
			contains: []string{"(|(!(lastLogonTimestamp=*))", "(!(sAMAccountName=*svc*))"},
		},
		{
			mode:        ModeExceptNeverLoggedOn,
			contains:    []string{"(lastLogonTimestamp<="},
			notContains: []string{"(!(lastLogonTimestamp=*))"},
		},
		{
			mode:     ModeAll,
			contains: []string{"(|(!(lastLogonTimestamp=*))", "(lastLogonTimestamp<="},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := &Config{
				Kind:                    KindUser,
				Mode:                    tt.mode,
				InactivityThresholdDays: 90,
				ServiceAccountPattern:   "svc",
			}

			spec, err := Plan(cfg, planNow)
			require.NoError(t, err)

			for _, fragment := range tt.contains {
				assert.Contains(t, spec.Filter, fragment)
			}
			for _, fragment := range tt.notContains {
				assert.NotContains(t, spec.Filter, fragment)
			}
		})
	}
}

func TestPlan_ServicePatternEscaped(t *testing.T) {
	cfg := &Config{
		Kind:                    KindUser,
		Mode:                    ModeOnlyServiceAccounts,
		InactivityThresholdDays: 90,
		ServiceAccountPattern:   "svc(1)",
	}

	spec, err := Plan(cfg, planNow)
	require.NoError(t, err)
	assert.Contains(t, spec.Filter, `\28`)
	assert.Contains(t, spec.Filter, `\29`)
	assert.NotContains(t, spec.Filter, "svc(1)")
}

func TestPlan_Computers(t *testing.T) {
	cfg := &Config{
		Kind:                    KindComputer,
		Mode:                    ModeAll,
		InactivityThresholdDays: 90,
	}

	spec, err := Plan(cfg, planNow)
	require.NoError(t, err)
	assert.Contains(t, spec.Filter, "(objectClass=computer)")
	assert.Contains(t, spec.Filter, "(!(userAccountControl:1.2.840.113556.1.4.803:=2))")
	assert.NotContains(t, spec.Filter, "sAMAccountName=*")
	assert.Equal(t, PostFilterNone, spec.PostFilter)
}

func TestPlan_Groups(t *testing.T) {
	spec, err := Plan(&Config{Kind: KindGroup, Mode: ModeAll}, planNow)
	require.NoError(t, err)

	assert.Equal(t, "(&(objectClass=group)(!(member=*)))", spec.Filter)
	assert.Equal(t, PostFilterZeroMembers, spec.PostFilter)
	assert.Contains(t, spec.Attributes, "member")
	assert.Contains(t, spec.Attributes, "groupType")
}

func TestPlan_OUs(t *testing.T) {
	spec, err := Plan(&Config{Kind: KindOU, Mode: ModeAll}, planNow)
	require.NoError(t, err)

	assert.Equal(t, "(objectClass=organizationalUnit)", spec.Filter)
	assert.Equal(t, PostFilterZeroChildren, spec.PostFilter)
}

func TestPlan_ScopeRoot(t *testing.T) {
	cfg := &Config{
		Kind:      KindGroup,
		Mode:      ModeAll,
		ScopeRoot: "OU=Staff,DC=example,DC=com",
	}

	spec, err := Plan(cfg, planNow)
	require.NoError(t, err)
	assert.Equal(t, "OU=Staff,DC=example,DC=com", spec.BaseDN)
}

func TestPlan_InvalidConfigurations(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "mode invalid for groups",
			cfg:  &Config{Kind: KindGroup, Mode: ModeOnlyInactive},
		},
		{
			name: "mode invalid for computers",
			cfg:  &Config{Kind: KindComputer, Mode: ModeOnlyServiceAccounts},
		},
		{
			name: "unknown mode",
			cfg:  &Config{Kind: KindUser, Mode: Mode("bogus"), ServiceAccountPattern: "svc"},
		},
		{
			name: "disable on group",
			cfg:  &Config{Kind: KindGroup, Mode: ModeAll, Action: ActionDisable},
		},
		{
			name: "disable on ou",
			cfg:  &Config{Kind: KindOU, Mode: ModeAll, Action: ActionDisable},
		},
		{
			name: "negative threshold",
			cfg:  &Config{Kind: KindUser, Mode: ModeAll, InactivityThresholdDays: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.cfg, planNow)
			require.Error(t, err)

			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Only-Inactive ")
	require.NoError(t, err)
	assert.Equal(t, ModeOnlyInactive, mode)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}
