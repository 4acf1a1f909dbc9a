package audit

import (
	"fmt"
	"strings"
)

// Mode selects which subset of a kind's objects the run targets.
type Mode string

const (
	ModeAll                   Mode = "all"
	ModeOnlyInactive          Mode = "only-inactive"
	ModeOnlyServiceAccounts   Mode = "only-service-accounts"
	ModeOnlyNeverLoggedOn     Mode = "only-never-logged-on"
	ModeExceptServiceAccounts Mode = "except-service-accounts"
	ModeExceptNeverLoggedOn   Mode = "except-never-logged-on"
)

// kindModes lists the modes each kind accepts. Groups and OUs are audited
// for emptiness only.
var kindModes = map[Kind][]Mode{
	KindUser: {
		ModeAll,
		ModeOnlyInactive,
		ModeOnlyServiceAccounts,
		ModeOnlyNeverLoggedOn,
		ModeExceptServiceAccounts,
		ModeExceptNeverLoggedOn,
	},
	KindComputer: {
		ModeAll,
		ModeOnlyInactive,
		ModeOnlyNeverLoggedOn,
		ModeExceptNeverLoggedOn,
	},
	KindGroup: {ModeAll},
	KindOU:    {ModeAll},
}

// ParseMode parses a mode name, accepting any case.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case ModeAll, ModeOnlyInactive, ModeOnlyServiceAccounts,
		ModeOnlyNeverLoggedOn, ModeExceptServiceAccounts, ModeExceptNeverLoggedOn:
		return mode, nil
	default:
		return "", fmt.Errorf("unrecognized search mode %q", s)
	}
}

// ValidFor reports whether the mode is accepted for the given kind.
func (m Mode) ValidFor(kind Kind) bool {
	for _, valid := range kindModes[kind] {
		if m == valid {
			return true
		}
	}
	return false
}

// ModesFor returns the modes accepted for a kind, for help text.
func ModesFor(kind Kind) []string {
	names := make([]string, 0, len(kindModes[kind]))
	for _, m := range kindModes[kind] {
		names = append(names, string(m))
	}
	return names
}
