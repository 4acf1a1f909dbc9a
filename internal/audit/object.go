package audit

import "time"

// Kind identifies the directory object type under audit.
type Kind string

const (
	KindUser     Kind = "user"
	KindComputer Kind = "computer"
	KindGroup    Kind = "group"
	KindOU       Kind = "ou"
)

func (k Kind) String() string {
	return string(k)
}

// DefaultReportName returns the report filename used when the configured
// destination is a directory.
func (k Kind) DefaultReportName() string {
	switch k {
	case KindUser:
		return "InactiveUsers.csv"
	case KindComputer:
		return "InactiveComputers.csv"
	case KindGroup:
		return "EmptyGroups.csv"
	case KindOU:
		return "EmptyOUs.csv"
	default:
		return "Report.csv"
	}
}

// Group categories derived from the groupType sign bit.
const (
	GroupCategorySecurity     = "Security"
	GroupCategoryDistribution = "Distribution"
)

// Object is a point-in-time snapshot of one directory entry, projected to
// the attribute subset relevant to its kind.
type Object struct {
	DN             string
	Name           string
	GUID           string
	SID            string
	SAMAccountName string

	// User and computer kinds.
	Enabled   bool
	LastLogon *time.Time // nil means never logged on

	// Group kind.
	Category    string
	MemberCount int

	// OU kind. Direct children only, capped at 1 by the discovery probe.
	ChildCount int
}

// CandidateSet is an ordered snapshot of objects that satisfied the active
// classification predicate at discovery time. Order is the directory's
// natural return order and is only stable within a single run.
type CandidateSet struct {
	Kind  Kind
	Items []Object
}

// Len returns the number of candidates.
func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// DNs returns the distinguished names of all candidates in order.
func (s *CandidateSet) DNs() []string {
	dns := make([]string, 0, s.Len())
	for _, obj := range s.Items {
		dns = append(dns, obj.DN)
	}
	return dns
}
