package audit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	ldapv3 "github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"

	"adsweep/internal/ldap"
)

// DirectoryClient is the subset of the directory service the audit
// pipeline consumes.
type DirectoryClient interface {
	Search(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SearchWithPaging(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error)
	GetBaseDN(ctx context.Context) (string, error)
	SetEnabled(ctx context.Context, dn string, enabled bool) error
	Delete(ctx context.Context, dn string) error
}

// Engine executes a query plan and produces the candidate set. It never
// mutates the directory; any query or transport error aborts the run.
type Engine struct {
	client DirectoryClient
	guid   *ldap.GUIDHandler
	sid    *ldap.SIDHandler
	log    zerolog.Logger
}

// NewEngine creates a discovery engine backed by the given client.
func NewEngine(client DirectoryClient, log zerolog.Logger) *Engine {
	return &Engine{
		client: client,
		guid:   ldap.NewGUIDHandler(),
		sid:    ldap.NewSIDHandler(),
		log:    log,
	}
}

// Discover runs the plan for cfg and returns the snapshot of candidates.
// The classifier is applied to every projected object, so the set invariant
// holds regardless of how much of it the server-side filter could express.
func (e *Engine) Discover(ctx context.Context, cfg *Config) (*CandidateSet, error) {
	now := time.Now()

	spec, err := Plan(cfg, now)
	if err != nil {
		return nil, err
	}

	baseDN := spec.BaseDN
	if baseDN == "" {
		baseDN, err = e.client.GetBaseDN(ctx)
		if err != nil {
			return nil, &DiscoveryError{Kind: cfg.Kind, Cause: err}
		}
	}

	e.log.Info().
		Str("kind", cfg.Kind.String()).
		Str("mode", string(cfg.Mode)).
		Str("base_dn", baseDN).
		Msg("discovery started")
	e.log.Debug().Str("filter", spec.Filter).Msg("query plan")

	result, err := e.client.SearchWithPaging(ctx, &ldap.SearchRequest{
		BaseDN:     baseDN,
		Scope:      spec.Scope,
		Filter:     spec.Filter,
		Attributes: spec.Attributes,
	})
	if err != nil {
		return nil, &DiscoveryError{Kind: cfg.Kind, Cause: err}
	}

	set := &CandidateSet{Kind: cfg.Kind}
	for _, entry := range result.Entries {
		obj := e.project(entry, cfg.Kind)

		if spec.PostFilter == PostFilterZeroChildren {
			obj.ChildCount, err = e.countChildren(ctx, obj.DN)
			if err != nil {
				return nil, &DiscoveryError{Kind: cfg.Kind, Cause: err}
			}
		}

		if Classify(obj, cfg, now) {
			e.log.Debug().Str("dn", obj.DN).Str("guid", obj.GUID).Msg("candidate")
			set.Items = append(set.Items, obj)
		}
	}

	e.log.Info().
		Str("kind", cfg.Kind.String()).
		Int("scanned", len(result.Entries)).
		Int("candidates", set.Len()).
		Msg("discovery finished")

	return set, nil
}

// project maps a raw entry to the attribute subset for its kind.
func (e *Engine) project(entry *ldapv3.Entry, kind Kind) Object {
	obj := Object{
		DN:   entry.DN,
		Name: entry.GetAttributeValue("name"),
		GUID: e.guid.ExtractGUIDSafe(entry),
	}
	if obj.DN == "" {
		obj.DN = entry.GetAttributeValue("distinguishedName")
	}

	switch kind {
	case KindUser, KindComputer:
		obj.SAMAccountName = entry.GetAttributeValue("sAMAccountName")
		obj.SID = e.sid.ExtractSIDSafe(entry)
		obj.Enabled = parseEnabled(entry.GetAttributeValue("userAccountControl"))
		obj.LastLogon = parseLastLogon(entry.GetAttributeValue("lastLogonTimestamp"))

	case KindGroup:
		obj.Category = parseGroupCategory(entry.GetAttributeValue("groupType"))
		obj.MemberCount = countMembers(entry)
	}

	return obj
}

// countMembers counts forward member links. AD answers large memberships
// with range retrieval: past its range limit (1500 by default) the values
// arrive under an attribute like member;range=0-1499 and the plain member
// attribute is absent, so ranged attributes must count as members too or a
// populated group would classify as empty.
func countMembers(entry *ldapv3.Entry) int {
	count := 0
	for _, attr := range entry.Attributes {
		name := strings.ToLower(attr.Name)
		if name == "member" || strings.HasPrefix(name, "member;range=") {
			count += len(attr.Values)
		}
	}
	return count
}

// countChildren probes for direct children of an OU with a single-entry
// size limit; existence is all the classifier needs.
func (e *Engine) countChildren(ctx context.Context, dn string) (int, error) {
	result, err := e.client.Search(ctx, &ldap.SearchRequest{
		BaseDN:     dn,
		Scope:      ldap.ScopeSingleLevel,
		Filter:     "(objectClass=*)",
		Attributes: []string{"distinguishedName"},
		SizeLimit:  1,
	})
	if err != nil {
		// The server reports an exceeded size limit alongside the partial
		// result; one child is enough of an answer.
		var ldapErr *ldap.LDAPError
		if errors.As(err, &ldapErr) && ldapErr.LDAPCode == ldapv3.LDAPResultSizeLimitExceeded {
			return 1, nil
		}
		return 0, err
	}

	return len(result.Entries), nil
}

// parseEnabled reads the disabled bit out of userAccountControl. A missing
// or malformed value is treated as disabled so the object never becomes a
// remediation candidate by accident.
func parseEnabled(uac string) bool {
	value, err := strconv.ParseInt(uac, 10, 32)
	if err != nil {
		return false
	}
	return ldap.IsAccountEnabled(int32(value))
}

// parseLastLogon converts the replicated lastLogonTimestamp FILETIME. An
// absent or unset value means the account never logged on.
func parseLastLogon(value string) *time.Time {
	t, err := ldap.ParseFiletime(value)
	if err != nil {
		return nil
	}
	return &t
}

// parseGroupCategory reads the security bit (sign bit) of groupType.
func parseGroupCategory(groupType string) string {
	value, err := strconv.ParseInt(groupType, 10, 64)
	if err != nil {
		return GroupCategoryDistribution
	}
	if int32(value) < 0 {
		return GroupCategorySecurity
	}
	return GroupCategoryDistribution
}
