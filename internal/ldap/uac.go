package ldap

// UACAccountDisabled is the userAccountControl disable flag, the only UAC
// bit the audit pipeline inspects.
const UACAccountDisabled int32 = 0x00000002

// MatchingRuleBitAnd is the OID of the LDAP_MATCHING_RULE_BIT_AND extensible
// match, used to test userAccountControl flags server-side.
const MatchingRuleBitAnd = "1.2.840.113556.1.4.803"

// IsAccountEnabled reports whether a userAccountControl value describes an
// enabled account.
func IsAccountEnabled(uac int32) bool {
	return uac&UACAccountDisabled == 0
}
