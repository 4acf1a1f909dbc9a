package ldap

import (
	"fmt"
	"strconv"
	"time"
)

// Active Directory stores interval timestamps (lastLogonTimestamp,
// pwdLastSet, accountExpires) as FILETIME values: 100-nanosecond intervals
// since January 1, 1601 UTC.

// filetimeEpochOffset is the number of 100-nanosecond intervals between
// the FILETIME epoch (1601) and the Unix epoch (1970).
const filetimeEpochOffset = 116444736000000000

// accountNeverExpires is the accountExpires sentinel for "never".
const accountNeverExpires = "9223372036854775807"

// ParseFiletime parses an AD interval timestamp attribute value. Empty,
// zero and "never" sentinels are reported as errors so callers can treat
// the timestamp as absent.
func ParseFiletime(value string) (time.Time, error) {
	if value == "" || value == "0" || value == accountNeverExpires {
		return time.Time{}, fmt.Errorf("empty or sentinel timestamp")
	}

	ticks, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	if ticks <= filetimeEpochOffset {
		return time.Time{}, fmt.Errorf("timestamp before Unix epoch")
	}

	return time.Unix(0, (ticks-filetimeEpochOffset)*100).UTC(), nil
}

// FormatFiletime converts a time to the decimal FILETIME representation
// used in LDAP filter comparisons.
func FormatFiletime(t time.Time) string {
	ticks := t.UnixNano()/100 + filetimeEpochOffset
	return strconv.FormatInt(ticks, 10)
}
