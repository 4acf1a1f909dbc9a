package ldap

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFiletime(t *testing.T) {
	// 2023-01-01 00:00:00 UTC
	want := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	parsed, err := ParseFiletime(FormatFiletime(want))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(want), "expected %v, got %v", want, parsed)
}

func TestParseFiletime_Unset(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "empty", value: ""},
		{name: "zero", value: "0"},
		{name: "never expires sentinel", value: "9223372036854775807"},
		{name: "garbage", value: "not-a-number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFiletime(tt.value)
			assert.Error(t, err)
		})
	}
}

func TestFormatFiletime_Ordering(t *testing.T) {
	earlier := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	a, err := strconv.ParseInt(FormatFiletime(earlier), 10, 64)
	require.NoError(t, err)
	b, err := strconv.ParseInt(FormatFiletime(later), 10, 64)
	require.NoError(t, err)
	assert.Less(t, a, b)
}

func TestIsAccountEnabled(t *testing.T) {
	assert.True(t, IsAccountEnabled(512))   // normal account
	assert.False(t, IsAccountEnabled(514))  // normal account, disabled
	assert.True(t, IsAccountEnabled(4096))  // workstation trust account
	assert.False(t, IsAccountEnabled(4098)) // workstation trust account, disabled
}
