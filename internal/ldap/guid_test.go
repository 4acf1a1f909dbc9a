package ldap

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGUIDHandler_BytesStringRoundTrip(t *testing.T) {
	handler := NewGUIDHandler()

	guid := "01020304-0506-0708-090a-0b0c0d0e0f10"

	adBytes, err := handler.StringToGUIDBytes(guid)
	require.NoError(t, err)
	require.Len(t, adBytes, GUIDBytesLength)

	// The first three fields are little-endian in AD's binary form.
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01, 0x06, 0x05, 0x08, 0x07}, adBytes[:8])
	assert.Equal(t, []byte{0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}, adBytes[8:])

	back, err := handler.GUIDBytesToString(adBytes)
	require.NoError(t, err)
	assert.Equal(t, guid, back)
}

func TestGUIDHandler_GUIDBytesToString_InvalidLength(t *testing.T) {
	handler := NewGUIDHandler()

	_, err := handler.GUIDBytesToString([]byte{0x01, 0x02})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid GUID byte length")
}

func TestGUIDHandler_ExtractGUID(t *testing.T) {
	handler := NewGUIDHandler()

	guid := "01020304-0506-0708-090a-0b0c0d0e0f10"
	adBytes, err := handler.StringToGUIDBytes(guid)
	require.NoError(t, err)

	entry := ldap.NewEntry("CN=Test User,DC=example,DC=com", map[string][]string{
		"objectGUID": {string(adBytes)},
	})

	extracted, err := handler.ExtractGUID(entry)
	require.NoError(t, err)
	assert.Equal(t, guid, extracted)
}

func TestGUIDHandler_ExtractGUIDSafe(t *testing.T) {
	handler := NewGUIDHandler()

	assert.Empty(t, handler.ExtractGUIDSafe(nil))

	entry := ldap.NewEntry("CN=Test User,DC=example,DC=com", map[string][]string{
		"cn": {"Test User"},
	})
	assert.Empty(t, handler.ExtractGUIDSafe(entry))
}

func TestSIDHandler_ExtractSIDSafe(t *testing.T) {
	handler := NewSIDHandler()

	assert.Empty(t, handler.ExtractSIDSafe(nil))

	// String-valued objectSid is accepted as-is when well formed.
	entry := ldap.NewEntry("CN=Test User,DC=example,DC=com", map[string][]string{
		"objectSid": {"S-1-5-21-1111111111-2222222222-3333333333-1104"},
	})
	assert.Equal(t, "S-1-5-21-1111111111-2222222222-3333333333-1104", handler.ExtractSIDSafe(entry))
}

func TestSIDHandler_ValidateSIDString(t *testing.T) {
	handler := NewSIDHandler()

	assert.NoError(t, handler.ValidateSIDString("S-1-5-21-1-2-3-500"))
	assert.Error(t, handler.ValidateSIDString(""))
	assert.Error(t, handler.ValidateSIDString("X-1-5"))
	assert.Error(t, handler.ValidateSIDString("S-1"))
}
