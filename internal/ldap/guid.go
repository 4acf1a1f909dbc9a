package ldap

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// GUIDBytesLength is the length of a binary objectGUID value.
const GUIDBytesLength = 16

// GUIDHandler converts between Active Directory's mixed-endian binary
// objectGUID encoding and canonical GUID strings.
type GUIDHandler struct{}

// NewGUIDHandler creates a new GUID handler instance.
func NewGUIDHandler() *GUIDHandler {
	return &GUIDHandler{}
}

// GUIDBytesToString converts AD binary GUID bytes to the canonical string
// form. The first three fields are stored little-endian on the wire.
func (g *GUIDHandler) GUIDBytesToString(guidBytes []byte) (string, error) {
	if len(guidBytes) != GUIDBytesLength {
		return "", fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(guidBytes))
	}

	var standard [GUIDBytesLength]byte
	standard[0], standard[1], standard[2], standard[3] = guidBytes[3], guidBytes[2], guidBytes[1], guidBytes[0]
	standard[4], standard[5] = guidBytes[5], guidBytes[4]
	standard[6], standard[7] = guidBytes[7], guidBytes[6]
	copy(standard[8:], guidBytes[8:])

	id, err := uuid.FromBytes(standard[:])
	if err != nil {
		return "", fmt.Errorf("failed to decode GUID bytes: %w", err)
	}

	return id.String(), nil
}

// StringToGUIDBytes converts a GUID string to AD's binary wire encoding.
func (g *GUIDHandler) StringToGUIDBytes(guidString string) ([]byte, error) {
	id, err := uuid.Parse(guidString)
	if err != nil {
		return nil, fmt.Errorf("invalid GUID format: %w", err)
	}

	standard := id[:]
	adBytes := make([]byte, GUIDBytesLength)
	adBytes[0], adBytes[1], adBytes[2], adBytes[3] = standard[3], standard[2], standard[1], standard[0]
	adBytes[4], adBytes[5] = standard[5], standard[4]
	adBytes[6], adBytes[7] = standard[7], standard[6]
	copy(adBytes[8:], standard[8:])

	return adBytes, nil
}

// ExtractGUID extracts the objectGUID from an LDAP entry as a string.
func (g *GUIDHandler) ExtractGUID(entry *ldap.Entry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("LDAP entry cannot be nil")
	}

	guidAttr := entry.GetRawAttributeValue("objectGUID")
	if len(guidAttr) == 0 {
		return "", fmt.Errorf("objectGUID attribute not found in entry")
	}

	return g.GUIDBytesToString(guidAttr)
}

// ExtractGUIDSafe extracts the objectGUID, returning "" when absent or malformed.
func (g *GUIDHandler) ExtractGUIDSafe(entry *ldap.Entry) string {
	guid, err := g.ExtractGUID(entry)
	if err != nil {
		return ""
	}
	return guid
}
