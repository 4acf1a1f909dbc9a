package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLDAPError_ResultCodes(t *testing.T) {
	tests := []struct {
		name      string
		code      uint16
		category  ErrorCategory
		retryable bool
	}{
		{
			name:      "invalid credentials",
			code:      ldap.LDAPResultInvalidCredentials,
			category:  ErrorCategoryAuthentication,
			retryable: false,
		},
		{
			name:      "insufficient access rights",
			code:      ldap.LDAPResultInsufficientAccessRights,
			category:  ErrorCategoryPermission,
			retryable: false,
		},
		{
			name:      "no such object",
			code:      ldap.LDAPResultNoSuchObject,
			category:  ErrorCategoryNotFound,
			retryable: false,
		},
		{
			name:      "not allowed on non-leaf",
			code:      ldap.LDAPResultNotAllowedOnNonLeaf,
			category:  ErrorCategoryProtected,
			retryable: false,
		},
		{
			name:      "unwilling to perform",
			code:      ldap.LDAPResultUnwillingToPerform,
			category:  ErrorCategoryProtected,
			retryable: false,
		},
		{
			name:      "server busy",
			code:      ldap.LDAPResultBusy,
			category:  ErrorCategoryServer,
			retryable: true,
		},
		{
			name:      "server down",
			code:      ldap.LDAPResultServerDown,
			category:  ErrorCategoryServer,
			retryable: true,
		},
		{
			name:      "filter error",
			code:      ldap.LDAPResultFilterError,
			category:  ErrorCategoryValidation,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := ldap.NewError(tt.code, errors.New("server said no"))
			err := NewLDAPError("delete", cause)

			require.NotNil(t, err)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.code, err.LDAPCode)
			assert.Equal(t, "delete", err.Operation)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestNewLDAPError_GenericErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
	}{
		{
			name:      "connection refused",
			err:       errors.New("dial tcp: connection refused"),
			category:  ErrorCategoryConnection,
			retryable: true,
		},
		{
			name:      "timeout",
			err:       errors.New("i/o timeout"),
			category:  ErrorCategoryConnection,
			retryable: true,
		},
		{
			name:      "authentication failure",
			err:       errors.New("authentication failed for user"),
			category:  ErrorCategoryAuthentication,
			retryable: false,
		},
		{
			name:      "unclassified",
			err:       errors.New("something odd happened"),
			category:  ErrorCategoryUnknown,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLDAPError("search", tt.err)

			require.NotNil(t, err)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Zero(t, err.LDAPCode)
		})
	}
}

func TestNewLDAPError_NilError(t *testing.T) {
	assert.Nil(t, NewLDAPError("search", nil))
}

func TestWrapError_PreservesClassification(t *testing.T) {
	inner := NewLDAPError("delete", ldap.NewError(ldap.LDAPResultNotAllowedOnNonLeaf, errors.New("non-leaf")))

	wrapped := WrapError("remediate", fmt.Errorf("remediation failed: %w", inner))

	var ldapErr *LDAPError
	require.ErrorAs(t, wrapped, &ldapErr)
	assert.Equal(t, ErrorCategoryProtected, ldapErr.Category)
	assert.Equal(t, "delete", ldapErr.Operation)
}

func TestLDAPError_Error(t *testing.T) {
	err := &LDAPError{
		Operation: "modify",
		LDAPCode:  ldap.LDAPResultInsufficientAccessRights,
		Message:   "insufficient access rights",
		DN:        "CN=svc-backup,OU=Service,DC=example,DC=com",
	}

	msg := err.Error()
	assert.Contains(t, msg, "modify")
	assert.Contains(t, msg, "insufficient access rights")
	assert.Contains(t, msg, "CN=svc-backup")
}

func TestErrorPredicates(t *testing.T) {
	notFound := NewLDAPError("search", ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("missing")))
	permission := NewLDAPError("delete", ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("denied")))
	protected := NewLDAPError("delete", ldap.NewError(ldap.LDAPResultUnwillingToPerform, errors.New("protected object")))

	assert.True(t, IsNotFoundError(notFound))
	assert.False(t, IsNotFoundError(permission))

	assert.True(t, IsPermissionError(permission))
	assert.False(t, IsPermissionError(notFound))

	assert.True(t, IsProtectedError(protected))
	assert.False(t, IsProtectedError(permission))

	assert.False(t, IsNotFoundError(nil))
}

func TestIsRetryableError(t *testing.T) {
	busy := NewLDAPError("search", ldap.NewError(ldap.LDAPResultBusy, errors.New("busy")))
	assert.True(t, IsRetryableError(busy))

	denied := NewLDAPError("delete", ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("denied")))
	assert.False(t, IsRetryableError(denied))

	assert.True(t, IsRetryableError(errors.New("broken pipe")))
	assert.False(t, IsRetryableError(nil))
}
