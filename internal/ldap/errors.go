package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents different categories of LDAP errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryProtected      ErrorCategory = "protected"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// LDAPError provides enhanced error information for directory operations.
type LDAPError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code, 0 for non-LDAP failures
	Message   string        // Human-readable message
	DN        string        // DN involved in the operation, if applicable
	Retryable bool          // Whether the error is retryable
	Cause     error         // Underlying error
}

func (e *LDAPError) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("LDAP %s failed (code %d)", e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("LDAP %s failed", e.Operation))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *LDAPError) IsRetryable() bool {
	return e.Retryable
}

func (e *LDAPError) Unwrap() error {
	return e.Cause
}

// NewLDAPError wraps err with operation context and a category derived
// from its LDAP result code.
func NewLDAPError(operation string, err error) *LDAPError {
	if err == nil {
		return nil
	}

	ldapErr := &LDAPError{
		Operation: operation,
		Cause:     err,
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		ldapErr.LDAPCode = resultErr.ResultCode
		ldapErr.Category = categorizeCode(resultErr.ResultCode)
		ldapErr.Retryable = isCodeRetryable(resultErr.ResultCode)
		ldapErr.Message = codeMessage(resultErr.ResultCode)
	} else {
		ldapErr.Category = categorizeGenericError(err)
		ldapErr.Retryable = isGenericErrorRetryable(err)
		ldapErr.Message = err.Error()
	}

	return ldapErr
}

// WrapError wraps an error with operation context, preserving an existing
// LDAPError's classification.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		if ldapErr.Operation == "" {
			ldapErr.Operation = operation
		}
		return ldapErr
	}

	return NewLDAPError(operation, err)
}

// categorizeCode categorizes an error based on its LDAP result code.
func categorizeCode(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	// AD rejects deletion of protected or non-leaf objects with these codes.
	case ldap.LDAPResultNotAllowedOnNonLeaf,
		ldap.LDAPResultNotAllowedOnRDN,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryProtected

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation,
		ldap.LDAPResultFilterError:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultTimeout,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// categorizeGenericError categorizes non-LDAP errors by message.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection"),
		strings.Contains(errStr, "network"),
		strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "broken pipe"),
		strings.Contains(errStr, "connection reset"):
		return ErrorCategoryConnection
	case strings.Contains(errStr, "credentials"),
		strings.Contains(errStr, "authentication"):
		return ErrorCategoryAuthentication
	case strings.Contains(errStr, "access"),
		strings.Contains(errStr, "denied"),
		strings.Contains(errStr, "permission"):
		return ErrorCategoryPermission
	default:
		return ErrorCategoryUnknown
	}
}

// isCodeRetryable determines if an LDAP result code indicates a transient condition.
func isCodeRetryable(code uint16) bool {
	switch code {
	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultServerDown,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultConnectError:
		return true
	default:
		return false
	}
}

// isGenericErrorRetryable determines if a generic error is retryable.
func isGenericErrorRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection",
		"timeout",
		"network",
		"broken pipe",
		"connection reset",
		"temporary failure",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// codeMessage returns a human-readable message for an LDAP result code.
func codeMessage(code uint16) string {
	switch code {
	case ldap.LDAPResultOperationsError:
		return "operations error"
	case ldap.LDAPResultProtocolError:
		return "protocol error"
	case ldap.LDAPResultTimeLimitExceeded:
		return "time limit exceeded"
	case ldap.LDAPResultSizeLimitExceeded:
		return "size limit exceeded"
	case ldap.LDAPResultStrongAuthRequired:
		return "strong authentication required"
	case ldap.LDAPResultAdminLimitExceeded:
		return "administrative limit exceeded"
	case ldap.LDAPResultNoSuchAttribute:
		return "requested attribute does not exist"
	case ldap.LDAPResultUndefinedAttributeType:
		return "attribute type is not defined"
	case ldap.LDAPResultConstraintViolation:
		return "constraint violation"
	case ldap.LDAPResultInvalidAttributeSyntax:
		return "invalid attribute syntax"
	case ldap.LDAPResultNoSuchObject:
		return "requested object does not exist"
	case ldap.LDAPResultInvalidDNSyntax:
		return "invalid DN syntax"
	case ldap.LDAPResultInappropriateAuthentication:
		return "inappropriate authentication method"
	case ldap.LDAPResultInvalidCredentials:
		return "invalid credentials"
	case ldap.LDAPResultInsufficientAccessRights:
		return "insufficient access rights"
	case ldap.LDAPResultBusy:
		return "server is busy"
	case ldap.LDAPResultUnavailable:
		return "server is unavailable"
	case ldap.LDAPResultUnwillingToPerform:
		return "server is unwilling to perform the operation"
	case ldap.LDAPResultNamingViolation:
		return "naming violation"
	case ldap.LDAPResultObjectClassViolation:
		return "object class violation"
	case ldap.LDAPResultNotAllowedOnNonLeaf:
		return "operation not allowed on non-leaf entry"
	case ldap.LDAPResultNotAllowedOnRDN:
		return "operation not allowed on RDN"
	case ldap.LDAPResultEntryAlreadyExists:
		return "entry already exists"
	case ldap.LDAPResultServerDown:
		return "server is down"
	case ldap.LDAPResultTimeout:
		return "operation timed out"
	case ldap.LDAPResultFilterError:
		return "invalid search filter"
	case ldap.LDAPResultConnectError:
		return "connection error"
	default:
		return fmt.Sprintf("unknown LDAP error (code %d)", code)
	}
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return isGenericErrorRetryable(err)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		return ldapErr.Category
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		return categorizeCode(resultErr.ResultCode)
	}

	return categorizeGenericError(err)
}

// IsNotFoundError checks if an error indicates a missing object.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsPermissionError checks if an error indicates insufficient rights.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}

// IsProtectedError checks if an error indicates the server refused to
// modify or delete a protected object.
func IsProtectedError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryProtected
}
