package audit

import "fmt"

// ConfigurationError indicates an invalid run configuration. It is fatal
// and raised before any directory access.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// DiscoveryError indicates a query or transport failure during discovery.
// It aborts the run; a partial candidate set must never drive remediation.
type DiscoveryError struct {
	Kind  Kind
	Cause error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s discovery failed: %v", e.Kind, e.Cause)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// ReportWriteError indicates the report destination could not be written.
// It is fatal and blocks remediation.
type ReportWriteError struct {
	Path  string
	Cause error
}

func (e *ReportWriteError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", e.Path, e.Cause)
}

func (e *ReportWriteError) Unwrap() error {
	return e.Cause
}
