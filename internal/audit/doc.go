// Package audit implements the classification-and-remediation pipeline:
// building a directory query plan for one object kind and search mode,
// discovering candidate objects, writing a CSV report, and optionally
// disabling or deleting each candidate with per-item failure isolation.
package audit
