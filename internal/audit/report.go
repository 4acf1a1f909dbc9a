package audit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// lastLogonLayout is the timestamp format written to report rows.
const lastLogonLayout = "2006-01-02 15:04:05"

// ReportWriter serializes candidate sets to CSV files.
type ReportWriter struct {
	log zerolog.Logger
}

// NewReportWriter creates a report writer.
func NewReportWriter(log zerolog.Logger) *ReportWriter {
	return &ReportWriter{log: log}
}

// Write serializes the set to destination and returns the number of data
// rows written. An empty set still produces a header-only file. Any
// failure is returned as a ReportWriteError and must abort the run.
func (w *ReportWriter) Write(set *CandidateSet, destination string) (int, error) {
	path := ResolveDestination(destination, set.Kind)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, &ReportWriteError{Path: path, Cause: err}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, &ReportWriteError{Path: path, Cause: err}
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(reportHeader(set.Kind)); err != nil {
		return 0, &ReportWriteError{Path: path, Cause: err}
	}

	rows := 0
	for _, obj := range set.Items {
		if err := cw.Write(reportRow(set.Kind, obj)); err != nil {
			return rows, &ReportWriteError{Path: path, Cause: err}
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, &ReportWriteError{Path: path, Cause: err}
	}
	if err := file.Close(); err != nil {
		return rows, &ReportWriteError{Path: path, Cause: err}
	}

	w.log.Info().Str("path", path).Int("rows", rows).Msg("report written")
	return rows, nil
}

// ResolveDestination appends the kind's default filename when the
// configured destination does not name a CSV file.
func ResolveDestination(destination string, kind Kind) string {
	if destination == "" {
		return kind.DefaultReportName()
	}
	if strings.EqualFold(filepath.Ext(destination), ".csv") {
		return destination
	}
	return filepath.Join(destination, kind.DefaultReportName())
}

func reportHeader(kind Kind) []string {
	switch kind {
	case KindUser:
		return []string{"Username", "Name", "LastLogonDate", "DistinguishedName"}
	case KindComputer:
		return []string{"Name", "LastLogonDate", "DistinguishedName"}
	case KindGroup:
		return []string{"Name", "GroupCategory", "DistinguishedName"}
	default:
		return []string{"Name", "DistinguishedName"}
	}
}

func reportRow(kind Kind, obj Object) []string {
	switch kind {
	case KindUser:
		return []string{obj.SAMAccountName, obj.Name, formatLastLogon(obj.LastLogon), obj.DN}
	case KindComputer:
		return []string{obj.Name, formatLastLogon(obj.LastLogon), obj.DN}
	case KindGroup:
		return []string{obj.Name, obj.Category, obj.DN}
	default:
		return []string{obj.Name, obj.DN}
	}
}

// formatLastLogon renders a logon instant, or "Never" for accounts that
// have never authenticated.
func formatLastLogon(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.UTC().Format(lastLogonLayout)
}
