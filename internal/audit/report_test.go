package audit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestReportWriter_UserRoundTrip(t *testing.T) {
	lastLogon := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	set := &CandidateSet{
		Kind: KindUser,
		Items: []Object{
			{
				DN:             "CN=Jane Doe,DC=example,DC=com",
				Name:           "Jane Doe",
				SAMAccountName: "jdoe",
				LastLogon:      &lastLogon,
			},
			{
				DN:             "CN=Ghost,DC=example,DC=com",
				Name:           "Ghost",
				SAMAccountName: "ghost",
			},
		},
	}

	path := filepath.Join(t.TempDir(), "users.csv")
	rows, err := NewReportWriter(zerolog.Nop()).Write(set, path)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Username", "Name", "LastLogonDate", "DistinguishedName"}, records[0])
	assert.Equal(t, []string{"jdoe", "Jane Doe", "2024-01-15 08:30:00", "CN=Jane Doe,DC=example,DC=com"}, records[1])
	assert.Equal(t, []string{"ghost", "Ghost", "Never", "CN=Ghost,DC=example,DC=com"}, records[2])

	dns := []string{records[1][3], records[2][3]}
	assert.ElementsMatch(t, set.DNs(), dns)
}

func TestReportWriter_EmptySetWritesHeader(t *testing.T) {
	set := &CandidateSet{Kind: KindGroup}

	path := filepath.Join(t.TempDir(), "groups.csv")
	rows, err := NewReportWriter(zerolog.Nop()).Write(set, path)
	require.NoError(t, err)
	assert.Zero(t, rows)

	records := readCSV(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Name", "GroupCategory", "DistinguishedName"}, records[0])
}

func TestReportWriter_DirectoryDestination(t *testing.T) {
	dir := t.TempDir()
	set := &CandidateSet{
		Kind: KindOU,
		Items: []Object{
			{DN: "OU=Empty,DC=example,DC=com", Name: "Empty"},
		},
	}

	rows, err := NewReportWriter(zerolog.Nop()).Write(set, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	records := readCSV(t, filepath.Join(dir, "EmptyOUs.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Name", "DistinguishedName"}, records[0])
	assert.Equal(t, []string{"Empty", "OU=Empty,DC=example,DC=com"}, records[1])
}

func TestReportWriter_CreatesParentDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")
	set := &CandidateSet{Kind: KindComputer}

	_, err := NewReportWriter(zerolog.Nop()).Write(set, dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "InactiveComputers.csv"))
	assert.NoError(t, err)
}

func TestReportWriter_UnwritableDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	set := &CandidateSet{Kind: KindUser}
	_, err := NewReportWriter(zerolog.Nop()).Write(set, filepath.Join(dir, "users.csv"))
	require.Error(t, err)

	var writeErr *ReportWriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestResolveDestination(t *testing.T) {
	assert.Equal(t, "InactiveUsers.csv", ResolveDestination("", KindUser))
	assert.Equal(t, "/tmp/out.csv", ResolveDestination("/tmp/out.csv", KindUser))
	assert.Equal(t, "/tmp/out.CSV", ResolveDestination("/tmp/out.CSV", KindUser))
	assert.Equal(t,
		filepath.Join("/tmp/reports", "EmptyGroups.csv"),
		ResolveDestination("/tmp/reports", KindGroup))
}
