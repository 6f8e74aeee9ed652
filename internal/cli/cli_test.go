package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with the given stdin and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const interleaveJobs = "0, 4, 0\n1, 4, 0\n"

func TestRun_PromptsAndReports(t *testing.T) {
	jobs := writeFile(t, "jobs.txt", interleaveJobs)

	stdout, stderr, err := execute(t, "2\n5\n5\n100\n", "--tick", "0", jobs)
	require.NoError(t, err)
	require.Equal(t,
		"Average turnaround time: 6.50\n"+
			"Average waiting time: 2.50\n"+
			"Average response time: 0.50\n", stdout)
	require.Contains(t, stderr, "Enter time quantum for Level-0 (t0): ")
	require.Contains(t, stderr, "Enter starvation threshold (W): ")
}

func TestRun_ArgumentCount(t *testing.T) {
	_, _, err := execute(t, "")
	require.ErrorContains(t, err, "usage:")

	_, _, err = execute(t, "", "a.txt", "b.txt")
	require.ErrorContains(t, err, "usage:")
}

func TestRun_InvalidQuantum(t *testing.T) {
	jobs := writeFile(t, "jobs.txt", interleaveJobs)

	tests := []struct {
		name  string
		stdin string
		want  string
	}{
		{"non-numeric t0", "x\n", "invalid value for t0"},
		{"negative t1", "2\n-1\n", "invalid value for t1"},
		{"zero t2", "2\n5\n0\n", "invalid value for t2"},
		{"missing W", "2\n5\n5\n", "invalid value for W"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.stdin, "--tick", "0", jobs)
			require.ErrorContains(t, err, tt.want)
			require.Empty(t, stdout)
		})
	}
}

func TestRun_InputErrors(t *testing.T) {
	t.Run("unreadable file", func(t *testing.T) {
		stdout, _, err := execute(t, "2 5 5 100\n", "--tick", "0", filepath.Join(t.TempDir(), "missing.txt"))
		require.ErrorContains(t, err, "open job file")
		require.Empty(t, stdout)
	})

	t.Run("no valid jobs", func(t *testing.T) {
		jobs := writeFile(t, "jobs.txt", "abc, 1, 0\n\n1, 2\n")
		stdout, _, err := execute(t, "2 5 5 100\n", "--tick", "0", jobs)
		require.ErrorIs(t, err, simulator.ErrNoJobs)
		require.Empty(t, stdout)
	})
}

func TestRun_MalformedRecordsSkipped(t *testing.T) {
	jobs := writeFile(t, "jobs.txt", "0, 3, 0\nabc, 1, 0\n2, 2, 1\n")

	stdout, stderr, err := execute(t, "5 10 5 20\n", "--tick", "0", "--debug", jobs)
	require.NoError(t, err)
	require.Contains(t, stdout, "Average turnaround time: 3.00\n")
	require.Contains(t, stderr, "skipped malformed record")
	require.Contains(t, stderr, "job result")
}

func TestRun_ConfigFileAndHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	cfg := writeFile(t, "mlq.yaml", `
scheduler:
  prompt: false
  level0_quantum: 2
  level1_quantum: 5
  level2_quantum: 5
  starvation_threshold: 100
  tick_interval: 0s
log:
  level: warn
history:
  db_path: `+db+`
`)
	jobs := writeFile(t, "jobs.txt", interleaveJobs)

	stdout, stderr, err := execute(t, "", "--config", cfg, jobs)
	require.NoError(t, err)
	require.Contains(t, stdout, "Average waiting time: 2.50\n")
	require.NotContains(t, stderr, "Enter", "prompts are skipped when the file sets the quanta")

	stdout, _, err = execute(t, "", "history", "--db", db)
	require.NoError(t, err)
	require.Contains(t, stdout, "2/5/5/100")
	require.Contains(t, stdout, "6.50")

	id := regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`).FindString(stdout)
	require.NotEmpty(t, id)

	stdout, _, err = execute(t, "", "history", "--db", db, id)
	require.NoError(t, err)
	require.Contains(t, stdout, "Run "+id)
	require.Equal(t, 4, strings.Count(stdout, "\n"), "header line, column line and two jobs")

	_, _, err = execute(t, "", "history", "--db", db, "no-such-run")
	require.ErrorContains(t, err, "run not found")
}

func TestRun_RecordFlag(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	jobs := writeFile(t, "jobs.txt", interleaveJobs)

	_, _, err := execute(t, "2 5 5 100\n", "--tick", "0", "--record", db, jobs)
	require.NoError(t, err)

	stdout, _, err := execute(t, "", "history", "--db", db, "--limit", "5")
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(stdout, "\n"), "header and one run")
}

func TestHistory_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "", "history")
	require.ErrorContains(t, err, "--db is required")
}

func TestHistory_Empty(t *testing.T) {
	stdout, _, err := execute(t, "", "history", "--db", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	require.Equal(t, "No runs recorded.\n", stdout)
}
