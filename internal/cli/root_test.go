package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plannr/internal/app"
	"plannr/internal/config"
)

// fileOpener opens a sqlite database under dir so state survives between commands.
func fileOpener(dir string) Opener {
	cfg := config.Config{
		DatabaseURL:     filepath.Join(dir, "plannr.db"),
		StreakCheckTime: "00:01",
		ReportInterval:  time.Hour,
		Location:        time.UTC,
		StorageQuota:    1024 * 1024,
	}
	return func(ctx context.Context) (*app.App, error) {
		return app.Open(ctx, cfg)
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, open Opener, args ...string) string {
	t.Helper()
	out, err := run(t, open, args...)
	require.NoError(t, err, out)
	return out
}

func TestAddCompleteFlow(t *testing.T) {
	open := fileOpener(t.TempDir())

	out := mustRun(t, open, "login", "ann")
	assert.Contains(t, out, "Logged in as ann")

	out = mustRun(t, open, "add", "Write", "report", "-c", "work", "-i", "high")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "(high)")

	out = mustRun(t, open, "today")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "Work")

	ref := strings.Fields(strings.TrimSpace(out))[2]
	out = mustRun(t, open, "done", ref)
	assert.Contains(t, out, "Completed: Write report")
	// The login already marked today as evaluated, so the first day grants no streak.
	assert.Contains(t, out, "Streak 0")
	assert.Contains(t, out, "1 done")

	out = mustRun(t, open, "done", ref)
	assert.Contains(t, out, "Already completed")

	out = mustRun(t, open, "today")
	assert.Contains(t, out, "Nothing left for today.")

	out = mustRun(t, open, "stats")
	assert.Contains(t, out, "Streak:      0 day(s)")
	assert.Contains(t, out, "Completion:  1 of 1 (100%)")
}

func TestAddRejectsBadInput(t *testing.T) {
	open := fileOpener(t.TempDir())

	_, err := run(t, open, "add", "x", "-c", "garden")
	assert.ErrorContains(t, err, "unknown category")

	_, err = run(t, open, "add", "x", "-i", "urgent")
	assert.ErrorContains(t, err, "unknown importance")

	_, err = run(t, open, "add", "x", "--due", "someday")
	assert.Error(t, err)

	_, err = run(t, open, "done", "nope")
	assert.Error(t, err)
}

func TestUpcomingDays(t *testing.T) {
	open := fileOpener(t.TempDir())
	mustRun(t, open, "add", "Later", "--due", "tomorrow")

	out := mustRun(t, open, "upcoming")
	assert.Contains(t, out, "Later")

	out = mustRun(t, open, "upcoming", "--days", "3")
	assert.Equal(t, 1, strings.Count(out, "Later"))
	assert.Equal(t, 2, strings.Count(out, "  -"))
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	open := fileOpener(dir)
	mustRun(t, open, "login", "ann")
	mustRun(t, open, "add", "Keep", "me")

	file := filepath.Join(dir, "backup.json")
	out := mustRun(t, open, "export", file)
	assert.Contains(t, out, "Backup written")

	stdout := mustRun(t, open, "export")
	assert.Contains(t, stdout, `"Keep me"`)

	out = mustRun(t, open, "clear", "--yes")
	assert.Contains(t, out, "All data cleared.")
	assert.Contains(t, mustRun(t, open, "today"), "Nothing left for today.")

	out = mustRun(t, open, "import", file)
	assert.Contains(t, out, "Data imported successfully!")
	assert.Contains(t, mustRun(t, open, "today"), "Keep me")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tasks":[]}`), 0o600))
	_, err := run(t, open, "import", bad)
	assert.ErrorContains(t, err, "Missing version or export date")
}

func TestClearNeedsConfirmation(t *testing.T) {
	_, err := run(t, fileOpener(t.TempDir()), "clear")
	assert.ErrorContains(t, err, "--yes")
}

func TestServeRequiresToken(t *testing.T) {
	open := fileOpener(t.TempDir())

	_, err := run(t, open)
	assert.ErrorIs(t, err, config.ErrTokenRequired)

	_, err = run(t, open, "serve")
	assert.ErrorIs(t, err, config.ErrTokenRequired)
}
