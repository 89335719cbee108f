package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bplog-go/internal/storage"
	"github.com/jwulff/bplog-go/internal/storage/memory"
	"github.com/jwulff/bplog-go/internal/tracker"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()

	n := 0
	clock := func() time.Time { return testNow }
	store := memory.NewStore(
		storage.WithClock(clock),
		storage.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("r%d", n)
		}),
	)

	var out bytes.Buffer
	return &app{
		tracker: tracker.New(store, tracker.WithClock(clock), tracker.WithLocation(time.UTC)),
		out:     &out,
		profile: termenv.Ascii,
	}, &out
}

func TestAdd(t *testing.T) {
	a, out := newTestApp(t)

	code := a.run(context.Background(), "add", []string{"142", "91", "-pulse", "72", "-notes", "after stairs"})
	require.Equal(t, 0, code, out.String())

	assert.Contains(t, out.String(), "Recorded 142/91 pulse 72 at 2025-06-15 12:00 - High Blood Pressure")
	assert.Contains(t, out.String(), "ID: r1")
}

func TestAddFlagsFirst(t *testing.T) {
	a, out := newTestApp(t)

	code := a.run(context.Background(), "add", []string{"-category", "morning", "118", "76"})
	require.Equal(t, 0, code, out.String())

	readings, err := a.tracker.Readings(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "morning", readings[0].Category)
	assert.Nil(t, readings[0].Pulse)
}

func TestAddValidationError(t *testing.T) {
	a, out := newTestApp(t)

	code := a.run(context.Background(), "add", []string{"80", "90"})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Systolic value must be higher than diastolic value")
}

func TestAddBadNumber(t *testing.T) {
	a, out := newTestApp(t)

	code := a.run(context.Background(), "add", []string{"abc", "80"})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `"abc" is not a whole number`)
}

func TestAddZeroPulseIsRejected(t *testing.T) {
	a, out := newTestApp(t)

	code := a.run(context.Background(), "add", []string{"120", "80", "-pulse", "0"})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Please enter a valid pulse value (30-200)")

	readings, err := a.tracker.Readings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestAddBackdated(t *testing.T) {
	a, out := newTestApp(t)

	code := a.run(context.Background(), "add", []string{"125", "81", "-at", "2025-06-13 21:30"})
	require.Equal(t, 0, code, out.String())

	readings, err := a.tracker.Readings(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, time.Date(2025, time.June, 13, 21, 30, 0, 0, time.UTC).UnixMilli(), readings[0].Timestamp)

	assert.Equal(t, 2, a.run(context.Background(), "add", []string{"125", "81", "-at", "yesterday"}))
}

func TestEdit(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.Equal(t, 0, a.run(ctx, "add", []string{"150", "95", "-at", "2025-06-14 08:00"}))
	code := a.run(ctx, "edit", []string{"r1", "130", "85", "-notes", "misread cuff"})
	require.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Updated 130/85 at 2025-06-14 08:00")

	readings, err := a.tracker.Readings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "r2", readings[0].ID)
	assert.Equal(t, "misread cuff", readings[0].Notes)

	assert.Equal(t, 1, a.run(ctx, "edit", []string{"r1", "130", "85"}), "edited reading is gone")
	assert.Equal(t, 2, a.run(ctx, "edit", []string{"r2", "130"}))
}

func TestList(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.Equal(t, 0, a.run(ctx, "add", []string{"120", "80"}))
	require.Equal(t, 0, a.run(ctx, "add", []string{"135", "85", "-notes", "coffee"}))
	out.Reset()

	require.Equal(t, 0, a.run(ctx, "list", []string{"today"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	assert.True(t, strings.HasPrefix(lines[0], "WHEN"))
	assert.Contains(t, lines[1], "135/85")
	assert.Contains(t, lines[1], "coffee")
	assert.Contains(t, lines[1], "now")
	assert.Contains(t, lines[2], "120/80")
	assert.Contains(t, out.String(), "2 shown (Today)")
}

func TestListEmptyAndBadRange(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.Equal(t, 0, a.run(ctx, "list", nil))
	assert.Contains(t, out.String(), "No readings")

	assert.Equal(t, 2, a.run(ctx, "list", []string{"decade"}))
	assert.Equal(t, 2, a.run(ctx, "trends", []string{"decade"}))
}

func TestTrends(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.Equal(t, 0, a.run(ctx, "add", []string{"120", "80", "-pulse", "60"}))
	require.Equal(t, 0, a.run(ctx, "add", []string{"130", "84"}))
	out.Reset()

	require.Equal(t, 0, a.run(ctx, "trends", []string{"week"}))
	s := out.String()
	assert.Contains(t, s, "Average:   125/82 mmHg - Elevated")
	assert.Contains(t, s, "Pulse:     60 bpm (1 of 2 readings)")
	assert.Contains(t, s, "systolic")
	assert.NotContains(t, s, "\x1b[", "no color when not a terminal")
}

func TestDeleteAndClear(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.Equal(t, 0, a.run(ctx, "add", []string{"120", "80"}))
	require.Equal(t, 0, a.run(ctx, "add", []string{"121", "80"}))

	require.Equal(t, 0, a.run(ctx, "delete", []string{"r1"}))
	assert.Contains(t, out.String(), "Deleted r1")

	assert.Equal(t, 1, a.run(ctx, "clear", nil), "requires confirmation")
	readings, _ := a.tracker.Readings(ctx)
	assert.Len(t, readings, 1)

	require.Equal(t, 0, a.run(ctx, "clear", []string{"-yes"}))
	readings, _ = a.tracker.Readings(ctx)
	assert.Empty(t, readings)
}

func TestExportImport(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.Equal(t, 0, a.run(ctx, "add", []string{"120", "80", "-notes", `said "hi"`}))

	path := filepath.Join(t.TempDir(), "out.csv")
	require.Equal(t, 0, a.run(ctx, "export", []string{path}))
	assert.Contains(t, out.String(), "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"said ""hi"""`)

	b, bout := newTestApp(t)
	require.Equal(t, 0, b.run(ctx, "import", []string{path}), bout.String())
	assert.Contains(t, bout.String(), "Imported 1, skipped 0, rejected 0")
}

func TestExportToStdout(t *testing.T) {
	a, out := newTestApp(t)
	require.Equal(t, 0, a.run(context.Background(), "export", []string{"-"}))
	assert.Equal(t, "\"Date\",\"Systolic\",\"Diastolic\",\"Pulse\",\"Notes\"\n", out.String())
}

func TestImportMissingFile(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, 1, a.run(context.Background(), "import", []string{filepath.Join(t.TempDir(), "nope.csv")}))
}

func TestSettingsCommand(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.Equal(t, 0, a.run(ctx, "settings", nil))
	assert.Contains(t, out.String(), "theme             system")

	out.Reset()
	require.Equal(t, 0, a.run(ctx, "settings", []string{"reminder_time", "07:15"}))
	assert.Contains(t, out.String(), "reminder_time     07:15")

	assert.Equal(t, 1, a.run(ctx, "settings", []string{"theme", "neon"}))

	out.Reset()
	require.Equal(t, 0, a.run(ctx, "settings", []string{"reset"}))
	assert.Contains(t, out.String(), "reminder_time     20:00")
}

func TestUnknownCommand(t *testing.T) {
	a, out := newTestApp(t)
	assert.Equal(t, 2, a.run(context.Background(), "frobnicate", nil))
	assert.Contains(t, out.String(), "Unknown command")
}

func TestConsoleLevel(t *testing.T) {
	assert.Equal(t, "warn", consoleLevel("list", "info"))
	assert.Equal(t, "warn", consoleLevel("list", ""))
	assert.Equal(t, "debug", consoleLevel("list", "debug"))
	assert.Equal(t, "info", consoleLevel("serve", "info"))
}
