package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/journey/internal/config"
	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/testutil"
)

// t0 is Monday 2026-03-02 09:00 UTC.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// cliEnv runs commands against one database file with a manual clock and
// sequential IDs, so a test can chain commands like a shell session.
type cliEnv struct {
	t     *testing.T
	cfg   *config.Config
	clock *testutil.ManualClock
	ids   *journey.SequenceGenerator
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		t: t,
		cfg: &config.Config{
			DBPath:     filepath.Join(t.TempDir(), "journey.db"),
			LogLevel:   slog.LevelInfo,
			LTVBuckets: config.DefaultLTVBuckets,
			PathLimit:  config.DefaultPathLimit,
			Format:     config.DefaultFormat,
		},
		clock: testutil.NewManualClock(t0),
		ids:   journey.NewSequenceGenerator("id"),
	}
}

// run executes the root command with args and returns stdout, stderr and
// the command error.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	opts := &RootOptions{Config: e.cfg, Clock: e.clock, IDs: e.ids}
	cmd := newRootCommand(opts)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRun executes a command that is expected to succeed.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return stdout
}

// runJSON executes a command with --format json and decodes its data.
func (e *cliEnv) runJSON(data any, args ...string) {
	e.t.Helper()
	stdout := e.mustRun(append(args, "--format", "json")...)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(e.t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(e.t, "ok", resp.Status)
	require.NoError(e.t, json.Unmarshal(resp.Data, data))
}

// seedTwoStages registers Awareness(page_view) and Purchase(checkout).
func (e *cliEnv) seedTwoStages() {
	e.t.Helper()
	e.mustRun("stage", "add", "Awareness", "--order", "1", "--entry", "page_view")
	e.mustRun("stage", "add", "Purchase", "--order", "2", "--entry", "checkout")
}
