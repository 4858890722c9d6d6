package publisher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openclaw/plashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter writes a shell script standing in for the real Python writer,
// mirroring how fillrunner's Command tests stand in for a real provider.
func fakeWriter(t *testing.T, script string) *Writer {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return &Writer{
		PythonBin:           "/bin/sh",
		ScriptPath:          path,
		OverflowTolerancePx: 40,
		SessionTimeout:      5 * time.Second,
	}
}

func TestValidateOnlyPassesOnZeroExit(t *testing.T) {
	w := fakeWriter(t, "exit 0")
	err := w.ValidateOnly(context.Background(), map[string]any{"a": 1}, domain.DefaultDisplayProfile())
	assert.NoError(t, err)
}

func TestValidateOnlyClassifiesLayoutFailure(t *testing.T) {
	w := fakeWriter(t, "echo 'layout budget exceeded' 1>&2; exit 1")
	err := w.ValidateOnly(context.Background(), map[string]any{"a": 1}, domain.DefaultDisplayProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLayoutBudgetExceeded)
}

func TestValidateOnlyClassifiesSchemaFailure(t *testing.T) {
	w := fakeWriter(t, "echo 'unknown field widget_x' 1>&2; exit 1")
	err := w.ValidateOnly(context.Background(), map[string]any{"a": 1}, domain.DefaultDisplayProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestPublishWritesToLivePathViaScript(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "dashboard.json")
	// the fake writer receives --output <livePath> and is responsible for
	// producing it, same contract as the real Python writer.
	w := fakeWriter(t, `
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
echo '{"published": true}' > "$out"
`)
	err := w.Publish(context.Background(), map[string]any{"a": 1}, domain.DefaultDisplayProfile(), live)
	require.NoError(t, err)
	data, err := os.ReadFile(live)
	require.NoError(t, err)
	assert.Contains(t, string(data), "published")
}

func TestInvokeTimesOutAndKillsChild(t *testing.T) {
	// w.timeout() floors at 15s (see TestTimeoutFloorsAtFifteenSeconds), so a
	// short SessionTimeout alone would not produce a real timeout here. Passing
	// a context with its own short deadline exercises the genuine kill-on-
	// timeout path without waiting out the floor: context.WithTimeout inside
	// invoke honors whichever deadline — ours or the floor — comes first.
	w := fakeWriter(t, "sleep 5")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := w.ValidateOnly(ctx, map[string]any{"a": 1}, domain.DefaultDisplayProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLayoutBudgetExceeded)
}

func TestTimeoutFloorsAtFifteenSeconds(t *testing.T) {
	w := &Writer{SessionTimeout: 100 * time.Millisecond}
	assert.Equal(t, 15*time.Second, w.timeout())

	w.SessionTimeout = 30 * time.Second
	assert.Equal(t, 30*time.Second, w.timeout())
}

func TestInvokeRejectsUnconfiguredScript(t *testing.T) {
	w := &Writer{}
	err := w.ValidateOnly(context.Background(), map[string]any{}, domain.DefaultDisplayProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestInvokeCleansUpTempDir(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "dashboard.json")
	w := fakeWriter(t, "exit 0")
	require.NoError(t, w.Publish(context.Background(), map[string]any{"a": 1}, domain.DefaultDisplayProfile(), live))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".plashboard-writer-", "temp dir should be cleaned up after invoke")
	}
}
