package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/plashboard/internal/config"
	"github.com/openclaw/plashboard/internal/domain"
	"github.com/openclaw/plashboard/internal/filestore"
	"github.com/openclaw/plashboard/internal/fillrunner"
	"github.com/openclaw/plashboard/internal/publisher"
	"github.com/openclaw/plashboard/internal/scheduler"
)

func acceptingWriter(t *testing.T) *publisher.Writer {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.sh")
	script := "#!/bin/sh\nwhile [ $# -gt 0 ]; do case \"$1\" in --output) out=\"$2\"; shift 2;; *) shift;; esac; done\n[ -n \"$out\" ] && echo '{}' > \"$out\"\nexit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return &publisher.Writer{PythonBin: "/bin/sh", ScriptPath: path, SessionTimeout: 2 * time.Second}
}

func rejectingWriter(t *testing.T) *publisher.Writer {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "writer.sh")
	script := "#!/bin/sh\necho 'layout budget exceeded' 1>&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return &publisher.Writer{PythonBin: "/bin/sh", ScriptPath: path, SessionTimeout: 2 * time.Second}
}

func newTestRuntime(t *testing.T, writer *publisher.Writer) (*Runtime, filestore.Paths) {
	t.Helper()
	dataDir := t.TempDir()
	paths := filestore.Paths{DataDir: dataDir}
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.DashboardOutputPath = filepath.Join(dataDir, "dashboard.json")
	cfg.AutoSeedTemplate = false

	templates := filestore.NewTemplateStore(paths)
	states := filestore.NewStateStore(paths)
	runs := filestore.NewRunStore(paths)

	sched := scheduler.New(cfg, paths, templates, states, runs, &fillrunner.Mock{}, writer)
	require.NoError(t, sched.Init(context.Background()))

	return New(cfg, templates, states, writer, sched), paths
}

func validTemplate(id string) *domain.Template {
	return &domain.Template{
		ID:      id,
		Name:    "Template " + id,
		Enabled: true,
		Schedule: domain.Schedule{
			Mode:         domain.ScheduleModeInterval,
			EveryMinutes: 30,
		},
		BaseDashboard: map[string]any{"title": "hello"},
		Fields: []domain.FieldSpec{
			{ID: "title", Pointer: "/title", Type: domain.FieldString, Prompt: "p"},
		},
	}
}

func TestTemplateCreateSucceedsAndBecomesActive(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))

	res := rt.TemplateCreate(context.Background(), validTemplate("ops"))
	require.True(t, res.OK, res.Errors)

	st, err := filestore.NewStateStore(paths).Load()
	require.NoError(t, err)
	require.NotNil(t, st.ActiveTemplateID)
	assert.Equal(t, "ops", *st.ActiveTemplateID)
}

func TestTemplateCreateSecondDoesNotStealActive(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))

	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("first")).OK)
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("second")).OK)

	st, err := filestore.NewStateStore(paths).Load()
	require.NoError(t, err)
	assert.Equal(t, "first", *st.ActiveTemplateID)
}

func TestTemplateCreateRejectsBadShape(t *testing.T) {
	rt, _ := newTestRuntime(t, acceptingWriter(t))
	bad := validTemplate("Bad Id!")
	res := rt.TemplateCreate(context.Background(), bad)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Errors)
}

func TestTemplateCreateRejectsUnpublishableTemplate(t *testing.T) {
	rt, _ := newTestRuntime(t, rejectingWriter(t))
	res := rt.TemplateCreate(context.Background(), validTemplate("ops"))
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Errors)
}

func TestTemplateCopyDeepClonesAndDefaultsName(t *testing.T) {
	rt, _ := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("src")).OK)

	res := rt.TemplateCopy(context.Background(), "src", "dst", nil, false)
	require.True(t, res.OK, res.Errors)

	cp := res.Data.(*domain.Template)
	assert.Equal(t, "dst", cp.ID)
	assert.Equal(t, "Template src Copy", cp.Name)

	// mutate the copy's base dashboard and confirm the source is untouched
	cp.BaseDashboard.(map[string]any)["title"] = "mutated"
	src, err := filestore.NewTemplateStore(filestore.Paths{DataDir: rt.cfg.DataDir}).Get("src")
	require.NoError(t, err)
	assert.Equal(t, "hello", src.BaseDashboard.(map[string]any)["title"])
}

func TestTemplateCopyRejectsExistingDestination(t *testing.T) {
	rt, _ := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("src")).OK)
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("dst")).OK)

	res := rt.TemplateCopy(context.Background(), "src", "dst", nil, false)
	assert.False(t, res.OK)
}

func TestTemplateCopyActivatesWhenRequested(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("first")).OK)

	res := rt.TemplateCopy(context.Background(), "first", "second", nil, true)
	require.True(t, res.OK, res.Errors)

	st, err := filestore.NewStateStore(paths).Load()
	require.NoError(t, err)
	assert.Equal(t, "second", *st.ActiveTemplateID)
}

func TestTemplateDeleteReassignsActiveToFirstRemaining(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("a")).OK)
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("b")).OK)

	res := rt.TemplateDelete(context.Background(), "a")
	require.True(t, res.OK, res.Errors)

	st, err := filestore.NewStateStore(paths).Load()
	require.NoError(t, err)
	require.NotNil(t, st.ActiveTemplateID)
	assert.Equal(t, "b", *st.ActiveTemplateID)
}

func TestTemplateDeleteClearsActiveWhenLastRemoved(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("only")).OK)

	res := rt.TemplateDelete(context.Background(), "only")
	require.True(t, res.OK, res.Errors)

	st, err := filestore.NewStateStore(paths).Load()
	require.NoError(t, err)
	assert.Nil(t, st.ActiveTemplateID)
}

func TestTemplateActivateDoesNotTriggerRun(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("a")).OK)
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("b")).OK)

	res := rt.TemplateActivate(context.Background(), "b")
	require.True(t, res.OK, res.Errors)

	st, err := filestore.NewStateStore(paths).Load()
	require.NoError(t, err)
	assert.Equal(t, "b", *st.ActiveTemplateID)

	runs, err := filestore.NewRunStore(paths).Latest("b", 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "activation alone must not produce a run artifact")
}

func TestDisplayProfileSetPartialMergeAndClamp(t *testing.T) {
	rt, paths := newTestRuntime(t, acceptingWriter(t))
	stateStore := filestore.NewStateStore(paths)
	st, err := stateStore.Load()
	require.NoError(t, err)
	dp := domain.DefaultDisplayProfile()
	st.DisplayProfile = &dp
	require.NoError(t, stateStore.Save(st))

	width := -50
	height := 4000
	res := rt.DisplayProfileSet(context.Background(), DisplayProfilePatch{WidthPx: &width, HeightPx: &height})
	require.True(t, res.OK, res.Errors)

	updated := res.Data.(domain.DisplayProfile)
	assert.Equal(t, 320, updated.WidthPx, "negative width should clamp to the minimum")
	assert.Equal(t, 4000, updated.HeightPx)
	assert.Equal(t, domain.DefaultDisplayProfile().SafeTopPx, updated.SafeTopPx, "unset fields keep their current value")
}

func TestStatusReportsCountsAndInFlight(t *testing.T) {
	rt, _ := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("a")).OK)
	enabledOff := validTemplate("b")
	enabledOff.Enabled = false
	require.True(t, rt.TemplateCreate(context.Background(), enabledOff).OK)

	res := rt.Status(context.Background())
	require.True(t, res.OK, res.Errors)

	snap := res.Data.(StatusSnapshot)
	assert.Equal(t, 2, snap.TemplateCount)
	assert.Equal(t, 1, snap.EnabledCount)
	assert.Equal(t, "a", *snap.ActiveTemplateID)
	assert.Empty(t, snap.InFlight)
}

func TestRunNowDelegatesToScheduler(t *testing.T) {
	rt, _ := newTestRuntime(t, acceptingWriter(t))
	require.True(t, rt.TemplateCreate(context.Background(), validTemplate("a")).OK)

	res := rt.RunNow(context.Background(), "a")
	require.True(t, res.OK, res.Errors)

	artifact := res.Data.(*domain.RunArtifact)
	assert.Equal(t, domain.LastStatusSuccess, artifact.Status)
}

func TestRunNowUnknownTemplateFails(t *testing.T) {
	rt, _ := newTestRuntime(t, acceptingWriter(t))
	res := rt.RunNow(context.Background(), "nope")
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Errors)
}
