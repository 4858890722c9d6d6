package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/plashboard/internal/config"
	"github.com/openclaw/plashboard/internal/filestore"
	"github.com/openclaw/plashboard/internal/fillrunner"
	"github.com/openclaw/plashboard/internal/publisher"
	"github.com/openclaw/plashboard/internal/runtime"
	"github.com/openclaw/plashboard/internal/scheduler"
	"github.com/openclaw/plashboard/internal/singleowner"
)

// app wires the same collaborators plashboardd does, so plashctl's
// Runtime-backed operations behave identically whether or not a daemon is
// currently attached to the data directory.
type app struct {
	cfg       *config.Config
	paths     filestore.Paths
	templates *filestore.TemplateStore
	states    *filestore.StateStore
	runs      *filestore.RunStore
	rt        *runtime.Runtime
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.ResolvePath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	} else {
		cfg.DataDir, err = config.AbsDataDir(cfg)
		if err != nil {
			return nil, err
		}
	}

	paths := filestore.Paths{DataDir: cfg.DataDir}
	templates := filestore.NewTemplateStore(paths)
	states := filestore.NewStateStore(paths)
	runs := filestore.NewRunStore(paths)

	writer := &publisher.Writer{
		PythonBin:           "python3",
		ScriptPath:          os.Getenv("PLASHBOARD_WRITER_SCRIPT"),
		OverflowTolerancePx: cfg.LayoutOverflowTolerancePx,
		SessionTimeout:      time.Duration(cfg.SessionTimeoutSeconds) * time.Second,
	}

	// plashctl never spawns a real fill provider on the operator's behalf for
	// read/CRUD operations; run-now needs a live one, so it is resolved from
	// cfg.FillProvider the same way plashboardd does.
	var runner fillrunner.Runner
	switch cfg.FillProvider {
	case config.FillProviderMock:
		runner = &fillrunner.Mock{}
	case config.FillProviderCommand:
		runner = &fillrunner.Command{
			Command:        cfg.FillCommand,
			Allow:          true,
			SessionTimeout: time.Duration(cfg.SessionTimeoutSeconds) * time.Second,
		}
	default:
		runner = &fillrunner.Agent{
			Binary:         openclawBinary(),
			AgentID:        cfg.OpenclawFillAgentID,
			SessionTimeout: time.Duration(cfg.SessionTimeoutSeconds) * time.Second,
		}
	}

	sched := scheduler.New(cfg, paths, templates, states, runs, runner, writer)
	rt := runtime.New(cfg, templates, states, writer, sched)

	return &app{cfg: cfg, paths: paths, templates: templates, states: states, runs: runs, rt: rt}, nil
}

// withLock acquires the single-owner lock for the duration of fn, failing
// fast with a clear message if plashboardd (or another plashctl) already
// holds it. Read-only subcommands do not call this: atomic rename guarantees
// a concurrent reader never observes a partial file.
func (a *app) withLock(fn func() error) error {
	guard, err := singleowner.Acquire(a.paths.LockFile())
	if err != nil {
		return err
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil {
			slog.Warn("plashctl: failed to release data dir lock", "error", rerr)
		}
	}()
	return fn()
}

// openclawBinary resolves the agent binary the same way plashboardd does.
func openclawBinary() string {
	if bin := os.Getenv("OPENCLAW_BIN"); bin != "" {
		return bin
	}
	return filepath.Join("/usr", "local", "bin", "openclaw")
}
