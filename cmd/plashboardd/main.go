// plashboardd is the plashboard daemon. It owns a data directory, ticks the
// template scheduler, and keeps the live dashboard file in sync with
// whichever template is active.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/openclaw/plashboard/internal/config"
	"github.com/openclaw/plashboard/internal/filestore"
	"github.com/openclaw/plashboard/internal/fillrunner"
	"github.com/openclaw/plashboard/internal/logging"
	"github.com/openclaw/plashboard/internal/publisher"
	"github.com/openclaw/plashboard/internal/scheduler"
	"github.com/openclaw/plashboard/internal/singleowner"
)

func main() {
	logging.Setup(logging.Options{Level: slog.LevelInfo})

	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	dataDir, err := config.AbsDataDir(cfg)
	if err != nil {
		slog.Error("cannot resolve data directory", "error", err)
		os.Exit(1)
	}
	cfg.DataDir = dataDir

	paths := filestore.Paths{DataDir: dataDir}

	guard, err := singleowner.Acquire(paths.LockFile())
	if err != nil {
		slog.Error("cannot acquire data directory lock", "data_dir", dataDir, "error", err)
		os.Exit(1)
	}
	defer guard.Release()

	runner := buildRunner(cfg)
	writer := &publisher.Writer{
		PythonBin:           "python3",
		ScriptPath:          os.Getenv("PLASHBOARD_WRITER_SCRIPT"),
		OverflowTolerancePx: cfg.LayoutOverflowTolerancePx,
		SessionTimeout:      time.Duration(cfg.SessionTimeoutSeconds) * time.Second,
	}

	sched := scheduler.New(cfg, paths,
		filestore.NewTemplateStore(paths),
		filestore.NewStateStore(paths),
		filestore.NewRunStore(paths),
		runner,
		writer,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Init(ctx); err != nil {
		slog.Error("scheduler init failed", "error", err)
		os.Exit(1)
	}
	sched.Start(ctx)

	slog.Info("plashboardd started", "data_dir", dataDir, "tick_seconds", cfg.SchedulerTickSeconds)

	<-ctx.Done()
	slog.Info("received shutdown signal, stopping scheduler")
	sched.Stop()
	slog.Info("plashboardd shutdown complete")
}

func buildRunner(cfg *config.Config) fillrunner.Runner {
	timeout := time.Duration(cfg.SessionTimeoutSeconds) * time.Second
	switch cfg.FillProvider {
	case config.FillProviderMock:
		return &fillrunner.Mock{}
	case config.FillProviderCommand:
		return &fillrunner.Command{
			Command:        cfg.FillCommand,
			Allow:          true,
			SessionTimeout: timeout,
		}
	default: // config.FillProviderOpenclaw
		return &fillrunner.Agent{
			Binary:         openclawBinary(),
			AgentID:        cfg.OpenclawFillAgentID,
			SessionTimeout: timeout,
		}
	}
}

func openclawBinary() string {
	if bin := os.Getenv("OPENCLAW_BIN"); bin != "" {
		return bin
	}
	return filepath.Join("/usr", "local", "bin", "openclaw")
}
