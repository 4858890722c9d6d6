// Package publisher wraps the external dashboard writer — an out-of-process
// script that enforces the document contract and layout budget — through a
// command runner, implementing spec §4.G's validate-only and publish modes.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openclaw/plashboard/internal/domain"
)

// Writer is the configured external document writer.
type Writer struct {
	PythonBin      string
	ScriptPath     string
	OverflowTolerancePx int
	SessionTimeout time.Duration
}

// timeout returns the greater of 15s and the configured session timeout.
func (w *Writer) timeout() time.Duration {
	if w.SessionTimeout > 15*time.Second {
		return w.SessionTimeout
	}
	return 15 * time.Second
}

// ValidateOnly asks the writer to check payload against the contract and
// layout budget for the given display profile, without publishing anything.
func (w *Writer) ValidateOnly(ctx context.Context, payload any, profile domain.DisplayProfile) error {
	return w.invoke(ctx, payload, profile, "", true)
}

// Publish asks the writer to validate payload and, if it passes, atomically
// replace livePath with it. The writer performs its own atomic rename.
func (w *Writer) Publish(ctx context.Context, payload any, profile domain.DisplayProfile, livePath string) error {
	return w.invoke(ctx, payload, profile, livePath, false)
}

func (w *Writer) invoke(ctx context.Context, payload any, profile domain.DisplayProfile, livePath string, validateOnly bool) error {
	if w.ScriptPath == "" {
		return fmt.Errorf("%w: writer script is not configured", domain.ErrConfigInvalid)
	}

	dir := filepath.Dir(livePath)
	if dir == "." || dir == "" {
		dir = os.TempDir()
	}
	tmpDir, err := os.MkdirTemp(dir, ".plashboard-writer-"+uuid.NewString()[:8])
	if err != nil {
		return fmt.Errorf("%w: create writer temp dir: %v", domain.ErrIO, err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "payload.json")
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", domain.ErrIO, err)
	}
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write writer input: %v", domain.ErrIO, err)
	}

	bin := w.PythonBin
	if bin == "" {
		bin = "python3"
	}
	args := []string{w.ScriptPath, "--input", inputPath}
	if validateOnly {
		args = append(args, "--validate-only")
	} else {
		args = append(args, "--output", livePath)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Env = append(cmd.Environ(), w.envVars(profile)...)
	cmd.Cancel = func() error { return cmd.Process.Kill() }

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return nil
	}

	if runCtx.Err() != nil {
		return fmt.Errorf("%w: writer timed out after %s", domain.ErrLayoutBudgetExceeded, w.timeout())
	}
	return classifyWriterFailure(stderr.String())
}

func (w *Writer) envVars(p domain.DisplayProfile) []string {
	return []string{
		"VIEWPORT_HEIGHT=" + strconv.Itoa(p.HeightPx),
		"SAFETY_MARGIN=" + strconv.Itoa(p.LayoutSafetyMarginPx),
		"OVERFLOW_TOLERANCE=" + strconv.Itoa(w.OverflowTolerancePx),
		"FRAME_TOP=" + strconv.Itoa(p.SafeTopPx),
		"FRAME_BOTTOM=" + strconv.Itoa(p.SafeBottomPx),
	}
}

// classifyWriterFailure turns the writer's stderr into the two failure kinds
// spec §4.G distinguishes. Stderr mentioning "layout", "budget" or
// "overflow" (case-insensitive) is a layout-budget failure; anything else is
// treated as a schema rejection.
func classifyWriterFailure(stderr string) error {
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "layout") || strings.Contains(lower, "budget") || strings.Contains(lower, "overflow") {
		return fmt.Errorf("%w: %s", domain.ErrLayoutBudgetExceeded, stderr)
	}
	return fmt.Errorf("%w: %s", domain.ErrSchemaInvalid, stderr)
}
