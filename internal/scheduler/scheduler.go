// Package scheduler is the runtime core of spec §4.H: a tick-driven loop
// that picks due, enabled templates, runs them through fill → merge →
// validate → publish with retry/repair policy, and records one run artifact
// per run. At most one run is ever in flight per template.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/plashboard/internal/atomicfile"
	"github.com/openclaw/plashboard/internal/config"
	"github.com/openclaw/plashboard/internal/domain"
	"github.com/openclaw/plashboard/internal/filestore"
	"github.com/openclaw/plashboard/internal/fillrunner"
	"github.com/openclaw/plashboard/internal/logging"
	"github.com/openclaw/plashboard/internal/merge"
	"github.com/openclaw/plashboard/internal/publisher"
	"github.com/openclaw/plashboard/internal/validate"
)

// Scheduler holds the resolved configuration, the file-backed stores, the
// fill runner and writer it drives, and the in-flight/tick-reentrancy guards.
type Scheduler struct {
	cfg       *config.Config
	paths     filestore.Paths
	templates *filestore.TemplateStore
	states    *filestore.StateStore
	runs      *filestore.RunStore
	runner    fillrunner.Runner
	writer    *publisher.Writer

	now func() time.Time

	mu          sync.Mutex
	inFlight    map[string]bool
	tickRunning bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New wires a Scheduler from its stores and collaborators.
func New(
	cfg *config.Config,
	paths filestore.Paths,
	templates *filestore.TemplateStore,
	states *filestore.StateStore,
	runs *filestore.RunStore,
	runner fillrunner.Runner,
	writer *publisher.Writer,
) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		paths:     paths,
		templates: templates,
		states:    states,
		runs:      runs,
		runner:    runner,
		writer:    writer,
		now:       time.Now,
		inFlight:  map[string]bool{},
	}
}

// Init is idempotent: it ensures the data directory exists, loads state,
// seeds the display profile when missing, and auto-seeds a starter template
// from a pre-existing live dashboard file when the template store is empty.
func (s *Scheduler) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir %s: %v", domain.ErrIO, s.paths.DataDir, err)
	}

	st, err := s.states.Load()
	if err != nil {
		return err
	}
	if st.DisplayProfile == nil {
		dp := s.cfg.DisplayProfile
		st.DisplayProfile = &dp
		if err := s.states.Save(st); err != nil {
			return err
		}
	}

	templates, err := s.templates.List()
	if err != nil {
		return err
	}
	if len(templates) == 0 && s.cfg.AutoSeedTemplate {
		if err := s.seedStarterTemplate(); err != nil {
			slog.Warn("scheduler: auto-seed skipped", "error", err)
		}
	}
	return nil
}

// seedStarterTemplate builds a disabled starter template from the existing
// live dashboard file, if one is readable. It never enables or activates the
// seeded template — that is left to the operator.
func (s *Scheduler) seedStarterTemplate() error {
	if !atomicfile.Exists(s.cfg.DashboardOutputPath) {
		return fmt.Errorf("no existing dashboard at %s to seed from", s.cfg.DashboardOutputPath)
	}
	var base any
	if err := atomicfile.ReadJSON(s.cfg.DashboardOutputPath, &base); err != nil {
		return fmt.Errorf("%w: read existing dashboard: %v", domain.ErrIO, err)
	}

	t := &domain.Template{
		ID:            "starter",
		Name:          "Starter",
		Enabled:       false,
		Schedule:      domain.Schedule{Mode: domain.ScheduleModeInterval, EveryMinutes: 60},
		BaseDashboard: base,
	}
	if _, err := fieldRead(base, "/title"); err == nil {
		t.Fields = append(t.Fields, domain.FieldSpec{
			ID:      "title",
			Pointer: "/title",
			Type:    domain.FieldString,
			Prompt:  "Short dashboard title summarizing the current state.",
		})
	}

	if errs := validate.TemplateShape(t); len(errs) > 0 {
		return fmt.Errorf("%w: seeded template shape: %s", domain.ErrTemplateInvalid, strings.Join(errs, "; "))
	}
	if err := merge.ValidateFieldPointers(t); err != nil {
		return err
	}
	return s.templates.Create(t)
}

func fieldRead(base any, pointer string) (any, error) {
	obj, ok := base.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("base is not an object")
	}
	v, ok := obj[strings.TrimPrefix(pointer, "/")]
	if !ok {
		return nil, fmt.Errorf("missing %s", pointer)
	}
	if _, ok := v.(string); !ok {
		return nil, fmt.Errorf("%s is not a string", pointer)
	}
	return v, nil
}

// Start schedules ticks every scheduler_tick_seconds and dispatches one
// immediate tick right away. Stop cancels the timer.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(time.Duration(s.cfg.SchedulerTickSeconds) * time.Second)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the background goroutine and waits for it to exit. In-flight
// runs are not canceled — they are bounded by their own subprocess timeouts
// and backoff sleeps.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// tick is reentrancy-guarded: if a tick is already running, a new one
// returns immediately instead of queuing.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.tickRunning {
		s.mu.Unlock()
		return
	}
	s.tickRunning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.tickRunning = false
		s.mu.Unlock()
	}()

	templates, err := s.templates.List()
	if err != nil {
		slog.Error("scheduler: failed to list templates", "error", err)
		return
	}
	st, err := s.states.Load()
	if err != nil {
		slog.Error("scheduler: failed to load state", "error", err)
		return
	}
	now := s.now()

	for _, t := range templates {
		if !t.Enabled {
			continue
		}
		if !dueForRun(t, st, now) {
			continue
		}

		s.mu.Lock()
		if s.inFlight[t.ID] || len(s.inFlight) >= s.cfg.MaxParallelRuns {
			s.mu.Unlock()
			continue
		}
		s.inFlight[t.ID] = true
		s.mu.Unlock()

		go s.execute(context.WithoutCancel(ctx), t, domain.TriggerSchedule)
	}
}

// dueForRun implements spec §4.H's due-time policy: due when the template has
// never been attempted/succeeded, or when every_minutes has elapsed since the
// later of its last attempt and last success.
func dueForRun(t *domain.Template, st *domain.State, now time.Time) bool {
	rs := st.TemplateRuns[t.ID]

	var last time.Time
	var haveLast bool
	if v, ok := parseTimestamp(rs.LastAttemptAt); ok {
		last, haveLast = v, true
	}
	if v, ok := parseTimestamp(rs.LastSuccessAt); ok && (!haveLast || v.After(last)) {
		last, haveLast = v, true
	}
	if !haveLast {
		return true
	}
	return now.Sub(last) >= time.Duration(t.Schedule.EveryMinutes)*time.Minute
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return v, true
}

// RunNow executes templateID immediately, bypassing the due-time gate but
// still respecting the per-template in-flight set: a run-now request against
// an already in-flight template fails fast instead of queuing. It then writes
// a failed run artifact to the run store and returns it together with
// domain.ErrRunInProgress.
func (s *Scheduler) RunNow(ctx context.Context, templateID string) (*domain.RunArtifact, error) {
	t, err := s.templates.Get(templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, templateID)
	}

	s.mu.Lock()
	if s.inFlight[templateID] {
		s.mu.Unlock()
		err := fmt.Errorf("%w: template %s", domain.ErrRunInProgress, templateID)
		start := s.now()
		artifact := &domain.RunArtifact{
			TemplateID: templateID,
			Trigger:    domain.TriggerManual,
			StartedAt:  start.Format(time.RFC3339Nano),
			Status:     domain.LastStatusFailed,
			Errors:     []string{err.Error()},
		}
		s.finish(artifact, start, false)
		return artifact, err
	}
	s.inFlight[templateID] = true
	s.mu.Unlock()

	return s.execute(ctx, t, domain.TriggerManual), nil
}

// InFlightIDs returns a snapshot of templates currently mid-run, for status().
func (s *Scheduler) InFlightIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.inFlight))
	for id := range s.inFlight {
		out = append(out, id)
	}
	return out
}

// execute runs the full retry/repair loop for one template and returns
// exactly one run artifact. The caller must have already added t.ID to the
// in-flight set; execute removes it on return.
func (s *Scheduler) execute(ctx context.Context, t *domain.Template, trigger domain.Trigger) *domain.RunArtifact {
	start := s.now()
	artifact := &domain.RunArtifact{
		TemplateID: t.ID,
		Trigger:    trigger,
		StartedAt:  start.Format(time.RFC3339Nano),
	}
	ctx = logging.WithRunID(ctx, t.ID+"@"+artifact.StartedAt)

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, t.ID)
		s.mu.Unlock()
	}()

	if err := s.recordAttemptStart(t.ID, start); err != nil {
		artifact.Errors = append(artifact.Errors, err.Error())
		s.finish(artifact, start, false)
		return artifact
	}

	currentValues, err := merge.CollectCurrentValues(t)
	if err != nil {
		artifact.Errors = append(artifact.Errors, err.Error())
		s.recordFailure(t.ID, err)
		s.finish(artifact, start, false)
		return artifact
	}

	retryCount := t.RetryCount(s.cfg.DefaultRetryCount)
	repairAttempts := t.RepairAttempts()
	backoff := time.Duration(s.cfg.RetryBackoffSeconds) * time.Second

	var lastErr error
	success, published := false, false

retryLoop:
	for attempt := 0; attempt <= retryCount; attempt++ {
		artifact.AttemptCount++
		errorHint := ""
		for repair := 0; repair <= repairAttempts; repair++ {
			pub, err := s.attemptFill(ctx, t, currentValues, attempt, errorHint)
			if err == nil {
				success, published = true, pub
				break retryLoop
			}
			lastErr = err
			artifact.Errors = append(artifact.Errors, err.Error())
			if repair < repairAttempts {
				errorHint = err.Error()
				continue
			}
			slog.WarnContext(ctx, "scheduler: repair loop exhausted", "template_id", t.ID, "attempt", attempt, "error", err)
		}
		if attempt < retryCount {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break retryLoop
			case <-time.After(backoff):
			}
		}
	}

	if success {
		artifact.Status = domain.LastStatusSuccess
		artifact.Published = published
	} else {
		artifact.Status = domain.LastStatusFailed
		s.recordFailure(t.ID, lastErr)
	}

	s.finish(artifact, start, success)
	return artifact
}

func (s *Scheduler) finish(artifact *domain.RunArtifact, start time.Time, success bool) {
	finish := s.now()
	artifact.FinishedAt = finish.Format(time.RFC3339Nano)
	artifact.DurationMs = finish.Sub(start).Milliseconds()
	if artifact.Status == "" {
		artifact.Status = domain.LastStatusFailed
	}
	if err := s.runs.Write(artifact); err != nil {
		slog.Error("scheduler: failed to persist run artifact", "template_id", artifact.TemplateID, "error", err)
	}
}

// attemptFill runs one fill → shape-validate → merge → validate_only →
// snapshot → (maybe publish) sequence. Any failure anywhere in the chain
// aborts the attempt and returns the error for the repair/retry loop above to
// interpret. A failure before the snapshot write persists nothing; a failure
// after it (state load, publish, state save) leaves the rendered snapshot in
// place.
func (s *Scheduler) attemptFill(ctx context.Context, t *domain.Template, currentValues map[string]any, attempt int, errorHint string) (published bool, err error) {
	resp, err := s.runner.Run(ctx, fillrunner.FillContext{
		Template:      t,
		CurrentValues: currentValues,
		Attempt:       attempt,
		ErrorHint:     errorHint,
	})
	if err != nil {
		return false, err
	}

	if shapeErrs := validate.FillResponseShape(resp); len(shapeErrs) > 0 {
		return false, fmt.Errorf("%w: %s", domain.ErrFillShapeInvalid, strings.Join(shapeErrs, "; "))
	}
	values, _ := resp["values"].(map[string]any)

	merged, err := merge.Merge(t, values)
	if err != nil {
		return false, err
	}

	profile := s.effectiveDisplayProfile()
	if err := s.writer.ValidateOnly(ctx, merged, profile); err != nil {
		return false, err
	}

	if err := atomicfile.WriteJSON(s.paths.RenderedLatest(t.ID), merged); err != nil {
		return false, fmt.Errorf("%w: write rendered snapshot: %v", domain.ErrIO, err)
	}

	st, err := s.states.Load()
	if err != nil {
		return false, err
	}

	if st.ActiveTemplateID != nil && *st.ActiveTemplateID == t.ID {
		if err := s.writer.Publish(ctx, merged, profile, s.cfg.DashboardOutputPath); err != nil {
			return false, err
		}
		published = true
	}

	now := s.now().Format(time.RFC3339Nano)
	rs := st.TemplateRuns[t.ID]
	rs.LastSuccessAt = now
	rs.LastStatus = domain.LastStatusSuccess
	rs.LastError = ""
	st.TemplateRuns[t.ID] = rs
	if err := s.states.Save(st); err != nil {
		return false, err
	}

	return published, nil
}

func (s *Scheduler) recordAttemptStart(templateID string, at time.Time) error {
	st, err := s.states.Load()
	if err != nil {
		return err
	}
	rs := st.TemplateRuns[templateID]
	rs.LastAttemptAt = at.Format(time.RFC3339Nano)
	st.TemplateRuns[templateID] = rs
	return s.states.Save(st)
}

func (s *Scheduler) recordFailure(templateID string, cause error) {
	st, err := s.states.Load()
	if err != nil {
		slog.Error("scheduler: failed to load state while recording failure", "template_id", templateID, "error", err)
		return
	}
	rs := st.TemplateRuns[templateID]
	rs.LastStatus = domain.LastStatusFailed
	if cause != nil {
		rs.LastError = cause.Error()
	}
	st.TemplateRuns[templateID] = rs
	if err := s.states.Save(st); err != nil {
		slog.Error("scheduler: failed to persist failure state", "template_id", templateID, "error", err)
	}
}

// effectiveDisplayProfile reads the profile currently in state, falling back
// to config defaults if state has none (Init should prevent this, but a
// concurrent reader is not guaranteed to see Init's write in every test
// harness).
func (s *Scheduler) effectiveDisplayProfile() domain.DisplayProfile {
	st, err := s.states.Load()
	if err != nil || st.DisplayProfile == nil {
		return s.cfg.DisplayProfile
	}
	return *st.DisplayProfile
}
