package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openclaw/plashboard/internal/config"
	"github.com/openclaw/plashboard/internal/domain"
	"github.com/openclaw/plashboard/internal/filestore"
	"github.com/openclaw/plashboard/internal/merge"
	"github.com/openclaw/plashboard/internal/publisher"
	"github.com/openclaw/plashboard/internal/scheduler"
	"github.com/openclaw/plashboard/internal/validate"
)

// Runtime implements spec §4.I's operator-facing operations on top of the
// file stores and the scheduler that owns in-flight run state.
type Runtime struct {
	cfg       *config.Config
	templates *filestore.TemplateStore
	states    *filestore.StateStore
	writer    *publisher.Writer
	scheduler *scheduler.Scheduler
}

// New wires a Runtime from its collaborators.
func New(cfg *config.Config, templates *filestore.TemplateStore, states *filestore.StateStore, writer *publisher.Writer, sched *scheduler.Scheduler) *Runtime {
	return &Runtime{cfg: cfg, templates: templates, states: states, writer: writer, scheduler: sched}
}

// DisplayProfilePatch is a partial update over the current display profile;
// nil fields are left unchanged.
type DisplayProfilePatch struct {
	WidthPx              *int
	HeightPx             *int
	SafeTopPx            *int
	SafeBottomPx         *int
	SafeSidePx           *int
	LayoutSafetyMarginPx *int
}

// StatusSnapshot is the data payload returned by Status.
type StatusSnapshot struct {
	ActiveTemplateID *string       `json:"active_template_id"`
	TemplateCount    int           `json:"template_count"`
	EnabledCount     int           `json:"enabled_count"`
	InFlight         []string      `json:"in_flight"`
	State            *domain.State `json:"state"`
}

// TemplateCreate validates shape, field pointers, and publishability (a
// validate_only round trip using the base document's own current values)
// before persisting. If no template is currently active, the new one
// becomes active.
func (rt *Runtime) TemplateCreate(ctx context.Context, t *domain.Template) Result {
	if errs := validate.TemplateShape(t); len(errs) > 0 {
		return fail(errs...)
	}
	if err := merge.ValidateFieldPointers(t); err != nil {
		return fail(err.Error())
	}
	if err := rt.checkPublishable(ctx, t); err != nil {
		return fail(err.Error())
	}

	if err := rt.templates.Create(t); err != nil {
		return fail(err.Error())
	}

	st, err := rt.states.Load()
	if err != nil {
		return fail(err.Error())
	}
	if st.ActiveTemplateID == nil {
		id := t.ID
		st.ActiveTemplateID = &id
		if err := rt.states.Save(st); err != nil {
			return fail(err.Error())
		}
	}
	return ok(t)
}

// checkPublishable merges the template's own current field values into a
// clone of its base document and runs it through the writer's validate_only
// mode, the same gate a real fill response must clear.
func (rt *Runtime) checkPublishable(ctx context.Context, t *domain.Template) error {
	currentValues, err := merge.CollectCurrentValues(t)
	if err != nil {
		return err
	}
	merged, err := merge.Merge(t, currentValues)
	if err != nil {
		return err
	}
	return rt.writer.ValidateOnly(ctx, merged, rt.effectiveDisplayProfile())
}

// TemplateCopy deep-clones src under the new id dst. The new template is
// activated iff requested or no template is currently active.
func (rt *Runtime) TemplateCopy(ctx context.Context, src, dst string, newName *string, activate bool) Result {
	if !domain.ValidID(dst) {
		return fail(fmt.Sprintf("id %q does not match pattern %s", dst, domain.IDPattern.String()))
	}
	if existing, err := rt.templates.Get(dst); err != nil {
		return fail(err.Error())
	} else if existing != nil {
		return fail(fmt.Sprintf("template %q already exists", dst))
	}

	source, err := rt.templates.Get(src)
	if err != nil {
		return fail(err.Error())
	}
	if source == nil {
		return fail(fmt.Sprintf("template %q not found", src))
	}

	clone, err := deepCloneTemplate(source)
	if err != nil {
		return fail(err.Error())
	}
	clone.ID = dst
	if newName != nil && *newName != "" {
		clone.Name = *newName
	} else {
		clone.Name = source.Name + " Copy"
	}

	if err := rt.templates.Create(clone); err != nil {
		return fail(err.Error())
	}

	st, err := rt.states.Load()
	if err != nil {
		return fail(err.Error())
	}
	if activate || st.ActiveTemplateID == nil {
		id := clone.ID
		st.ActiveTemplateID = &id
		if err := rt.states.Save(st); err != nil {
			return fail(err.Error())
		}
	}
	return ok(clone)
}

func deepCloneTemplate(t *domain.Template) (*domain.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: clone template: %v", domain.ErrIO, err)
	}
	var clone domain.Template
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("%w: clone template: %v", domain.ErrIO, err)
	}
	return &clone, nil
}

// TemplateDelete removes id and, if it was active, reassigns active status
// to the first remaining template in ascending id order, or clears it.
func (rt *Runtime) TemplateDelete(ctx context.Context, id string) Result {
	existing, err := rt.templates.Get(id)
	if err != nil {
		return fail(err.Error())
	}
	if existing == nil {
		return fail(fmt.Sprintf("template %q not found", id))
	}
	if err := rt.templates.Remove(id); err != nil {
		return fail(err.Error())
	}

	st, err := rt.states.Load()
	if err != nil {
		return fail(err.Error())
	}
	if st.ActiveTemplateID != nil && *st.ActiveTemplateID == id {
		remaining, err := rt.templates.List()
		if err != nil {
			return fail(err.Error())
		}
		if len(remaining) > 0 {
			newActive := remaining[0].ID
			st.ActiveTemplateID = &newActive
		} else {
			st.ActiveTemplateID = nil
		}
		if err := rt.states.Save(st); err != nil {
			return fail(err.Error())
		}
	}
	return ok(nil)
}

// TemplateActivate only changes active_template_id; it never triggers a run.
func (rt *Runtime) TemplateActivate(ctx context.Context, id string) Result {
	existing, err := rt.templates.Get(id)
	if err != nil {
		return fail(err.Error())
	}
	if existing == nil {
		return fail(fmt.Sprintf("template %q not found", id))
	}

	st, err := rt.states.Load()
	if err != nil {
		return fail(err.Error())
	}
	active := id
	st.ActiveTemplateID = &active
	if err := rt.states.Save(st); err != nil {
		return fail(err.Error())
	}
	return ok(nil)
}

// DisplayProfileSet partially merges patch over the current effective
// profile, clamps it, and persists it into state.
func (rt *Runtime) DisplayProfileSet(ctx context.Context, patch DisplayProfilePatch) Result {
	st, err := rt.states.Load()
	if err != nil {
		return fail(err.Error())
	}

	current := rt.effectiveDisplayProfileFrom(st)
	if patch.WidthPx != nil {
		current.WidthPx = *patch.WidthPx
	}
	if patch.HeightPx != nil {
		current.HeightPx = *patch.HeightPx
	}
	if patch.SafeTopPx != nil {
		current.SafeTopPx = *patch.SafeTopPx
	}
	if patch.SafeBottomPx != nil {
		current.SafeBottomPx = *patch.SafeBottomPx
	}
	if patch.SafeSidePx != nil {
		current.SafeSidePx = *patch.SafeSidePx
	}
	if patch.LayoutSafetyMarginPx != nil {
		current.LayoutSafetyMarginPx = *patch.LayoutSafetyMarginPx
	}
	current = current.Clamp()

	st.DisplayProfile = &current
	if err := rt.states.Save(st); err != nil {
		return fail(err.Error())
	}
	return ok(current)
}

// Status returns the active template id, template/enabled counts, in-flight
// ids, and the current state snapshot.
func (rt *Runtime) Status(ctx context.Context) Result {
	templates, err := rt.templates.List()
	if err != nil {
		return fail(err.Error())
	}
	enabled := 0
	for _, t := range templates {
		if t.Enabled {
			enabled++
		}
	}

	st, err := rt.states.Load()
	if err != nil {
		return fail(err.Error())
	}

	return ok(StatusSnapshot{
		ActiveTemplateID: st.ActiveTemplateID,
		TemplateCount:    len(templates),
		EnabledCount:     enabled,
		InFlight:         rt.scheduler.InFlightIDs(),
		State:            st,
	})
}

// RunNow triggers an immediate manual run of templateID, bypassing the
// due-time gate but not the in-flight guard.
func (rt *Runtime) RunNow(ctx context.Context, templateID string) Result {
	artifact, err := rt.scheduler.RunNow(ctx, templateID)
	if err != nil {
		return fail(err.Error())
	}
	return ok(artifact)
}

func (rt *Runtime) effectiveDisplayProfile() domain.DisplayProfile {
	st, err := rt.states.Load()
	if err != nil {
		return rt.cfg.DisplayProfile
	}
	return rt.effectiveDisplayProfileFrom(st)
}

func (rt *Runtime) effectiveDisplayProfileFrom(st *domain.State) domain.DisplayProfile {
	if st.DisplayProfile != nil {
		return *st.DisplayProfile
	}
	return rt.cfg.DisplayProfile
}
