// Package validate implements the two JSON-shape validators from spec §4.D:
// DashboardTemplate and FillResponse. Both return a slice of human-readable
// error strings; an empty slice means valid.
package validate

import (
	"fmt"

	"github.com/openclaw/plashboard/internal/domain"
)

// TemplateShape validates a template's own shape — id, schedule, field specs —
// independent of whether its pointers resolve in base_dashboard (that is
// merge.ValidateFieldPointers's job) or whether its base document is
// publishable (the writer's job, via publisher.ValidateOnly).
func TemplateShape(t *domain.Template) []string {
	var errs []string

	if !domain.ValidID(t.ID) {
		errs = append(errs, fmt.Sprintf("id %q does not match pattern %s", t.ID, domain.IDPattern.String()))
	}
	if t.Name == "" {
		errs = append(errs, "name is required")
	}
	if t.BaseDashboard == nil {
		errs = append(errs, "base_dashboard is required")
	} else if _, ok := t.BaseDashboard.(map[string]any); !ok {
		errs = append(errs, "base_dashboard must be a JSON object")
	}

	if t.Schedule.Mode != domain.ScheduleModeInterval {
		errs = append(errs, fmt.Sprintf("schedule.mode must be %q", domain.ScheduleModeInterval))
	}
	if t.Schedule.EveryMinutes < 1 {
		errs = append(errs, "schedule.every_minutes must be >= 1")
	}

	seenID := map[string]bool{}
	seenPointer := map[string]bool{}
	for i, f := range t.Fields {
		if f.ID == "" {
			errs = append(errs, fmt.Sprintf("fields[%d]: id is required", i))
		} else if seenID[f.ID] {
			errs = append(errs, fmt.Sprintf("fields[%d]: duplicate field id %q", i, f.ID))
		}
		seenID[f.ID] = true

		if f.Pointer == "" {
			errs = append(errs, fmt.Sprintf("fields[%d]: pointer is required", i))
		} else if seenPointer[f.Pointer] {
			errs = append(errs, fmt.Sprintf("fields[%d]: duplicate pointer %q", i, f.Pointer))
		}
		seenPointer[f.Pointer] = true

		if !domain.ValidFieldType(string(f.Type)) {
			errs = append(errs, fmt.Sprintf("fields[%d]: unknown type %q", i, f.Type))
		}
		if f.Prompt == "" {
			errs = append(errs, fmt.Sprintf("fields[%d]: prompt is required", i))
		}
	}

	return errs
}
