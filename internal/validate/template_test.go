package validate

import (
	"testing"

	"github.com/openclaw/plashboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func validTemplate() *domain.Template {
	return &domain.Template{
		ID:   "ops",
		Name: "Ops",
		Schedule: domain.Schedule{
			Mode:         domain.ScheduleModeInterval,
			EveryMinutes: 15,
		},
		BaseDashboard: map[string]any{"title": "X", "summary": "old"},
		Fields: []domain.FieldSpec{
			{ID: "summary", Pointer: "/summary", Type: domain.FieldString, Prompt: "Summarize"},
		},
	}
}

func TestTemplateShapeValid(t *testing.T) {
	assert.Empty(t, TemplateShape(validTemplate()))
}

func TestTemplateShapeRejectsBadID(t *testing.T) {
	tmpl := validTemplate()
	tmpl.ID = "Not Valid!"
	assert.NotEmpty(t, TemplateShape(tmpl))
}

func TestTemplateShapeRejectsDuplicateFieldIDsAndPointers(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Fields = append(tmpl.Fields, tmpl.Fields[0])
	errs := TemplateShape(tmpl)
	assert.NotEmpty(t, errs)
}

func TestTemplateShapeRejectsBadSchedule(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Schedule.EveryMinutes = 0
	assert.NotEmpty(t, TemplateShape(tmpl))
}

func TestFillResponseShapeValid(t *testing.T) {
	assert.Empty(t, FillResponseShape(map[string]any{"values": map[string]any{"summary": "x"}}))
}

func TestFillResponseShapeRejectsExtraKeys(t *testing.T) {
	errs := FillResponseShape(map[string]any{"values": map[string]any{}, "extra": 1})
	assert.NotEmpty(t, errs)
}

func TestFillResponseShapeRejectsMissingValues(t *testing.T) {
	errs := FillResponseShape(map[string]any{"other": 1})
	assert.NotEmpty(t, errs)
}
