// Package fillrunner implements the pluggable fill providers of spec §4.F:
// Mock, Command, and Agent variants behind one Runner interface, plus the
// shared prompt construction and output-parsing logic they all use.
package fillrunner

import (
	"context"
	"time"

	"github.com/openclaw/plashboard/internal/domain"
)

// FillContext is everything a provider needs to produce a FillResponse for
// one fill attempt.
type FillContext struct {
	Template      *domain.Template
	CurrentValues map[string]any
	Attempt       int
	ErrorHint     string
}

// Runner produces a raw, not-yet-shape-validated fill response (a JSON object
// expected to carry a "values" key) for a FillContext. The scheduler holds one
// Runner and does not care which variant it is.
type Runner interface {
	Run(ctx context.Context, fc FillContext) (map[string]any, error)
}

// promptField is one entry of the prompt's "fields" array.
type promptField struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Prompt       string `json:"prompt"`
	Required     bool   `json:"required"`
	Constraints  any    `json:"constraints,omitempty"`
	CurrentValue any    `json:"current_value"`
}

// promptTemplate is the "template" sub-object of the prompt.
type promptTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Context any    `json:"context,omitempty"`
}

// Prompt is the deterministic JSON object sent to Command and Agent providers.
type Prompt struct {
	Instructions          string         `json:"instructions"`
	Template              promptTemplate `json:"template"`
	Fields                []promptField  `json:"fields"`
	ExpectedResponseSchema any           `json:"expected_response_schema"`
	ErrorHint             string         `json:"error_hint,omitempty"`
}

// BuildPrompt assembles the deterministic prompt object for fc.
func BuildPrompt(fc FillContext) Prompt {
	fields := make([]promptField, len(fc.Template.Fields))
	for i, f := range fc.Template.Fields {
		fields[i] = promptField{
			ID:           f.ID,
			Type:         string(f.Type),
			Prompt:       f.Prompt,
			Required:     f.IsRequired(),
			Constraints:  f.Constraints,
			CurrentValue: fc.CurrentValues[f.ID],
		}
	}

	return Prompt{
		Instructions: "Produce a JSON object of the form {\"values\": {field_id: value, ...}} " +
			"filling every required field listed below. Use current_value as a hint for continuity.",
		Template: promptTemplate{
			ID:      fc.Template.ID,
			Name:    fc.Template.Name,
			Context: fc.Template.Context,
		},
		Fields: fields,
		ExpectedResponseSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"values": map[string]any{"type": "object"}},
			"required":   []string{"values"},
		},
		ErrorHint: fc.ErrorHint,
	}
}

// timeoutFor returns the provider-specific hard subprocess timeout.
func timeoutFor(seconds int, extra time.Duration) time.Duration {
	return time.Duration(seconds)*time.Second + extra
}
