package fillrunner

import (
	"context"
	"fmt"
	"time"

	"github.com/openclaw/plashboard/internal/domain"
)

// Mock is a synchronous fill provider that never fails. For each field it
// returns the current value when it is type-compatible, else a type-default
// placeholder. Useful for tests, S1/S2 style scenarios, and as a safe default
// before a real provider is configured.
type Mock struct {
	// Now lets tests pin the synthetic-timestamp placeholder; defaults to
	// time.Now when nil.
	Now func() time.Time
}

func (m *Mock) Run(_ context.Context, fc FillContext) (map[string]any, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	values := make(map[string]any, len(fc.Template.Fields))
	for _, f := range fc.Template.Fields {
		current := fc.CurrentValues[f.ID]
		values[f.ID] = placeholderOrCurrent(f, current, now())
	}
	return map[string]any{"values": values}, nil
}

func placeholderOrCurrent(f domain.FieldSpec, current any, now time.Time) any {
	switch f.Type {
	case domain.FieldString:
		if s, ok := current.(string); ok {
			return s
		}
		return fmt.Sprintf("mock-%s-%d", f.ID, now.Unix())
	case domain.FieldNumber:
		if n, ok := current.(float64); ok {
			return n
		}
		return float64(0)
	case domain.FieldBoolean:
		if b, ok := current.(bool); ok {
			return b
		}
		return false
	case domain.FieldArray:
		if a, ok := current.([]any); ok {
			return a
		}
		return []any{}
	default:
		return nil
	}
}
