// Package merge implements field-pointer validation, current-value
// collection, and the typed merge of fill-response values into a cloned
// base_dashboard document (spec §4.E).
package merge

import (
	"fmt"

	"github.com/openclaw/plashboard/internal/domain"
	"github.com/openclaw/plashboard/internal/jsonptr"
)

// ValidateFieldPointers checks that every field id and pointer is unique and
// that every pointer resolves within template.BaseDashboard. It is the one
// piece of template validation that needs the base document, so it lives
// apart from validate.TemplateShape.
func ValidateFieldPointers(t *domain.Template) error {
	seenID := map[string]bool{}
	seenPointer := map[string]bool{}
	for _, f := range t.Fields {
		if seenID[f.ID] {
			return fmt.Errorf("%w: duplicate field id %q", domain.ErrTemplateInvalid, f.ID)
		}
		seenID[f.ID] = true

		if seenPointer[f.Pointer] {
			return fmt.Errorf("%w: duplicate pointer %q", domain.ErrTemplateInvalid, f.Pointer)
		}
		seenPointer[f.Pointer] = true

		if _, err := jsonptr.Read(t.BaseDashboard, f.Pointer); err != nil {
			return fmt.Errorf("%w: pointer path not found: field %q pointer %q: %v", domain.ErrTemplateInvalid, f.ID, f.Pointer, err)
		}
	}
	return nil
}

// CollectCurrentValues returns the current value at each field's pointer,
// keyed by field id. Used as current_value hints for the fill runner.
func CollectCurrentValues(t *domain.Template) (map[string]any, error) {
	out := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		v, err := jsonptr.Read(t.BaseDashboard, f.Pointer)
		if err != nil {
			return nil, err
		}
		out[f.ID] = v
	}
	return out, nil
}

// Merge deep-clones template.BaseDashboard and splices the typed, validated
// values from the fill response into it at their field pointers. The base
// document itself is never mutated.
func Merge(t *domain.Template, values map[string]any) (any, error) {
	fieldByID := make(map[string]domain.FieldSpec, len(t.Fields))
	for _, f := range t.Fields {
		fieldByID[f.ID] = f
	}

	for k := range values {
		if _, ok := fieldByID[k]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFieldID, k)
		}
	}

	clone := jsonptr.Clone(t.BaseDashboard)

	for _, f := range t.Fields {
		val, present := values[f.ID]
		if !present || val == nil {
			if f.IsRequired() {
				return nil, fmt.Errorf("%w: field %q", domain.ErrMissingRequired, f.ID)
			}
			continue
		}

		checked, err := checkValue(f, val)
		if err != nil {
			return nil, err
		}

		if err := jsonptr.Write(clone, f.Pointer, checked); err != nil {
			return nil, err
		}
	}

	return clone, nil
}

func checkValue(f domain.FieldSpec, val any) (any, error) {
	switch f.Type {
	case domain.FieldString:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q expected string, got %T", domain.ErrTypeMismatch, f.ID, val)
		}
		if f.Constraints != nil && f.Constraints.MaxLen != nil && len(s) > *f.Constraints.MaxLen {
			return nil, fmt.Errorf("%w: field %q exceeds max_len %d", domain.ErrConstraintViolation, f.ID, *f.Constraints.MaxLen)
		}
		if err := checkEnum(f, s); err != nil {
			return nil, err
		}
		return s, nil

	case domain.FieldNumber:
		n, ok := val.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: field %q expected number, got %T", domain.ErrTypeMismatch, f.ID, val)
		}
		if f.Constraints != nil {
			if f.Constraints.Min != nil && n < *f.Constraints.Min {
				return nil, fmt.Errorf("%w: field %q below min %v", domain.ErrConstraintViolation, f.ID, *f.Constraints.Min)
			}
			if f.Constraints.Max != nil && n > *f.Constraints.Max {
				return nil, fmt.Errorf("%w: field %q above max %v", domain.ErrConstraintViolation, f.ID, *f.Constraints.Max)
			}
		}
		if err := checkEnum(f, n); err != nil {
			return nil, err
		}
		return n, nil

	case domain.FieldBoolean:
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: field %q expected boolean, got %T", domain.ErrTypeMismatch, f.ID, val)
		}
		return b, nil

	case domain.FieldArray:
		arr, ok := val.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %q expected array, got %T", domain.ErrTypeMismatch, f.ID, val)
		}
		if f.Constraints != nil {
			if f.Constraints.MinItems != nil && len(arr) < *f.Constraints.MinItems {
				return nil, fmt.Errorf("%w: field %q below min_items %d", domain.ErrConstraintViolation, f.ID, *f.Constraints.MinItems)
			}
			if f.Constraints.MaxItems != nil && len(arr) > *f.Constraints.MaxItems {
				return nil, fmt.Errorf("%w: field %q above max_items %d", domain.ErrConstraintViolation, f.ID, *f.Constraints.MaxItems)
			}
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("%w: field %q has unknown declared type %q", domain.ErrTemplateInvalid, f.ID, f.Type)
	}
}

func checkEnum(f domain.FieldSpec, v any) error {
	if f.Constraints == nil || len(f.Constraints.Enum) == 0 {
		return nil
	}
	for _, allowed := range f.Constraints.Enum {
		if allowed == v {
			return nil
		}
	}
	return fmt.Errorf("%w: field %q value %v not in enum", domain.ErrConstraintViolation, f.ID, v)
}
