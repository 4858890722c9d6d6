package domain

import "regexp"

// IDPattern is the regex every template id must match.
var IDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidID reports whether s is a legal template id.
func ValidID(s string) bool {
	return IDPattern.MatchString(s)
}

// FieldType is the declared type of a field spec's value.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
)

// ValidFieldType reports whether s names a known field type.
func ValidFieldType(s string) bool {
	switch FieldType(s) {
	case FieldString, FieldNumber, FieldBoolean, FieldArray:
		return true
	}
	return false
}

// Constraints bounds the values a field may take. Zero values mean "no bound"
// except where noted.
type Constraints struct {
	MaxLen   *int     `json:"max_len,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	MinItems *int     `json:"min_items,omitempty"`
	MaxItems *int     `json:"max_items,omitempty"`
	Enum     []any    `json:"enum,omitempty"`
}

// FieldSpec is a single hole in a template's base_dashboard document.
type FieldSpec struct {
	ID          string       `json:"id"`
	Pointer     string       `json:"pointer"`
	Type        FieldType    `json:"type"`
	Prompt      string       `json:"prompt"`
	Required    *bool        `json:"required,omitempty"` // nil means default true
	Constraints *Constraints `json:"constraints,omitempty"`
}

// IsRequired returns the effective required flag, defaulting to true.
func (f FieldSpec) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// ScheduleMode names a schedule's dispatch policy. Only "interval" exists today.
type ScheduleMode string

const ScheduleModeInterval ScheduleMode = "interval"

// Schedule describes when a template's fill pipeline should run.
type Schedule struct {
	Mode         ScheduleMode `json:"mode"`
	EveryMinutes int          `json:"every_minutes"`
	Timezone     string       `json:"timezone,omitempty"`
}

// RunParams holds optional per-template overrides of the global retry/repair policy.
type RunParams struct {
	RetryCount      *int `json:"retry_count,omitempty"`
	RepairAttempts  *int `json:"repair_attempts,omitempty"`
}

// Template is a dashboard recipe: a base document skeleton plus the fields to
// be filled from an external data source on each run.
type Template struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Enabled       bool           `json:"enabled"`
	Schedule      Schedule       `json:"schedule"`
	BaseDashboard any            `json:"base_dashboard"`
	Fields        []FieldSpec    `json:"fields"`
	Context       any            `json:"context,omitempty"`
	Run           *RunParams     `json:"run,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
}

// RetryCount returns the effective retry count for a run: template override,
// else the supplied default, floored at zero.
func (t *Template) RetryCount(defaultRetryCount int) int {
	if t.Run != nil && t.Run.RetryCount != nil {
		return maxInt(0, *t.Run.RetryCount)
	}
	return maxInt(0, defaultRetryCount)
}

// RepairAttempts returns the effective repair-loop length: template override,
// else 1, floored at zero.
func (t *Template) RepairAttempts() int {
	if t.Run != nil && t.Run.RepairAttempts != nil {
		return maxInt(0, *t.Run.RepairAttempts)
	}
	return 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
