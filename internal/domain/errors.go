// Package domain defines the core types shared across plashboardd: templates,
// runtime state, run artifacts, and the error taxonomy the pipeline reports
// through.
package domain

import "errors"

// Sentinel errors for the taxonomy in spec §7. Callers use errors.Is/errors.As;
// wrapped detail is attached with fmt.Errorf("...: %w", ErrX).
var (
	ErrConfigInvalid       = errors.New("config invalid")
	ErrTemplateInvalid     = errors.New("template invalid")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrTemplateConflict    = errors.New("template already exists")
	ErrFillProviderError   = errors.New("fill provider error")
	ErrFillParseError      = errors.New("fill response unparseable")
	ErrFillShapeInvalid    = errors.New("fill response shape invalid")
	ErrMissingRequired     = errors.New("missing required field value")
	ErrTypeMismatch        = errors.New("field value type mismatch")
	ErrConstraintViolation = errors.New("field value constraint violation")
	ErrUnknownFieldID      = errors.New("unknown field id in fill response")
	ErrPointerNotFound     = errors.New("pointer path not found")
	ErrPointerInvalid      = errors.New("pointer path invalid")
	ErrLayoutBudgetExceeded = errors.New("layout budget exceeded")
	ErrSchemaInvalid       = errors.New("writer rejected schema")
	ErrIO                  = errors.New("io error")
	ErrRunInProgress       = errors.New("run already in progress")
)
