package domain

// LastStatus is the terminal outcome of the most recent run attempt for a template.
type LastStatus string

const (
	LastStatusSuccess LastStatus = "success"
	LastStatusFailed  LastStatus = "failed"
)

// RunState tracks the most recent attempt/success for a single template.
type RunState struct {
	LastAttemptAt string     `json:"last_attempt_at,omitempty"`
	LastSuccessAt string     `json:"last_success_at,omitempty"`
	LastStatus    LastStatus `json:"last_status,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// DisplayProfile describes the downstream web UI's viewport and the layout
// writer's safety margins, in pixels.
type DisplayProfile struct {
	WidthPx             int `json:"width_px" yaml:"width_px"`
	HeightPx            int `json:"height_px" yaml:"height_px"`
	SafeTopPx           int `json:"safe_top_px" yaml:"safe_top_px"`
	SafeBottomPx        int `json:"safe_bottom_px" yaml:"safe_bottom_px"`
	SafeSidePx          int `json:"safe_side_px" yaml:"safe_side_px"`
	LayoutSafetyMarginPx int `json:"layout_safety_margin_px" yaml:"layout_safety_margin_px"`
}

// DefaultDisplayProfile matches spec.md's configuration table default.
func DefaultDisplayProfile() DisplayProfile {
	return DisplayProfile{
		WidthPx:              1920,
		HeightPx:             1080,
		SafeTopPx:            96,
		SafeBottomPx:         106,
		SafeSidePx:           28,
		LayoutSafetyMarginPx: 24,
	}
}

// Clamp enforces the minimums from spec §4.I displayProfileSet.
func (p DisplayProfile) Clamp() DisplayProfile {
	if p.WidthPx < 320 {
		p.WidthPx = 320
	}
	if p.HeightPx < 240 {
		p.HeightPx = 240
	}
	if p.SafeTopPx < 0 {
		p.SafeTopPx = 0
	}
	if p.SafeBottomPx < 0 {
		p.SafeBottomPx = 0
	}
	if p.SafeSidePx < 0 {
		p.SafeSidePx = 0
	}
	if p.LayoutSafetyMarginPx < 0 {
		p.LayoutSafetyMarginPx = 0
	}
	return p
}

// State is the single runtime-state document persisted at <data_dir>/state.json.
type State struct {
	Version         int                 `json:"version"`
	ActiveTemplateID *string            `json:"active_template_id"`
	TemplateRuns    map[string]RunState `json:"template_runs"`
	DisplayProfile  *DisplayProfile     `json:"display_profile,omitempty"`
}

// NewState returns the empty state used when state.json does not yet exist.
func NewState() *State {
	return &State{
		Version:      1,
		TemplateRuns: map[string]RunState{},
	}
}

// Normalize fills in zero-valued fields that load(), across versions, might
// have left unset (missing keys in older state.json files).
func (s *State) Normalize() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.TemplateRuns == nil {
		s.TemplateRuns = map[string]RunState{}
	}
}
