package fillrunner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openclaw/plashboard/internal/domain"
)

const maxParseDepth = 10

// ParseOutput extracts a FillResponse-shaped JSON object ({"values": {...}})
// from a provider's raw stdout, tolerating (a) a bare JSON object, (b) the
// same wrapped in triple-backtick code fences, or (c) an object embedded
// within a larger JSON envelope (spec §4.F).
func ParseOutput(raw string, provider string) (map[string]any, error) {
	v, ok := extract(strings.TrimSpace(raw), 0)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s: no parseable JSON object found", domain.ErrFillParseError, provider)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s: extracted value is not a JSON object", domain.ErrFillParseError, provider)
	}
	return obj, nil
}

// extract walks raw looking for a JSON value that is, or nests, an object
// carrying a "values" object key. It returns the first hit at any depth,
// capped at maxParseDepth to bound pathological inputs.
func extract(raw string, depth int) (any, bool) {
	if depth >= maxParseDepth {
		return nil, false
	}

	if v, ok := tryParse(raw); ok {
		if hit, ok := recurse(v, depth); ok {
			return hit, true
		}
	}

	if fenced, ok := stripFence(raw); ok {
		if v, ok := tryParse(fenced); ok {
			if hit, ok := recurse(v, depth); ok {
				return hit, true
			}
		}
	}

	if sub, ok := firstBraceSpan(raw); ok {
		if v, ok := tryParse(sub); ok {
			if hit, ok := recurse(v, depth); ok {
				return hit, true
			}
		}
	}

	return nil, false
}

func recurse(v any, depth int) (any, bool) {
	switch t := v.(type) {
	case string:
		return extract(strings.TrimSpace(t), depth+1)
	case []any:
		for _, item := range t {
			if hit, ok := recurse(item, depth+1); ok {
				return hit, true
			}
		}
		return nil, false
	case map[string]any:
		if hasValuesObject(t) {
			return t, true
		}
		for _, nested := range t {
			if hit, ok := recurse(nested, depth+1); ok {
				return hit, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

func hasValuesObject(obj map[string]any) bool {
	values, ok := obj["values"]
	if !ok {
		return false
	}
	_, ok = values.(map[string]any)
	return ok
}

func tryParse(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 3 {
		return "", false
	}
	inner := lines[1 : len(lines)-1]
	return strings.Join(inner, "\n"), true
}

func firstBraceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
