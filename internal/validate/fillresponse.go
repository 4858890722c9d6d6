package validate

import "fmt"

// FillResponseShape validates that a parsed fill-provider payload is a JSON
// object with a single recognized top-level key "values", itself an object.
func FillResponseShape(payload map[string]any) []string {
	var errs []string

	if len(payload) == 0 {
		errs = append(errs, "response must be a JSON object")
		return errs
	}

	for k := range payload {
		if k != "values" {
			errs = append(errs, fmt.Sprintf("unrecognized top-level key %q", k))
		}
	}

	values, ok := payload["values"]
	if !ok {
		errs = append(errs, "missing required key \"values\"")
		return errs
	}
	if _, ok := values.(map[string]any); !ok {
		errs = append(errs, "\"values\" must be a JSON object")
	}

	return errs
}
