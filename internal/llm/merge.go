package llm

import (
	"github.com/bharatsetu/label-auditor/internal/label"
)

// MergeRedFlags substitutes heuristic red flags into a structured extraction
// when the model supplied none. Model-provided flags always win; when both
// are empty the field is explicit null. All other fields are left untouched.
func MergeRedFlags(structured map[string]any, heuristic []label.RedFlag) map[string]any {
	if structured == nil {
		return nil
	}

	if flags, ok := structured["red_flags"].([]any); ok && len(flags) > 0 {
		return structured
	}
	if len(heuristic) > 0 {
		structured["red_flags"] = heuristic
	} else {
		structured["red_flags"] = nil
	}
	return structured
}
