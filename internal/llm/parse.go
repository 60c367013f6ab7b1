package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParseOutcome is the tagged result of parsing model text: either a
// schema-valid structured object or the raw text carrier. Parsing never
// fails the request; a response that is not valid per the contract degrades
// to raw-text passthrough instead of being coerced.
type ParseOutcome struct {
	// Structured is non-nil only when the text decoded as a JSON object AND
	// validated against the label schema.
	Structured map[string]any
	// Raw is the fence-stripped model text, kept for the degraded path.
	Raw string
}

// Valid reports whether the strict stage succeeded.
func (o ParseOutcome) Valid() bool { return o.Structured != nil }

var reFenceOpen = regexp.MustCompile(`^` + "```" + `[a-zA-Z]*\s*`)

// StripCodeFences removes a leading ```json / ``` fence pair when present.
// Models wrap JSON in Markdown fences despite instructions not to.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = reFenceOpen.ReplaceAllString(trimmed, "")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// ParseModelText runs the two-stage parse: strict decode + schema
// validation first, raw-text carrier when either stage fails.
func ParseModelText(text string) ParseOutcome {
	stripped := StripCodeFences(text)
	out := ParseOutcome{Raw: stripped}

	var m map[string]any
	if err := json.Unmarshal([]byte(stripped), &m); err != nil {
		return out
	}
	if err := ValidateLabelJSON([]byte(stripped)); err != nil {
		return out
	}
	out.Structured = m
	return out
}
