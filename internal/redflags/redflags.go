// Package redflags scans raw label text for misleading-disclaimer lines.
// It is the free safety net behind the model: its output is used only when
// the model supplies no red flags of its own.
package redflags

import (
	"regexp"
	"strings"

	"github.com/bharatsetu/label-auditor/internal/label"
)

type pattern struct {
	re     *regexp.Regexp
	reason string
}

var patterns = []pattern{
	{
		re:     regexp.MustCompile(`(?i)does\s+not\s+represent\s+its\s+true\s+nature`),
		reason: "Marketing disclaimer: the label explicitly says the claim/wording may not reflect the product's true nature.",
	},
	{
		re:     regexp.MustCompile(`(?i)\bnature\s+identical\b|\bartificial\b|\bimitation\b`),
		reason: "Possible marketing/ingredient claim that could mislead (e.g., 'nature identical', 'artificial', or 'imitation').",
	},
	{
		re:     regexp.MustCompile(`(?i)\bflavour(?:ing)?\b|\bflavouring\s+substances?\b`),
		reason: "Contains flavor/flavouring statements; users may interpret these as 'natural' unless clarified.",
	},
}

// Scan extracts candidate misleading-disclaimer lines from text. Lines are
// trimmed, empty lines skipped, and flags deduplicated by exact line text in
// first-seen order. Pure and total.
func Scan(text string) []label.RedFlag {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}

	var flags []label.RedFlag
	for _, p := range patterns {
		for _, l := range lines {
			if p.re.MatchString(l) {
				flags = append(flags, label.RedFlag{Text: l, Reason: p.reason})
			}
		}
	}

	// Deduplicate by exact line text.
	seen := make(map[string]struct{}, len(flags))
	out := flags[:0]
	for _, f := range flags {
		if _, ok := seen[f.Text]; ok {
			continue
		}
		seen[f.Text] = struct{}{}
		out = append(out, f)
	}
	return out
}
