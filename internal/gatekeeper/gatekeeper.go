// Package gatekeeper decides whether OCR text plausibly comes from a product
// label before any paid model call is spent on it.
package gatekeeper

import (
	"regexp"
	"strings"
)

// Verdict is the per-request classification of raw OCR text.
type Verdict struct {
	Hit                  int      `json:"score"`
	HitKeys              []string `json:"hits"`
	Newsy                bool     `json:"newsy"`
	HasUnits             bool     `json:"hasUnits"`
	HasPercents          bool     `json:"hasPercents"`
	HasECodes            bool     `json:"hasECodes"`
	HasComplianceMarkers bool     `json:"hasComplianceMarkers"`
}

// Admit applies the admission rule: a newsy classification wins outright;
// otherwise a single positive cue is enough. OCR text is noisy, so the rule
// deliberately favors false admission over false rejection.
func (v Verdict) Admit() bool {
	if v.Newsy {
		return false
	}
	return v.Hit >= 1 || v.HasUnits || v.HasPercents || v.HasECodes || v.HasComplianceMarkers
}

// keywords are label-indicating terms matched by case-insensitive containment.
var keywords = []string{
	"ingredients",
	"nutrition",
	"nutritional",
	"per serve",
	"per serving",
	"per 100g",
	"serving size",
	"contains",
	"allergen",
	"may contain",
	"best before",
	"expiry",
	"exp:",
	"mfg",
	"batch",
	"mrp",
	"net wt",
	"net weight",
	"net quantity",
	"fssai",
	"lic",
	"manufactured",
	"packed",
	"customer care",
	"toll free",
	"sodium",
	"sugar",
	"protein",
	"carbohydrate",
	"fat",
	"calories",
	"kcal",
	"energy",
}

// Strong label cues: units, percentages, E/INS additive codes, and typical
// Indian compliance markers.
var (
	reUnits      = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s?(mg|g|kcal|kj|mcg|µg)\b`)
	rePercents   = regexp.MustCompile(`\b\d{1,3}\s?%`)
	reECodes     = regexp.MustCompile(`(?i)\b(?:E|INS)\s*[-:]?\s*\d{3,4}[A-Za-z]?\b`)
	reCompliance = regexp.MustCompile(`(?i)\b(fssai|mrp|best before|use by|batch|lic\.?\s*no)\b`)
)

// newsCues flag "looks like an article" text. At least two must fire before
// the text counts as newsy, so a genuine label mentioning a brand in prose
// is not rejected.
var newsCues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(breaking|reporter|editorial|headline)\b`),
	regexp.MustCompile(`(?i)\b(subscribe|subscription|newspaper|press)\b`),
	regexp.MustCompile(`(?i)\bpublished\s+on\b`),
	regexp.MustCompile(`(?i)\bcopyright\b`),
}

// Classify scores text for label likelihood. Pure and total: any input,
// including the empty string, yields a verdict (empty text never admits).
func Classify(text string) Verdict {
	t := strings.ToLower(text)

	var v Verdict
	for _, k := range keywords {
		if strings.Contains(t, k) {
			v.Hit++
			v.HitKeys = append(v.HitKeys, k)
		}
	}

	v.HasUnits = reUnits.MatchString(text)
	v.HasPercents = rePercents.MatchString(text)
	v.HasECodes = reECodes.MatchString(text)
	v.HasComplianceMarkers = reCompliance.MatchString(text)

	cues := 0
	for _, re := range newsCues {
		if re.MatchString(text) {
			cues++
		}
	}
	v.Newsy = cues >= 2

	return v
}
