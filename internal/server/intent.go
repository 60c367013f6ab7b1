package server

import (
	"strings"

	"github.com/bharatsetu/label-auditor/constants"
)

// intentKeywords are the cues expected in OCR text for each non-summary
// intent. When none are present the effective intent downgrades to summary:
// a degraded-but-useful answer beats an error when intent confidence is low.
var intentKeywords = map[string][]string{
	constants.IntentIngredients: {"ingredients", "contains"},
	constants.IntentNutrition:   {"nutrition", "nutritional", "kcal", "calories", "per 100g", "per serving"},
	constants.IntentAllergens:   {"allergen", "may contain", "contains"},
	constants.IntentWarnings:    {"warning", "caution", "keep out", "avoid", "do not", "not suitable"},
}

// effectiveIntent resolves the intent actually sent upstream.
func effectiveIntent(intent, text string) string {
	keys, ok := intentKeywords[intent]
	if !ok {
		return constants.IntentSummary
	}
	t := strings.ToLower(text)
	for _, k := range keys {
		if strings.Contains(t, k) {
			return intent
		}
	}
	return constants.IntentSummary
}
