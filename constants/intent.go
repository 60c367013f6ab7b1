package constants

// Extraction intents a caller can request. Unknown intents are rejected at
// validation; intents whose keywords are absent from the OCR text are
// downgraded to IntentSummary instead of failing the request.
const (
	IntentIngredients = "ingredients"
	IntentNutrition   = "nutrition"
	IntentAllergens   = "allergens"
	IntentWarnings    = "warnings"
	IntentSummary     = "summary"
)

// Intents lists every accepted intent value.
var Intents = []string{
	IntentIngredients,
	IntentNutrition,
	IntentAllergens,
	IntentWarnings,
	IntentSummary,
}

// IsValidIntent reports whether s is one of the accepted intent values.
func IsValidIntent(s string) bool {
	for _, v := range Intents {
		if s == v {
			return true
		}
	}
	return false
}
