package llm

import (
	"encoding/json"
	"strings"

	"github.com/bharatsetu/label-auditor/internal/label"
)

// BuildLabelPrompt composes the deterministic instruction prompt: role/task
// preamble, the literal output schema, formatting rules, a JSON metadata
// block, and the verbatim OCR text last. Output length scales linearly with
// the (already bounded) input text.
func BuildLabelPrompt(ocr label.OCRPayload) string {
	meta := struct {
		Filename   *string  `json:"filename"`
		Languages  *string  `json:"languages"`
		Confidence *float64 `json:"confidence"`
		WordCount  *int     `json:"word_count"`
	}{
		Filename:   ocr.Filename,
		Languages:  ocr.Languages,
		Confidence: ocr.Confidence,
		WordCount:  ocr.WordCount,
	}
	metaJSON, _ := json.MarshalIndent(meta, "", "  ")

	lines := []string{
		"You are a product label understanding assistant for Indian packaged food/cosmetic/pharma labels.",
		"Task: Extract and summarize label information from OCR text.",
		"Return ONLY valid JSON (no markdown, no code fences).",
		"",
		"Output JSON schema (strict):",
		"{",
		`  "human_summary": string,`,
		`  "product_name": string|null,`,
		`  "brand": string|null,`,
		`  "category": string|null,`,
		`  "ingredients": string[]|null,`,
		`  "allergens": string[]|null,`,
		`  "additives_e_numbers": string[]|null,`,
		`  "nutrition": { "serving_size": string|null, "per_serving": Record<string,string>|null, "per_100g": Record<string,string>|null }|null,`,
		`  "claims": string[]|null,`,
		`  "warnings": string[]|null,`,
		`  "red_flags": { "text": string, "reason": string }[]|null,`,
		`  "manufacturer": string|null,`,
		`  "address": string|null,`,
		`  "fssai_license": string|null,`,
		`  "mrp": string|null,`,
		`  "net_quantity": string|null,`,
		`  "batch_no": string|null,`,
		`  "mfg_date": string|null,`,
		`  "exp_date": string|null,`,
		`  "customer_care": string[]|null,`,
		`  "barcode": string|null,`,
		`  "notes": string|null`,
		"}",
		"",
		"Rules:",
		"- If a field is not present, use null (not empty string).",
		"- For ingredients, split on commas/semicolons where reasonable and trim.",
		"- Preserve units as strings (e.g. '423 mg').",
		"- If OCR text looks corrupted for a value, prefer null rather than guessing.",
		"- human_summary must be short, user-friendly, and not JSON-escaped.",
		"- red_flags: include any disclaimers or statements that might mislead users, e.g. phrases like 'does not represent its true nature', 'imitation', 'nature identical', or anything that tries to legally disclaim a marketing claim.",
		"- For red_flags, quote the exact text snippet and give a simple reason in plain English.",
		"- additives_e_numbers: extract codes like E211/E260/E415/INS 211 from ingredients/nutrition text; output standardized codes (e.g. 'E211', 'E150d').",
		"",
		"OCR metadata:",
		string(metaJSON),
		"",
		"OCR TEXT:",
		ocr.Text,
	}
	return strings.Join(lines, "\n")
}

// IntentSuffix is appended after the base prompt to steer the extraction
// toward the effective intent.
func IntentSuffix(intent string) string {
	return "\n\nUser intent: " + intent +
		"\n(If intent is 'summary', provide the best overall extraction without assuming missing nutrition.)"
}
