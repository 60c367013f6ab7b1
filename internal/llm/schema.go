package llm

// BuildLabelJSONSchema returns the nullable-field contract for a label
// extraction as a JSON-Schema (draft 2020-12 subset) generic map. It is the
// strict first stage of the two-stage model-output parse; unknown extra
// fields are allowed so they can pass through to the caller unmodified.
func BuildLabelJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"human_summary":       nullableProp("string"),
			"product_name":        nullableProp("string"),
			"brand":               nullableProp("string"),
			"category":            nullableProp("string"),
			"ingredients":         nullableStringArray(),
			"allergens":           nullableStringArray(),
			"additives_e_numbers": nullableStringArray(),
			"nutrition": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"serving_size": nullableProp("string"),
					"per_serving":  nullableStringMap(),
					"per_100g":     nullableStringMap(),
				},
			},
			"claims":   nullableStringArray(),
			"warnings": nullableStringArray(),
			"red_flags": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":   map[string]any{"type": "string"},
						"reason": map[string]any{"type": "string"},
					},
					"required": []string{"text", "reason"},
				},
			},
			"manufacturer":  nullableProp("string"),
			"address":       nullableProp("string"),
			"fssai_license": nullableProp("string"),
			"mrp":           nullableProp("string"),
			"net_quantity":  nullableProp("string"),
			"batch_no":      nullableProp("string"),
			"mfg_date":      nullableProp("string"),
			"exp_date":      nullableProp("string"),
			"customer_care": nullableStringArray(),
			"barcode":       nullableProp("string"),
			"notes":         nullableProp("string"),
		},
	}
}

func nullableProp(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

func nullableStringArray() map[string]any {
	return map[string]any{
		"type":  []string{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
}

func nullableStringMap() map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"additionalProperties": map[string]any{"type": "string"},
	}
}
