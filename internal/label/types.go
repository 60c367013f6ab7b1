package label

// OCRPayload carries the client-side OCR output. The text is the sole
// evidentiary basis for every downstream decision; image bytes never cross
// this boundary.
type OCRPayload struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	WordCount  *int     `json:"word_count,omitempty"`
	Languages  *string  `json:"languages,omitempty"`
	Filename   *string  `json:"filename,omitempty"`
}

// UnderstandRequest is the input to the understand endpoint.
type UnderstandRequest struct {
	Intent string     `json:"intent"`
	OCR    OCRPayload `json:"ocr"`
}

// RedFlag is a quoted snippet of label text suspected of being a misleading
// marketing disclaimer, with a plain-English reason.
type RedFlag struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Nutrition groups the nutrition sub-object of an extraction.
type Nutrition struct {
	ServingSize *string           `json:"serving_size"`
	PerServing  map[string]string `json:"per_serving"`
	Per100g     map[string]string `json:"per_100g"`
}

// Extraction is the normalized output contract the model is instructed to
// fill. Every field absent from the source text must be null, never an
// empty-string guess.
type Extraction struct {
	HumanSummary      *string    `json:"human_summary"`
	ProductName       *string    `json:"product_name"`
	Brand             *string    `json:"brand"`
	Category          *string    `json:"category"`
	Ingredients       []string   `json:"ingredients"`
	Allergens         []string   `json:"allergens"`
	AdditivesENumbers []string   `json:"additives_e_numbers"`
	Nutrition         *Nutrition `json:"nutrition"`
	Claims            []string   `json:"claims"`
	Warnings          []string   `json:"warnings"`
	RedFlags          []RedFlag  `json:"red_flags"`
	Manufacturer      *string    `json:"manufacturer"`
	Address           *string    `json:"address"`
	FSSAILicense      *string    `json:"fssai_license"`
	MRP               *string    `json:"mrp"`
	NetQuantity       *string    `json:"net_quantity"`
	BatchNo           *string    `json:"batch_no"`
	MfgDate           *string    `json:"mfg_date"`
	ExpDate           *string    `json:"exp_date"`
	CustomerCare      []string   `json:"customer_care"`
	Barcode           *string    `json:"barcode"`
	Notes             *string    `json:"notes"`
}
