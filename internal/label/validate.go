package label

import (
	"fmt"

	"github.com/bharatsetu/label-auditor/constants"
)

// Validate checks the request against the endpoint contract and returns one
// message per violated field. An empty slice means the request is valid.
// Validation runs before any quota or upstream work.
func (r *UnderstandRequest) Validate() []string {
	var detail []string

	if r.Intent == "" {
		detail = append(detail, "intent: is required")
	} else if !constants.IsValidIntent(r.Intent) {
		detail = append(detail, fmt.Sprintf("intent: %q is not one of %v", r.Intent, constants.Intents))
	}

	if r.OCR.Text == "" {
		detail = append(detail, "ocr.text: is required")
	} else if len(r.OCR.Text) > constants.MaxOCRTextLength {
		detail = append(detail, fmt.Sprintf("ocr.text: must be at most %d characters", constants.MaxOCRTextLength))
	}

	if r.OCR.Confidence != nil && (*r.OCR.Confidence < 0 || *r.OCR.Confidence > 100) {
		detail = append(detail, "ocr.confidence: must be between 0 and 100")
	}
	if r.OCR.WordCount != nil && *r.OCR.WordCount < 0 {
		detail = append(detail, "ocr.word_count: must not be negative")
	}

	return detail
}
