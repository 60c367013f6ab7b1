package constants

import "time"

const (
	// MaxOCRTextLength bounds ocr.text on the understand endpoint.
	MaxOCRTextLength = 200_000

	// DefaultRateLimit and DefaultRateWindow implement the 20-per-day
	// fixed-window quota applied per caller address.
	DefaultRateLimit  = 20
	DefaultRateWindow = 24 * time.Hour

	// MaxVerdictHitKeys caps how many matched gatekeeper keywords are
	// echoed back in a rejection payload.
	MaxVerdictHitKeys = 10

	// MaxOCRUploadBytes bounds the multipart body forwarded to the OCR
	// service.
	MaxOCRUploadBytes = 10 * 1024 * 1024
)
