package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bharatsetu/label-auditor/constants"
)

// The OCR engine runs as a separate service; these handlers only forward.
// The server never inspects image bytes.

var ocrProxyClient = &http.Client{Timeout: 120 * time.Second}

// handleOCRExtract streams a multipart upload to the OCR service and relays
// its response verbatim.
func (s *Service) handleOCRExtract(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(s.cfg.OCR.ServiceURL, "/")

	body := http.MaxBytesReader(w, r.Body, constants.MaxOCRUploadBytes)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, base+"/api/ocr/extract", body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to build OCR request"})
		return
	}
	req.Header.Set("Content-Type", r.Header.Get("Content-Type"))

	resp, err := ocrProxyClient.Do(req)
	if err != nil {
		s.logger.Error("ocrproxy.extract_failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "OCR service unavailable"})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	relay(w, resp)
}

// handleOCRLanguages relays the OCR service's installed-language list.
func (s *Service) handleOCRLanguages(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(s.cfg.OCR.ServiceURL, "/")

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, base+"/api/ocr/languages", nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to build OCR request"})
		return
	}

	resp, err := ocrProxyClient.Do(req)
	if err != nil {
		s.logger.Error("ocrproxy.languages_failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "OCR service unavailable"})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	relay(w, resp)
}

func relay(w http.ResponseWriter, resp *http.Response) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
