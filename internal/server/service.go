// Package server wires the HTTP surface: the label-understanding endpoint,
// the OCR upload proxy, and ping.
package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/bharatsetu/label-auditor/internal/audit"
	"github.com/bharatsetu/label-auditor/internal/common"
	"github.com/bharatsetu/label-auditor/internal/llm"
	"github.com/bharatsetu/label-auditor/internal/ratelimit"
)

// Service holds the orchestrator's collaborators. Everything is injected so
// tests can swap the quota store and the upstream generator.
type Service struct {
	cfg    *common.Config
	quota  ratelimit.Store
	gen    llm.Generator
	model  string
	audit  *audit.Store // nil disables auditing
	logger *slog.Logger
}

// NewService builds a Service. audit may be nil.
func NewService(cfg *common.Config, quota ratelimit.Store, gen llm.Generator, model string, auditStore *audit.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		quota:  quota,
		gen:    gen,
		model:  model,
		audit:  auditStore,
		logger: logger,
	}
}

// Routes returns the service handler.
func (s *Service) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("POST /api/label/understand", s.handleUnderstand)
	mux.HandleFunc("POST /api/ocr/extract", s.handleOCRExtract)
	mux.HandleFunc("GET /api/ocr/languages", s.handleOCRLanguages)
	return mux
}

func (s *Service) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": s.cfg.Server.PingMessage})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP keys the rate limiter: first X-Forwarded-For hop when present,
// else the remote address without port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
