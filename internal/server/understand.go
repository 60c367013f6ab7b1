package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bharatsetu/label-auditor/constants"
	"github.com/bharatsetu/label-auditor/internal/audit"
	"github.com/bharatsetu/label-auditor/internal/common"
	"github.com/bharatsetu/label-auditor/internal/gatekeeper"
	"github.com/bharatsetu/label-auditor/internal/label"
	"github.com/bharatsetu/label-auditor/internal/llm"
	"github.com/bharatsetu/label-auditor/internal/redflags"
)

// handleUnderstand runs the pipeline: validate, rate-limit, gatekeep,
// resolve intent, call the model, parse, merge, respond. Validation and
// gatekeeping failures never consume quota or reach the paid upstream;
// model-output parse failures degrade to raw-text passthrough instead of
// erroring.
func (s *Service) handleUnderstand(w http.ResponseWriter, r *http.Request) {
	rid := uuid.New().String()
	start := time.Now()
	ip := clientIP(r)
	ctx := common.WithRequestID(common.WithCallerIP(r.Context(), ip), rid)

	entry := audit.Entry{At: start, Caller: ip, Model: s.model}
	finish := func(status int, outcome string) {
		entry.HTTPStatus = status
		entry.Outcome = outcome
		entry.ElapsedMS = time.Since(start).Milliseconds()
		s.record(ctx, entry)
	}

	var req label.UnderstandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := s.fail(w,
			common.NewAppError("INVALID_REQUEST", "Invalid request", common.ErrInvalidInput),
			map[string]any{"detail": []string{"body: " + err.Error()}})
		finish(status, "invalid_request")
		return
	}
	entry.Intent = req.Intent

	if detail := req.Validate(); len(detail) > 0 {
		status := s.fail(w,
			common.NewAppError("INVALID_REQUEST", "Invalid request", common.ErrInvalidInput),
			map[string]any{"detail": detail})
		finish(status, "invalid_request")
		return
	}

	s.logger.Info("understand.start",
		"req_id", rid,
		"caller", ip,
		"intent", req.Intent,
		"text_len", len(req.OCR.Text),
	)

	res, err := s.quota.Check(ctx, ip, s.cfg.RateLimit.Limit, s.cfg.RateLimit.Window)
	if err != nil {
		// A broken quota store must not take the endpoint down; admit and log.
		s.logger.Error("understand.quota_check_failed", "req_id", rid, "error", err)
	} else if !res.OK {
		retryAfter := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		status := s.fail(w,
			common.NewAppError("RATE_LIMITED", "Rate limited", common.ErrRateLimited),
			map[string]any{
				"message":           "Too many Understand Label requests. Please try again later.",
				"retryAfterSeconds": retryAfter,
			})
		finish(status, "rate_limited")
		return
	}

	verdict := gatekeeper.Classify(req.OCR.Text)
	entry.Admitted = verdict.Admit()
	if !verdict.Admit() {
		hits := verdict.HitKeys
		if len(hits) > constants.MaxVerdictHitKeys {
			hits = hits[:constants.MaxVerdictHitKeys]
		}
		s.logger.Info("understand.gatekeeper_rejected",
			"req_id", rid, "score", verdict.Hit, "newsy", verdict.Newsy)
		status := s.fail(w,
			common.NewAppError("NOT_A_LABEL", "Not a product label", common.ErrNotLabel),
			map[string]any{
				"message": "This doesn't look like a product label (ingredients/nutrition/etc.). Gemini was not called.",
				"detail": map[string]any{
					"score":                verdict.Hit,
					"hits":                 hits,
					"newsy":                verdict.Newsy,
					"hasUnits":             verdict.HasUnits,
					"hasPercents":          verdict.HasPercents,
					"hasECodes":            verdict.HasECodes,
					"hasComplianceMarkers": verdict.HasComplianceMarkers,
				},
			})
		finish(status, "not_a_label")
		return
	}

	if strings.TrimSpace(s.cfg.Gemini.APIKey) == "" {
		status := s.fail(w,
			common.NewAppError("MISCONFIGURED", "Server is not configured", common.ErrMisconfigured),
			map[string]any{"detail": "Missing GEMINI_API_KEY in environment"})
		finish(status, "misconfigured")
		return
	}

	intent := effectiveIntent(req.Intent, req.OCR.Text)
	entry.EffectiveIntent = intent
	if intent != req.Intent {
		s.logger.Info("understand.intent_downgraded",
			"req_id", rid, "requested", req.Intent, "effective", intent)
	}

	prompt := llm.BuildLabelPrompt(req.OCR) + llm.IntentSuffix(intent)

	result, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		var ue *llm.UpstreamError
		if errors.As(err, &ue) {
			status := s.fail(w,
				common.NewAppError("GEMINI_ERROR", "Gemini API error", ue),
				upstreamExtra(w, ue))
			finish(status, "upstream_error")
			return
		}
		s.logger.Error("understand.upstream_failed", "req_id", rid, "error", err)
		status := s.fail(w,
			common.NewAppError("UPSTREAM_FAILED", "Failed to understand label", common.ErrUpstream),
			map[string]any{"detail": err.Error()})
		finish(status, "internal_error")
		return
	}

	payload := decodeRaw(result.Raw)

	outcome := llm.ParseModelText(result.Text)
	var body any
	switch {
	case outcome.Valid():
		body = llm.MergeRedFlags(outcome.Structured, redflags.Scan(req.OCR.Text))
	case strings.TrimSpace(result.Text) != "":
		body = outcome.Raw
	default:
		body = payload
	}

	s.logger.Info("understand.ok",
		"req_id", rid,
		"intent", intent,
		"structured", outcome.Valid(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"model":  result.Model,
		"result": body,
		"raw":    payload,
	})
	finish(http.StatusOK, "ok")
}

// statusFor maps an error to its HTTP status. Provider failures keep the
// provider's own status code; everything else resolves through the sentinel
// causes.
func statusFor(err error) int {
	var ue *llm.UpstreamError
	if errors.As(err, &ue) {
		return ue.HTTPStatus
	}
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrNotLabel):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrMisconfigured),
		errors.Is(err, common.ErrUpstream),
		errors.Is(err, common.ErrInternal):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// fail writes the JSON error shape for appErr, merging in any branch-specific
// fields, and returns the mapped status for the audit record.
func (s *Service) fail(w http.ResponseWriter, appErr *common.AppError, extra map[string]any) int {
	status := statusFor(appErr)
	body := map[string]any{"error": appErr.Message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
	return status
}

// upstreamExtra builds the passthrough fields of a provider failure and sets
// the Retry-After header when the provider gave a delay.
func upstreamExtra(w http.ResponseWriter, ue *llm.UpstreamError) map[string]any {
	extra := map[string]any{"raw": ue.Raw}
	if ue.Status != "" {
		extra["status"] = ue.Status
	}
	if ue.Message != "" {
		extra["message"] = ue.Message
	}
	if ue.RetryAfterSeconds > 0 {
		extra["retryAfterSeconds"] = ue.RetryAfterSeconds
		w.Header().Set("Retry-After", strconv.Itoa(ue.RetryAfterSeconds))
	}
	if ue.Hint != "" {
		extra["hint"] = ue.Hint
	}
	return extra
}

// decodeRaw hands back the provider payload as decoded JSON when possible,
// else the raw string.
func decodeRaw(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return string(raw)
	}
	return v
}

// record appends the audit entry when auditing is enabled. Best-effort.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.logger.Warn("audit.insert_failed", "error", err)
	}
}
