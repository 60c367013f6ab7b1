package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatsetu/label-auditor/internal/common"
	"github.com/bharatsetu/label-auditor/internal/llm"
	"github.com/bharatsetu/label-auditor/internal/ratelimit"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	result  *llm.Result
	err     error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (*llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func testConfig() *common.Config {
	return &common.Config{
		Server: common.ServerConfig{PingMessage: "ping"},
		Gemini: common.GeminiConfig{APIKey: "test-key"},
		RateLimit: common.RateLimitConfig{
			Limit:  20,
			Window: 24 * time.Hour,
		},
	}
}

func newTestHandler(cfg *common.Config, gen *fakeGenerator) http.Handler {
	svc := NewService(cfg, ratelimit.NewMemoryStore(), gen, "models/gemini-2.0-flash", nil, nil)
	return svc.Routes()
}

func doUnderstand(h http.Handler, body string, caller string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/label/understand", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Forwarded-For", caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func understandBody(intent, text string) string {
	b, _ := json.Marshal(map[string]any{
		"intent": intent,
		"ocr":    map[string]any{"text": text},
	})
	return string(b)
}

func TestPing(t *testing.T) {
	h := newTestHandler(testConfig(), &fakeGenerator{})
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ping", decodeBody(t, rec)["message"])
}

func TestUnderstand_NutritionSuccess(t *testing.T) {
	gen := &fakeGenerator{result: &llm.Result{
		Text:  `{"human_summary":"Energy-dense snack","red_flags":null}`,
		Raw:   json.RawMessage(`{"candidates":[{"ok":true}]}`),
		Model: "models/gemini-2.0-flash",
	}}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, understandBody("nutrition", "Nutrition per 100g: Energy 250 kcal, Sugars 12g"), "10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "models/gemini-2.0-flash", body["model"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok, "structured result expected")
	assert.Equal(t, "Energy-dense snack", result["human_summary"])

	raw, ok := body["raw"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, raw, "candidates")

	require.Equal(t, 1, gen.calls())
	assert.Contains(t, gen.lastPrompt(), "User intent: nutrition")
	assert.Contains(t, gen.lastPrompt(), "Nutrition per 100g")
}

func TestUnderstand_NewsyRejectedWithoutUpstreamCall(t *testing.T) {
	gen := &fakeGenerator{}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, understandBody("summary",
		"Breaking: local elections postponed, subscribe to our newspaper for updates, copyright 2024"), "10.0.0.2")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Not a product label", body["error"])
	detail := body["detail"].(map[string]any)
	assert.Equal(t, true, detail["newsy"])
	assert.Zero(t, gen.calls(), "gatekeeper rejections must not reach the paid upstream")
}

func TestUnderstand_InvalidRequestSkipsQuotaAndUpstream(t *testing.T) {
	gen := &fakeGenerator{result: &llm.Result{
		Text:  `{"human_summary":"ok"}`,
		Raw:   json.RawMessage(`{}`),
		Model: "models/gemini-2.0-flash",
	}}
	h := newTestHandler(testConfig(), gen)
	const caller = "10.0.0.3"

	rec := doUnderstand(h, understandBody("recipes", "Ingredients: sugar"), caller)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request", decodeBody(t, rec)["error"])
	assert.Zero(t, gen.calls())

	// The invalid request consumed no quota: a full budget of 20 remains.
	for i := 0; i < 20; i++ {
		rec := doUnderstand(h, understandBody("ingredients", "Ingredients: sugar, salt"), caller)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	// Request 21 within the same window trips the limiter.
	rec = doUnderstand(h, understandBody("ingredients", "Ingredients: sugar, salt"), caller)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Rate limited", body["error"])
	assert.NotEmpty(t, body["message"])

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retryAfter)
	assert.InDelta(t, float64(retryAfter), body["retryAfterSeconds"].(float64), 1)

	assert.Equal(t, 20, gen.calls(), "rejected request must not call upstream")
}

func TestUnderstand_MissingAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	gen := &fakeGenerator{}
	h := newTestHandler(cfg, gen)

	rec := doUnderstand(h, understandBody("summary", "Ingredients: sugar, salt"), "10.0.0.4")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Server is not configured", body["error"])
	assert.Contains(t, body["detail"], "GEMINI_API_KEY")
	assert.Zero(t, gen.calls())
}

func TestUnderstand_UpstreamQuotaErrorPassthrough(t *testing.T) {
	gen := &fakeGenerator{err: &llm.UpstreamError{
		HTTPStatus:        http.StatusTooManyRequests,
		Status:            "RESOURCE_EXHAUSTED",
		Message:           "Quota exceeded",
		RetryAfterSeconds: 43,
		Hint:              "try again after the Retry-After window",
		Raw:               map[string]any{"error": map[string]any{"status": "RESOURCE_EXHAUSTED"}},
	}}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, understandBody("summary", "Ingredients: sugar, salt"), "10.0.0.5")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "43", rec.Header().Get("Retry-After"))

	body := decodeBody(t, rec)
	assert.Equal(t, "Gemini API error", body["error"])
	assert.Equal(t, "RESOURCE_EXHAUSTED", body["status"])
	assert.Equal(t, "Quota exceeded", body["message"])
	assert.Equal(t, float64(43), body["retryAfterSeconds"])
	assert.NotEmpty(t, body["hint"])
	assert.NotNil(t, body["raw"])
}

func TestUnderstand_UnparseableModelOutputDegrades(t *testing.T) {
	gen := &fakeGenerator{result: &llm.Result{
		Text:  "I could not find a label here.",
		Raw:   json.RawMessage(`{"candidates":[]}`),
		Model: "models/gemini-2.0-flash",
	}}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, understandBody("summary", "Ingredients: sugar, salt"), "10.0.0.6")
	require.Equal(t, http.StatusOK, rec.Code, "parse failure of model output is not a request failure")
	assert.Equal(t, "I could not find a label here.", decodeBody(t, rec)["result"])
}

func TestUnderstand_HeuristicRedFlagMerge(t *testing.T) {
	gen := &fakeGenerator{result: &llm.Result{
		Text:  `{"human_summary":"Sweetened drink","red_flags":[]}`,
		Raw:   json.RawMessage(`{}`),
		Model: "models/gemini-2.0-flash",
	}}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, understandBody("ingredients", "Contains artificial sweetener\nIngredients: water, sugar"), "10.0.0.7")
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody(t, rec)["result"].(map[string]any)
	flags, ok := result["red_flags"].([]any)
	require.True(t, ok, "heuristic flags substituted for the model's empty array")
	require.Len(t, flags, 1)
	assert.Equal(t, "Contains artificial sweetener", flags[0].(map[string]any)["text"])
}

func TestUnderstand_IntentDowngrade(t *testing.T) {
	gen := &fakeGenerator{result: &llm.Result{
		Text:  `{"human_summary":"ok"}`,
		Raw:   json.RawMessage(`{}`),
		Model: "models/gemini-2.0-flash",
	}}
	h := newTestHandler(testConfig(), gen)

	// No warning-ish words in the text: effective intent degrades to summary.
	rec := doUnderstand(h, understandBody("warnings", "Ingredients: oats, honey, 2g fat"), "10.0.0.8")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, gen.lastPrompt(), "User intent: summary")
	assert.NotContains(t, gen.lastPrompt(), "User intent: warnings")
}

func TestUnderstand_MalformedJSONBody(t *testing.T) {
	gen := &fakeGenerator{}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, "{not json", "10.0.0.9")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request", decodeBody(t, rec)["error"])
	assert.Zero(t, gen.calls())
}

func TestClientIP(t *testing.T) {
	t.Run("forwarded header wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 70.41.3.18")
		assert.Equal(t, "203.0.113.9", clientIP(req))
	})
	t.Run("falls back to remote address host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		assert.Equal(t, "198.51.100.7", clientIP(req))
	})
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", common.NewAppError("INVALID_REQUEST", "Invalid request", common.ErrInvalidInput), http.StatusBadRequest},
		{"not a label", common.NewAppError("NOT_A_LABEL", "Not a product label", common.ErrNotLabel), http.StatusBadRequest},
		{"rate limited", common.NewAppError("RATE_LIMITED", "Rate limited", common.ErrRateLimited), http.StatusTooManyRequests},
		{"misconfigured", common.NewAppError("MISCONFIGURED", "Server is not configured", common.ErrMisconfigured), http.StatusInternalServerError},
		{"generic upstream failure", common.NewAppError("UPSTREAM_FAILED", "Failed to understand label", common.ErrUpstream), http.StatusInternalServerError},
		{"internal", common.NewAppError("INTERNAL", "internal", common.ErrInternal), http.StatusInternalServerError},
		{"provider status wins", common.NewAppError("GEMINI_ERROR", "Gemini API error", &llm.UpstreamError{HTTPStatus: http.StatusServiceUnavailable}), http.StatusServiceUnavailable},
		{"unknown error defaults to 500", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, statusFor(c.err))
		})
	}
}

func TestUnderstand_GenericUpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset")}
	h := newTestHandler(testConfig(), gen)

	rec := doUnderstand(h, understandBody("summary", "Ingredients: sugar, salt"), "10.0.0.10")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to understand label", body["error"])
	assert.Contains(t, body["detail"], "connection reset")
}

func TestUnderstand_DistinctCallersHaveIndependentQuota(t *testing.T) {
	gen := &fakeGenerator{result: &llm.Result{
		Text:  `{"human_summary":"ok"}`,
		Raw:   json.RawMessage(`{}`),
		Model: "models/gemini-2.0-flash",
	}}
	h := newTestHandler(testConfig(), gen)

	for i := 0; i < 21; i++ {
		caller := fmt.Sprintf("172.16.0.%d", i)
		rec := doUnderstand(h, understandBody("summary", "Ingredients: sugar, salt"), caller)
		require.Equal(t, http.StatusOK, rec.Code, "caller %s", caller)
	}
}
