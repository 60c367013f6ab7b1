package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bharatsetu/label-auditor/internal/llm"
)

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// errorEnvelope is the provider's non-2xx body. Details carry typed entries;
// RetryInfo entries hold a retryDelay duration string like "43s".
type errorEnvelope struct {
	Error *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details []struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
	Message string `json:"message"`
}

// GenerateContent posts the prompt and returns the joined candidate text
// plus the unmodified payload. One attempt per call: quota errors carry a
// retry hint for the caller instead of being retried here.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (*llm.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: API key is empty")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{Temperature: c.cfg.Temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, url.QueryEscape(c.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("gemini.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"prompt_len", len(prompt),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("gemini.send_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("gemini: send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("gemini.response_body_close_error", "req_id", rid, "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	c.logger.Info("gemini.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, translateError(resp.StatusCode, raw)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		// Non-JSON 2xx body: hand it back as raw diagnostics, empty text.
		return &llm.Result{Text: "", Raw: raw, Model: c.cfg.Model}, nil
	}

	var text string
	if len(out.Candidates) > 0 {
		var parts []string
		for _, p := range out.Candidates[0].Content.Parts {
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
		text = strings.Join(parts, "\n")
	}

	return &llm.Result{Text: text, Raw: raw, Model: c.cfg.Model}, nil
}

// translateError converts a provider error body into the normalized shape:
// message, status tag, retry delay in seconds when RetryInfo is present, and
// a static hint when the status indicates quota exhaustion.
func translateError(httpStatus int, raw []byte) *llm.UpstreamError {
	ue := &llm.UpstreamError{
		HTTPStatus: httpStatus,
		Raw:        string(raw),
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		var decoded any
		if json.Unmarshal(raw, &decoded) == nil {
			ue.Raw = decoded
		}
		switch {
		case env.Error != nil && env.Error.Message != "":
			ue.Message = env.Error.Message
		case env.Message != "":
			ue.Message = env.Message
		}
		if env.Error != nil {
			ue.Status = env.Error.Status
			for _, d := range env.Error.Details {
				if strings.Contains(d.Type, "RetryInfo") && strings.HasSuffix(d.RetryDelay, "s") {
					if secs, err := strconv.Atoi(strings.TrimSuffix(d.RetryDelay, "s")); err == nil && secs > 0 {
						ue.RetryAfterSeconds = secs
					}
				}
			}
		}
	}
	if ue.Message == "" {
		ue.Message = string(raw)
	}

	if httpStatus == http.StatusTooManyRequests {
		ue.Hint = "Your Gemini API quota appears to be 0 (or exceeded). Enable billing / adjust limits in Google AI Studio, or try again after the Retry-After window."
	}
	return ue
}
