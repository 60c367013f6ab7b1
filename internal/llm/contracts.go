package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result carries a successful upstream completion.
type Result struct {
	// Text is the model's text content, joined across candidate parts.
	Text string
	// Raw is the unmodified provider payload, echoed back for diagnostics.
	Raw json.RawMessage
	// Model is the fully-qualified model identifier that served the call.
	Model string
}

// UpstreamError is a provider failure translated to a normalized shape. The
// original HTTP status code is propagated to the caller.
type UpstreamError struct {
	HTTPStatus        int
	Status            string // provider status tag, e.g. RESOURCE_EXHAUSTED
	Message           string
	RetryAfterSeconds int    // 0 when the provider gave no retry delay
	Hint              string // static human hint for quota exhaustion
	Raw               any    // decoded provider body, or the raw string
}

func (e *UpstreamError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("upstream %d (%s): %s", e.HTTPStatus, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %d: %s", e.HTTPStatus, e.Message)
}

// Generator is the upstream text-completion collaborator the orchestrator
// depends on. One attempt per call; retry policy belongs to the caller.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (*Result, error)
}
