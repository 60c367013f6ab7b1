package gemini

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for the Gemini client.
type Config struct {
	APIKey      string
	Model       string  // fully-qualified, e.g. "models/gemini-2.0-flash"
	BaseURL     string  // default https://generativelanguage.googleapis.com/v1
	Temperature float32 // kept low for near-deterministic structured output
	Timeout     time.Duration
}

// Client calls the generateContent REST endpoint directly. The raw HTTP path
// is deliberate: provider error bodies must be surfaced verbatim to callers,
// which the official SDK hides.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient applies defaults and builds a client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "models/gemini-2.0-flash"
	}
	if !strings.HasPrefix(cfg.Model, "models/") {
		cfg.Model = "models/" + cfg.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Model returns the fully-qualified model identifier the client calls.
func (c *Client) Model() string { return c.cfg.Model }
