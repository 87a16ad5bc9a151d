package gamma

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const (
	DefaultBaseURL = "https://public-api.gamma.app"
	APIKeyPrefix   = "sk-gamma-"
	Version        = "1.0.0"

	DefaultTimeout      = 30 * time.Second
	DefaultNumCards     = 10
	MinNumCards         = 1
	MaxNumCards         = 75
	DefaultPollAttempts = 20

	maxResponseBytes = 10 << 20
	maxRequestBytes  = 1 << 20
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Defaults are the process-wide fallbacks for optional request fields. Empty
// values fall through to the built-in defaults.
type Defaults struct {
	NumCards      int
	TextMode      TextMode
	Format        Format
	CardSplit     CardSplit
	TextAmount    TextAmount
	ImageSource   ImageSource
	CardDimension CardDimension
	ExportAs      []ExportType
}

// Resolved fills every empty field with its built-in default.
func (d Defaults) Resolved() Defaults {
	if d.NumCards <= 0 {
		d.NumCards = DefaultNumCards
	}
	if d.TextMode == "" {
		d.TextMode = TextModeGenerate
	}
	if d.Format == "" {
		d.Format = FormatPresentation
	}
	if d.CardSplit == "" {
		d.CardSplit = CardSplitAuto
	}
	if d.TextAmount == "" {
		d.TextAmount = TextAmountMedium
	}
	if d.ImageSource == "" {
		d.ImageSource = ImageSourceAIGenerated
	}
	return d
}

// Options configures a Client. It is built once at startup, usually by
// internal/config, and never read from the environment afterwards.
type Options struct {
	APIKey  string
	BaseURL string
	// Timeout bounds each individual HTTP call.
	Timeout time.Duration
	// MaxRetries is the submission retry budget. Negative selects
	// DefaultMaxRetries; zero disables retries.
	MaxRetries int
	// PollAttempts is the default Status Poller budget.
	PollAttempts int
	Defaults     Defaults

	HTTPClient Doer
	Metrics    *Metrics
	Logger     *logr.Logger

	// Sleep and Jitter replace the real timer and random jitter, mainly in
	// tests.
	Sleep  SleepFunc
	Jitter JitterFunc
}
