package gamma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gamma-client")

const (
	generationsPath = "/v0.2/generations"
	themesPath      = "/v0.2/themes"
)

// Client is the Gamma API client.
type Client struct {
	baseURL      string
	apiKey       string
	userAgent    string
	timeout      time.Duration
	pollAttempts int
	defaults     Defaults
	httpClient   Doer
	retrier      *Retrier
	metrics      *Metrics
	log          *logr.Logger
	sleep        SleepFunc
	jitter       JitterFunc
}

// NewClient validates the credential and builds a client. It performs no
// network activity.
func NewClient(opts Options) (*Client, error) {
	if !strings.HasPrefix(opts.APIKey, APIKeyPrefix) || len(opts.APIKey) == len(APIKeyPrefix) {
		return nil, ErrInvalidAPIKey
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pollAttempts := opts.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = DefaultPollAttempts
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	retrier := NewRetrier(opts.MaxRetries)
	retrier.Metrics = opts.Metrics
	retrier.Log = opts.Logger
	retrier.Sleep = opts.Sleep
	retrier.Jitter = opts.Jitter

	return &Client{
		baseURL:      baseURL,
		apiKey:       opts.APIKey,
		userAgent:    "gamma-mcp-server/" + Version,
		timeout:      timeout,
		pollAttempts: pollAttempts,
		defaults:     opts.Defaults,
		httpClient:   httpClient,
		retrier:      retrier,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		sleep:        opts.Sleep,
		jitter:       opts.Jitter,
	}, nil
}

// Defaults returns the configured request defaults.
func (c *Client) Defaults() Defaults {
	return c.defaults
}

// Submit builds the request from params and the configured defaults and
// posts it, retrying transient failures. The returned errors are a
// *ValidationError, a *TransportError once retries are spent,
// ErrSubmissionIncomplete, or an unexpected error.
func (c *Client) Submit(ctx context.Context, params GenerateParams) (GenerationHandle, error) {
	ctx, span := tracer.Start(ctx, "gamma_submit")
	defer span.End()

	req, err := BuildRequest(params, c.defaults)
	if err != nil {
		recordError(span, err)
		return GenerationHandle{}, err
	}
	span.SetAttributes(
		attribute.String("gamma.format", string(req.Format)),
		attribute.Int("gamma.num_cards", req.NumCards),
	)

	raw, err := Retry(ctx, c.retrier, "submit", func(ctx context.Context) (rawGeneration, error) {
		var raw rawGeneration
		err := c.do(ctx, "submit", http.MethodPost, generationsPath, req, &raw)
		return raw, err
	})
	if err != nil {
		c.metrics.request("submit", string(Classify(err).Kind))
		recordError(span, err)
		return GenerationHandle{}, err
	}

	id := raw.id()
	if id == "" {
		c.metrics.request("submit", string(KindSubmissionIncomplete))
		err := ErrSubmissionIncomplete
		if text := raw.errorText(); text != "" {
			err = fmt.Errorf("%w: %s", ErrSubmissionIncomplete, text)
		}
		recordError(span, err)
		return GenerationHandle{}, err
	}

	c.metrics.request("submit", "ok")
	span.SetAttributes(attribute.String("gamma.generation_id", id))

	status := raw.Status
	if status == "" {
		status = StatusSubmitted
	}
	message := raw.Message
	if message == "" {
		message = "Generation request submitted successfully"
	}
	return GenerationHandle{
		ID:      id,
		Status:  status,
		URL:     raw.url(),
		Message: message,
		Credits: raw.Credits,
	}, nil
}

// CheckStatus makes one status query. A 404 yields a not_found snapshot
// rather than an error; other failures are returned as *TransportError for
// the caller to classify.
func (c *Client) CheckStatus(ctx context.Context, generationID string) (StatusSnapshot, error) {
	ctx, span := tracer.Start(ctx, "gamma_get_status")
	defer span.End()
	span.SetAttributes(attribute.String("gamma.generation_id", generationID))

	if strings.TrimSpace(generationID) == "" {
		err := &ValidationError{Fields: []FieldError{{Field: "generationId", Reason: "is required"}}}
		recordError(span, err)
		return StatusSnapshot{}, err
	}

	var raw rawGeneration
	err := c.do(ctx, "status", http.MethodGet, generationsPath+"/"+url.PathEscape(generationID), nil, &raw)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) && terr.StatusCode == http.StatusNotFound {
			c.metrics.request("status", string(KindNotFound))
			span.SetAttributes(attribute.String("gamma.status", StatusNotFound))
			return StatusSnapshot{
				ID:     generationID,
				Status: StatusNotFound,
				Error:  "Generation not found or status endpoint not available in beta",
			}, nil
		}
		c.metrics.request("status", string(Classify(err).Kind))
		recordError(span, err)
		return StatusSnapshot{}, err
	}

	c.metrics.request("status", "ok")
	span.SetAttributes(attribute.String("gamma.status", raw.Status))
	return StatusSnapshot{
		ID:        generationID,
		Status:    raw.Status,
		URL:       raw.url(),
		GammaURL:  raw.GammaURL,
		ExportURL: raw.ExportURL,
		Message:   raw.Message,
		Error:     raw.errorText(),
		Credits:   raw.Credits,
	}, nil
}

// Poller returns a Status Poller bound to this client. maxAttempts <= 0
// selects the configured budget.
func (c *Client) Poller(maxAttempts int) *Poller {
	if maxAttempts <= 0 {
		maxAttempts = c.pollAttempts
	}
	p := NewPoller(c, maxAttempts)
	p.Metrics = c.metrics
	p.Log = c.log
	p.Sleep = c.sleep
	p.Jitter = c.jitter
	return p
}

// Themes lists the available themes, falling back to the built-in list when
// the endpoint fails or returns nothing.
func (c *Client) Themes(ctx context.Context) []Theme {
	ctx, span := tracer.Start(ctx, "gamma_list_themes")
	defer span.End()

	var body struct {
		Themes []Theme `json:"themes"`
	}
	if err := c.do(ctx, "themes", http.MethodGet, themesPath, nil, &body); err != nil {
		c.metrics.request("themes", string(Classify(err).Kind))
		span.SetAttributes(attribute.Bool("gamma.themes_fallback", true))
		return DefaultThemes()
	}
	c.metrics.request("themes", "ok")
	if len(body.Themes) == 0 {
		span.SetAttributes(attribute.Bool("gamma.themes_fallback", true))
		return DefaultThemes()
	}
	span.SetAttributes(attribute.Int("gamma.themes", len(body.Themes)))
	return body.Themes
}

// DownloadExport fetches an exported file (pdf/pptx) from the URL reported by
// a completed generation.
func (c *Client) DownloadExport(ctx context.Context, exportURL string) ([]byte, string, error) {
	ctx, span := tracer.Start(ctx, "gamma_download_export")
	defer span.End()

	dl, err := Retry(ctx, c.retrier, "download", func(ctx context.Context) (download, error) {
		return c.download(ctx, exportURL)
	})
	if err != nil {
		recordError(span, err)
		return nil, "", err
	}
	span.SetAttributes(attribute.Int("gamma.export_size", len(dl.body)))
	return dl.body, dl.contentType, nil
}

type download struct {
	body        []byte
	contentType string
}

func (c *Client) download(ctx context.Context, exportURL string) (download, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return download{}, fmt.Errorf("failed to create download request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return download{}, &TransportError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20*maxResponseBytes))
	if err != nil {
		return download{}, &TransportError{Op: "download", Err: fmt.Errorf("failed to read download body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return download{}, &TransportError{Op: "download", StatusCode: resp.StatusCode, Status: resp.Status, Header: resp.Header, Body: data}
	}
	return download{body: data, contentType: resp.Header.Get("Content-Type")}, nil
}

// do performs one request against the API. Non-2xx responses and failures to
// get a response come back as *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		if len(data) > maxRequestBytes {
			return fmt.Errorf("request body of %d bytes exceeds the %d byte limit", len(data), maxRequestBytes)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Body:       data,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeJSON(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func decodeJSON(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
