package gamma

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidAPIKey is returned when the credential does not carry the
	// expected prefix. No request is sent in that case.
	ErrInvalidAPIKey = errors.New(`invalid API key format: API key must start with "` + APIKeyPrefix + `"`)

	// ErrSubmissionIncomplete marks a successful submit response that lacks a
	// generation id.
	ErrSubmissionIncomplete = errors.New("no generation id returned from Gamma")

	// ErrPollTimeout marks a poll that used its whole attempt budget while the
	// generation was still pending.
	ErrPollTimeout = errors.New("timed out waiting for Gamma to produce a shareable URL")
)

// TransportError is a failed exchange with the Gamma API: either no response
// arrived (StatusCode == 0) or the response carried a non-success status.
type TransportError struct {
	Op         string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: API error: %d - %s", e.Op, e.StatusCode, e.message())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// message extracts a human-readable reason from the response body.
func (e *TransportError) message() string {
	var body struct {
		Message string `json:"message"`
	}
	if len(e.Body) > 0 && decodeJSON(e.Body, &body) == nil && body.Message != "" {
		return body.Message
	}
	if e.Status != "" {
		return strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprint(e.StatusCode)))
	}
	return "Unknown error"
}

// FieldError describes one invalid caller-supplied field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError is returned for malformed caller input before any network
// activity.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid parameters: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PollError is returned by the Status Poller when it ends in a failed state.
type PollError struct {
	GenerationID string
	Status       string
	Kind         Kind
	Attempts     int
	Message      string
	Err          error
}

func (e *PollError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("generation failed with status: %s", e.Status)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
