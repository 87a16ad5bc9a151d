package gamma

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind is the classification of a failed attempt.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindClientError          Kind = "non_retryable_client_error"
	KindRateLimited          Kind = "rate_limited"
	KindServerError          Kind = "server_error"
	KindTimeout              Kind = "timeout"
	KindUnknown              Kind = "unknown_failure"
	KindNotFound             Kind = "not_found"
	KindSubmissionIncomplete Kind = "submission_incomplete"
)

// Classification is the classifier's verdict on one failed attempt.
type Classification struct {
	Kind Kind
	// RetryAfter is the server-supplied wait, valid only when HasRetryAfter.
	RetryAfter    time.Duration
	HasRetryAfter bool
}

// Retryable reports whether another attempt may succeed.
func (c Classification) Retryable() bool {
	switch c.Kind {
	case KindRateLimited, KindServerError, KindTimeout:
		return true
	default:
		return false
	}
}

// Classify assigns a Kind to the error returned by a transport attempt.
// Errors that are not a *TransportError are KindUnknown and never retried.
func Classify(err error) Classification {
	var terr *TransportError
	if !errors.As(err, &terr) {
		return Classification{Kind: KindUnknown}
	}

	status := terr.StatusCode
	switch {
	case status == 0:
		if isTimeout(terr.Err) {
			return Classification{Kind: KindTimeout}
		}
		return Classification{Kind: KindServerError}
	case status == http.StatusTooManyRequests:
		c := Classification{Kind: KindRateLimited}
		if d, ok := retryAfter(terr.Header); ok {
			c.RetryAfter = d
			c.HasRetryAfter = true
		}
		return c
	case status >= 400 && status < 500:
		return Classification{Kind: KindClientError}
	default:
		return Classification{Kind: KindServerError}
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// retryAfter parses a Retry-After header expressed in whole seconds.
func retryAfter(h http.Header) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
