package gamma

import (
	"context"
	"errors"
	"fmt"
)

// Result is the caller-facing outcome of a Gamma operation. Expected
// operational failures are reported through Status, Error and ErrorKind
// rather than as Go errors.
type Result struct {
	GenerationID string   `json:"generationId"`
	Status       string   `json:"status"`
	URL          string   `json:"url,omitempty"`
	GammaURL     string   `json:"gammaUrl,omitempty"`
	ExportURL    string   `json:"exportUrl,omitempty"`
	Message      string   `json:"message,omitempty"`
	Error        string   `json:"error,omitempty"`
	ErrorKind    Kind     `json:"errorKind,omitempty"`
	Credits      *Credits `json:"credits,omitempty"`
	Attempts     int      `json:"attempts,omitempty"`
}

// Failed reports whether the result describes a failure.
func (r Result) Failed() bool {
	return r.Error != "" || r.ErrorKind != ""
}

// FailureResult converts an expected operational failure into a Result. It
// returns false for validation and unexpected errors, which callers should
// propagate as errors.
func FailureResult(generationID string, err error) (Result, bool) {
	var (
		terr *TransportError
		perr *PollError
	)
	switch {
	case errors.As(err, &perr):
		r := Result{
			GenerationID: perr.GenerationID,
			Status:       perr.Status,
			Error:        perr.Error(),
			ErrorKind:    perr.Kind,
			Attempts:     perr.Attempts,
		}
		if r.GenerationID == "" {
			r.GenerationID = generationID
		}
		return r, true
	case errors.As(err, &terr):
		class := Classify(terr)
		r := Result{GenerationID: generationID, ErrorKind: class.Kind}
		switch {
		case terr.StatusCode != 0:
			r.Status = StatusError
			r.Error = fmt.Sprintf("API Error: %d - %s", terr.StatusCode, terr.message())
		case class.Kind == KindTimeout:
			r.Status = StatusTimeout
			r.Error = "Request timed out while waiting for Gamma API response"
		default:
			r.Status = StatusError
			r.Error = fmt.Sprintf("Network error: %v", terr.Err)
		}
		return r, true
	case errors.Is(err, ErrSubmissionIncomplete):
		return Result{
			GenerationID: generationID,
			Status:       StatusError,
			Error:        err.Error(),
			ErrorKind:    KindSubmissionIncomplete,
		}, true
	default:
		return Result{}, false
	}
}

// Generate submits a generation and reports the handle as a Result.
func (c *Client) Generate(ctx context.Context, params GenerateParams) (Result, error) {
	h, err := c.Submit(ctx, params)
	if err != nil {
		if r, ok := FailureResult("", err); ok {
			return r, nil
		}
		return Result{}, err
	}
	return Result{
		GenerationID: h.ID,
		Status:       h.Status,
		URL:          h.URL,
		Message:      h.Message,
		Credits:      h.Credits,
	}, nil
}

// Status makes one status query and reports it as a Result.
func (c *Client) Status(ctx context.Context, generationID string) (Result, error) {
	snap, err := c.CheckStatus(ctx, generationID)
	if err != nil {
		if r, ok := FailureResult(generationID, err); ok {
			return r, nil
		}
		return Result{}, err
	}
	r := snapshotResult(snap)
	if snap.Status == StatusNotFound {
		r.ErrorKind = KindNotFound
	}
	return r, nil
}

// WaitForURL polls until the generation has a shareable URL. maxAttempts <= 0
// selects the configured budget.
func (c *Client) WaitForURL(ctx context.Context, generationID string, maxAttempts int) (Result, error) {
	p := c.Poller(maxAttempts)
	attempts := 0
	p.OnAttempt = func(o Observation) { attempts = o.Attempt }

	snap, err := p.Wait(ctx, generationID)
	if err != nil {
		if r, ok := FailureResult(generationID, err); ok {
			if r.Credits == nil {
				r.Credits = snap.Credits
			}
			return r, nil
		}
		return Result{}, err
	}
	r := snapshotResult(snap)
	r.Status = StatusCompleted
	r.Error = ""
	r.Attempts = attempts
	if r.Message == "" {
		r.Message = "Generation completed"
	}
	return r, nil
}

func snapshotResult(s StatusSnapshot) Result {
	return Result{
		GenerationID: s.ID,
		Status:       s.Status,
		URL:          s.URL,
		GammaURL:     s.GammaURL,
		ExportURL:    s.ExportURL,
		Message:      s.Message,
		Error:        s.Error,
		Credits:      s.Credits,
	}
}
