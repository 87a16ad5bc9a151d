package gamma

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
)

// StatusChecker makes one status query for a generation.
type StatusChecker interface {
	CheckStatus(ctx context.Context, generationID string) (StatusSnapshot, error)
}

// PollState is the Status Poller's state.
type PollState string

const (
	PollPending  PollState = "pending"
	PollComplete PollState = "complete"
	PollFailed   PollState = "failed"
)

// Evaluate maps a snapshot to a poll state: a URL means complete, a terminal
// label without a URL means failed, anything else is still pending.
func Evaluate(s StatusSnapshot) PollState {
	switch {
	case s.Complete():
		return PollComplete
	case s.TerminalFailed():
		return PollFailed
	default:
		return PollPending
	}
}

// Observation is passed to the Poller's OnAttempt hook after every check.
type Observation struct {
	Attempt     int
	MaxAttempts int
	Snapshot    StatusSnapshot
	Err         error
	State       PollState
}

// Poller waits for a generation to produce a shareable URL.
type Poller struct {
	Checker     StatusChecker
	MaxAttempts int
	Backoff     BackoffProfile
	Jitter      JitterFunc
	Sleep       SleepFunc
	Metrics     *Metrics
	Log         *logr.Logger
	// OnAttempt, when set, is called after each status check.
	OnAttempt func(Observation)
}

// NewPoller returns a Poller using the poll backoff profile.
func NewPoller(checker StatusChecker, maxAttempts int) *Poller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollAttempts
	}
	return &Poller{
		Checker:     checker,
		MaxAttempts: maxAttempts,
		Backoff:     PollBackoff,
	}
}

func (p *Poller) logger(ctx context.Context) logr.Logger {
	if p.Log != nil {
		return *p.Log
	}
	return logr.FromContextOrDiscard(ctx)
}

// NextDelay is the wait after the given 1-based attempt. A failed check that
// carried a Retry-After hint overrides the schedule.
func (p *Poller) NextDelay(attempt int, checkErr error) time.Duration {
	var class Classification
	if checkErr != nil {
		class = Classify(checkErr)
	}
	return p.Backoff.Delay(attempt-1, class, p.Jitter)
}

// Wait polls until the snapshot carries a URL, a terminal label is observed,
// a check fails with a non-retryable classification, or MaxAttempts checks
// have been made. It never sleeps after the final check. Failures are
// returned as *PollError together with the last snapshot seen.
func (p *Poller) Wait(ctx context.Context, generationID string) (StatusSnapshot, error) {
	ctx, span := tracer.Start(ctx, "gamma_wait_for_url")
	defer span.End()
	span.SetAttributes(attribute.String("gamma.generation_id", generationID))

	if strings.TrimSpace(generationID) == "" {
		err := &ValidationError{Fields: []FieldError{{Field: "generationId", Reason: "is required"}}}
		recordError(span, err)
		return StatusSnapshot{}, err
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollAttempts
	}
	log := p.logger(ctx).WithValues("generationId", generationID)
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var last StatusSnapshot
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		snap, err := p.Checker.CheckStatus(ctx, generationID)

		state := PollPending
		if err == nil {
			last = snap
			state = Evaluate(snap)
		}
		if p.OnAttempt != nil {
			p.OnAttempt(Observation{Attempt: attempt, MaxAttempts: maxAttempts, Snapshot: snap, Err: err, State: state})
		}

		if err != nil {
			class := Classify(err)
			if !class.Retryable() {
				p.Metrics.poll("error")
				perr := &PollError{
					GenerationID: generationID,
					Status:       StatusError,
					Kind:         class.Kind,
					Attempts:     attempt,
					Err:          fmt.Errorf("check status of %s: %w", generationID, err),
				}
				recordError(span, perr)
				return last, perr
			}
			p.Metrics.poll("transient")
			log.Info("Status check failed, will retry", "attempt", attempt, "class", class.Kind, "error", err.Error())
		} else {
			switch state {
			case PollComplete:
				p.Metrics.poll(string(PollComplete))
				span.SetAttributes(attribute.Int("gamma.poll_attempts", attempt))
				return snap, nil
			case PollFailed:
				p.Metrics.poll(string(PollFailed))
				perr := &PollError{
					GenerationID: generationID,
					Status:       snap.Status,
					Attempts:     attempt,
					Message:      snap.Error,
				}
				if snap.Status == StatusNotFound {
					perr.Kind = KindNotFound
				}
				if perr.Message == "" {
					perr.Message = "Generation failed with status: " + snap.Status
				}
				recordError(span, perr)
				return snap, perr
			}
			p.Metrics.poll(string(PollPending))
		}

		if attempt == maxAttempts {
			break
		}

		delay := p.NextDelay(attempt, err)
		log.Info("Generation pending, waiting before next check",
			"attempt", attempt,
			"maxAttempts", maxAttempts,
			"status", snap.Status,
			"delay", delay.String(),
		)
		if err := sleep(ctx, delay); err != nil {
			recordError(span, err)
			return last, err
		}
	}

	perr := &PollError{
		GenerationID: generationID,
		Status:       StatusTimeout,
		Kind:         KindTimeout,
		Attempts:     maxAttempts,
		Err:          ErrPollTimeout,
	}
	recordError(span, perr)
	return last, perr
}
