package gamma

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffProfile is the shape of an exponential delay schedule:
// min(Base*Multiplier^attempt + jitter, Cap), jitter drawn from [0, MaxJitter).
type BackoffProfile struct {
	Base       time.Duration
	Multiplier float64
	MaxJitter  time.Duration
	Cap        time.Duration
}

var (
	// SubmitBackoff spaces retries of the submission call.
	SubmitBackoff = BackoffProfile{
		Base:       time.Second,
		Multiplier: 2,
		MaxJitter:  time.Second,
		Cap:        30 * time.Second,
	}

	// PollBackoff spaces status checks while waiting for a URL.
	PollBackoff = BackoffProfile{
		Base:       2 * time.Second,
		Multiplier: 1.5,
		MaxJitter:  time.Second,
		Cap:        30 * time.Second,
	}
)

// JitterFunc returns a duration in [0, limit).
type JitterFunc func(limit time.Duration) time.Duration

// UniformJitter draws uniformly from [0, limit).
func UniformJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

// Delay computes the wait before the attempt following the zero-based
// attempt index. A server-supplied Retry-After wins over the formula and is
// not capped.
func (p BackoffProfile) Delay(attempt int, c Classification, jitter JitterFunc) time.Duration {
	if c.HasRetryAfter {
		return c.RetryAfter
	}
	if jitter == nil {
		jitter = UniformJitter
	}
	if attempt < 0 {
		attempt = 0
	}

	exp := float64(p.Base) * math.Pow(p.Multiplier, float64(attempt))
	if p.Cap > 0 && (math.IsInf(exp, 0) || exp > float64(p.Cap)) {
		exp = float64(p.Cap)
	}
	d := time.Duration(exp) + jitter(p.MaxJitter)
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	return d
}
