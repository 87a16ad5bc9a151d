package gamma

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func noJitter(time.Duration) time.Duration { return 0 }

func maxJitter(limit time.Duration) time.Duration { return limit - time.Millisecond }

func TestBackoffSubmitProfile(t *testing.T) {
	g := NewWithT(t)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second}
	for attempt, d := range want {
		g.Expect(SubmitBackoff.Delay(attempt, Classification{Kind: KindServerError}, noJitter)).To(Equal(d), "attempt %d", attempt)
	}
}

func TestBackoffPollProfile(t *testing.T) {
	g := NewWithT(t)

	g.Expect(PollBackoff.Delay(0, Classification{}, noJitter)).To(Equal(2 * time.Second))
	g.Expect(PollBackoff.Delay(1, Classification{}, noJitter)).To(Equal(3 * time.Second))
	g.Expect(PollBackoff.Delay(2, Classification{}, noJitter)).To(Equal(4500 * time.Millisecond))
	g.Expect(PollBackoff.Delay(40, Classification{}, noJitter)).To(Equal(30 * time.Second))
}

func TestBackoffJitterStaysUnderCap(t *testing.T) {
	g := NewWithT(t)

	g.Expect(SubmitBackoff.Delay(0, Classification{}, maxJitter)).To(Equal(1999 * time.Millisecond))
	for attempt := 0; attempt < 64; attempt++ {
		g.Expect(SubmitBackoff.Delay(attempt, Classification{}, maxJitter)).To(BeNumerically("<=", 30*time.Second))
		g.Expect(PollBackoff.Delay(attempt, Classification{}, UniformJitter)).To(BeNumerically("<=", 30*time.Second))
	}
}

func TestBackoffMonotonic(t *testing.T) {
	g := NewWithT(t)

	for _, p := range []BackoffProfile{SubmitBackoff, PollBackoff} {
		prev := time.Duration(0)
		for attempt := 0; attempt < 30; attempt++ {
			d := p.Delay(attempt, Classification{Kind: KindTimeout}, noJitter)
			g.Expect(d).To(BeNumerically(">=", prev))
			prev = d
		}
	}
}

func TestBackoffRetryAfterHint(t *testing.T) {
	g := NewWithT(t)

	for _, secs := range []int{0, 1, 5, 45, 120} {
		c := Classification{Kind: KindRateLimited, RetryAfter: time.Duration(secs) * time.Second, HasRetryAfter: true}
		g.Expect(SubmitBackoff.Delay(3, c, maxJitter)).To(Equal(time.Duration(secs*1000) * time.Millisecond))
		g.Expect(PollBackoff.Delay(0, c, maxJitter)).To(Equal(time.Duration(secs*1000) * time.Millisecond))
	}
}

func TestUniformJitter(t *testing.T) {
	g := NewWithT(t)

	g.Expect(UniformJitter(0)).To(BeZero())
	for i := 0; i < 100; i++ {
		j := UniformJitter(time.Second)
		g.Expect(j).To(BeNumerically(">=", 0))
		g.Expect(j).To(BeNumerically("<", time.Second))
	}
}
