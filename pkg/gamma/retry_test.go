package gamma

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type sleepRecorder struct {
	delays []time.Duration
	err    error
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func testRetrier(maxRetries int, rec *sleepRecorder) *Retrier {
	r := NewRetrier(maxRetries)
	r.Jitter = noJitter
	r.Sleep = rec.sleep
	return r
}

func TestRetrySucceedsFirstTime(t *testing.T) {
	g := NewWithT(t)
	rec := &sleepRecorder{}

	calls := 0
	got, err := Retry(context.Background(), testRetrier(3, rec), "submit", func(context.Context) (string, error) {
		calls++
		return "gen-1", nil
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal("gen-1"))
	g.Expect(calls).To(Equal(1))
	g.Expect(rec.delays).To(BeEmpty())
}

func TestRetryNonRetryableMakesOneAttempt(t *testing.T) {
	for _, budget := range []int{0, 1, 3, 10} {
		g := NewWithT(t)
		rec := &sleepRecorder{}

		calls := 0
		_, err := Retry(context.Background(), testRetrier(budget, rec), "submit", func(context.Context) (int, error) {
			calls++
			return 0, httpError(http.StatusUnauthorized, nil)
		})
		g.Expect(err).To(HaveOccurred())
		g.Expect(Classify(err).Kind).To(Equal(KindClientError))
		g.Expect(calls).To(Equal(1))
		g.Expect(rec.delays).To(BeEmpty())
	}
}

func TestRetryUnclassifiedErrorPropagates(t *testing.T) {
	g := NewWithT(t)
	rec := &sleepRecorder{}
	boom := errors.New("decode failure")

	calls := 0
	_, err := Retry(context.Background(), testRetrier(3, rec), "submit", func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	g.Expect(err).To(MatchError(boom))
	g.Expect(calls).To(Equal(1))
}

func TestRetryExhaustsBudget(t *testing.T) {
	for _, budget := range []int{0, 1, 3, 5} {
		g := NewWithT(t)
		rec := &sleepRecorder{}

		calls := 0
		var last error
		_, err := Retry(context.Background(), testRetrier(budget, rec), "submit", func(context.Context) (int, error) {
			calls++
			last = httpError(http.StatusServiceUnavailable, nil)
			return 0, last
		})
		g.Expect(err).To(BeIdenticalTo(last))
		g.Expect(calls).To(Equal(budget + 1))
		g.Expect(rec.delays).To(HaveLen(budget))
	}
}

func TestRetryDelaysFollowSubmitProfile(t *testing.T) {
	g := NewWithT(t)
	rec := &sleepRecorder{}

	_, _ = Retry(context.Background(), testRetrier(3, rec), "submit", func(context.Context) (int, error) {
		return 0, &TransportError{Op: "submit", Err: context.DeadlineExceeded}
	})
	g.Expect(rec.delays).To(Equal([]time.Duration{time.Second, 2 * time.Second, 4 * time.Second}))
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	g := NewWithT(t)
	rec := &sleepRecorder{}

	calls := 0
	got, err := Retry(context.Background(), testRetrier(3, rec), "submit", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", httpError(http.StatusTooManyRequests, http.Header{"Retry-After": []string{"5"}})
		}
		return "ok", nil
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal("ok"))
	g.Expect(rec.delays).To(Equal([]time.Duration{5 * time.Second}))
}

func TestRetryStopsWhenSleepIsCancelled(t *testing.T) {
	g := NewWithT(t)
	rec := &sleepRecorder{err: context.Canceled}

	calls := 0
	_, err := Retry(context.Background(), testRetrier(3, rec), "submit", func(context.Context) (int, error) {
		calls++
		return 0, httpError(http.StatusBadGateway, nil)
	})
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(calls).To(Equal(1))
}

func TestRetryCountsRetries(t *testing.T) {
	g := NewWithT(t)
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	g.Expect(err).NotTo(HaveOccurred())

	rec := &sleepRecorder{}
	r := testRetrier(2, rec)
	r.Metrics = m
	_, _ = Retry(context.Background(), r, "submit", func(context.Context) (int, error) {
		return 0, httpError(http.StatusInternalServerError, nil)
	})
	g.Expect(testutil.ToFloat64(m.retries.WithLabelValues("submit", string(KindServerError)))).To(Equal(2.0))
}

func TestNewRetrierDefaults(t *testing.T) {
	g := NewWithT(t)

	g.Expect(NewRetrier(-1).MaxRetries).To(Equal(DefaultMaxRetries))
	g.Expect(NewRetrier(0).MaxRetries).To(Equal(0))
	g.Expect(NewRetrier(7).Backoff).To(Equal(SubmitBackoff))
}

func TestSleepContext(t *testing.T) {
	g := NewWithT(t)

	g.Expect(SleepContext(context.Background(), 0)).To(Succeed())
	g.Expect(SleepContext(context.Background(), time.Millisecond)).To(Succeed())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.Expect(SleepContext(ctx, time.Hour)).To(MatchError(context.Canceled))
}
