package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between requests to the primary API.
const DefaultInterval = 1 * time.Second

var throttleWaitSeconds = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
	Name:    "harvest_throttle_wait_seconds",
	Help:    "Time spent waiting for the request throttle",
	Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2},
})

// Throttle enforces a minimum interval between requests using a token bucket
// with a burst of one. It does not react to server responses.
type Throttle struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewThrottle creates a throttle allowing one request per interval.
// A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the next request may be issued or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle wait: %w", err)
	}
	throttleWaitSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// Interval returns the configured spacing.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
