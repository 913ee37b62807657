package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	quotaRemaining = promauto.With(metrics.Registry).NewGauge(prometheus.GaugeOpts{
		Name: "harvest_api_quota_remaining",
		Help: "Requests remaining in the primary API quota window",
	})

	quotaExhaustedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "harvest_api_quota_exhausted_total",
		Help: "Number of responses that reported an exhausted quota",
	})
)

// Tracker records the quota headers of primary-API responses. It only
// observes: pacing stays with the Throttle.
type Tracker struct {
	mu     sync.RWMutex
	state  QuotaState
	logger zerolog.Logger
}

// NewTracker creates a tracker with unknown quota.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// State returns a copy of the last observed quota.
func (t *Tracker) State() QuotaState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UpdateFromHeaders parses quota headers. Responses without them are ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	now := time.Now()
	state := QuotaState{
		Remaining:  remain,
		LastUpdate: now,
		Known:      true,
	}

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		state.Limit = limit
	}

	// Elsevier sends the reset as epoch seconds.
	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		reset, err := strconv.ParseInt(resetStr, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		state.ResetAt = time.Unix(reset, 0)
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	quotaRemaining.Set(float64(remain))

	switch {
	case state.IsExhausted():
		quotaExhaustedTotal.Inc()
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Dur("reset_in", state.TimeUntilReset()).
			Msg("API quota exhausted")
	case state.IsLow():
		t.logger.Warn().
			Int("remaining", remain).
			Int("limit", state.Limit).
			Msg("API quota running low")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Int("limit", state.Limit).
			Msg("API quota updated")
	}

	return nil
}

// Report logs the last observed quota. A quota older than maxAge, or one
// never observed, is only logged at debug level.
func (t *Tracker) Report(maxAge time.Duration) {
	state := t.State()
	if !state.Known || state.IsStale(maxAge) {
		t.logger.Debug().
			Bool("known", state.Known).
			Time("last_update", state.LastUpdate).
			Msg("No current API quota")
		return
	}

	t.logger.Info().
		Int("remaining", state.Remaining).
		Int("limit", state.Limit).
		Dur("reset_in", state.TimeUntilReset()).
		Msg("API quota")
}
