package market

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/metrics"
)

// BreakerSettings tunes a circuit breaker. The breaker trips once it has seen
// MinRequests calls in the current interval and at least FailureThreshold of
// them failed.
type BreakerSettings struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// DefaultBreakerSettings are used for zero fields.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.6,
	}
}

// NewBreaker builds a gobreaker circuit breaker that logs and records its
// state changes. It returns nil when s is disabled.
func NewBreaker[T any](name string, s BreakerSettings, log *logging.Logger, m *metrics.Metrics) *gobreaker.CircuitBreaker[T] {
	if !s.Enabled {
		return nil
	}
	def := DefaultBreakerSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = def.MaxRequests
	}
	if s.Timeout <= 0 {
		s.Timeout = def.Timeout
	}
	if s.MinRequests == 0 {
		s.MinRequests = def.MinRequests
	}
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = def.FailureThreshold
	}

	m.SetBreakerState(name, gobreaker.StateClosed.String())
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
			m.SetBreakerState(name, to.String())
		},
	})
}

// BreakerProvider stops calling a failing provider for a while. While the
// breaker is open, Lookup fails fast with gobreaker.ErrOpenState.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[*SalaryData]
}

// NewBreakerProvider wraps next. A disabled breaker passes calls through.
func NewBreakerProvider(next Provider, s BreakerSettings, log *logging.Logger, m *metrics.Metrics) *BreakerProvider {
	return &BreakerProvider{
		next: next,
		cb:   NewBreaker[*SalaryData]("market-data", s, log, m),
	}
}

// Lookup implements Provider.
func (b *BreakerProvider) Lookup(ctx context.Context, q Query) (*SalaryData, error) {
	if b.cb == nil {
		return b.next.Lookup(ctx, q)
	}
	return b.cb.Execute(func() (*SalaryData, error) {
		return b.next.Lookup(ctx, q)
	})
}

// State reports the breaker state, "disabled" when there is none.
func (b *BreakerProvider) State() string {
	if b.cb == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
