package provider

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/debuglog"
)

// Breaker wraps a Provider with a circuit breaker so a failing API is not
// hammered once per slot during a batch.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Provider, cfg config.BreakerConfig) *Breaker {
	log := debuglog.Component("breaker")
	minRequests := cfg.MinRequests
	threshold := cfg.FailureThreshold

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "provider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("circuit breaker %q changed from %v to %v", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Client errors and cancellations say nothing about provider health.
			if errors.Is(err, context.Canceled) {
				return true
			}
			var fe *FetchError
			if errors.As(err, &fe) && !fe.Retryable() {
				return true
			}
			return false
		},
	})

	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Search(ctx context.Context, query string, pageSize int, pageToken string) (*SearchPage, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Search(ctx, query, pageSize, pageToken)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &FetchError{Query: query, Err: ErrCircuitOpen}
		}
		return nil, err
	}
	return res.(*SearchPage), nil
}

// State reports the breaker state, for status display.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
