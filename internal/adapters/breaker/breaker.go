// Package breaker wraps sony/gobreaker for the outbound collaborators so a
// failing provider is cut off instead of hammered.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"venue_reputation/internal/adapters/observability"
	"venue_reputation/internal/domain"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit open")

type Settings struct {
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// OpenFor is how long the circuit stays open before a half-open probe.
	OpenFor time.Duration
}

type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

func New[T any](name string, s Settings) *Breaker[T] {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	observability.ObserveBreaker(name, "closed", "closed", 0)

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		// A miss or a caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("service", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			observability.ObserveBreaker(name, from.String(), to.String(), stateToFloat(to))
		},
	})
	return &Breaker[T]{name: name, cb: cb}
}

// Do runs fn under the breaker. Rejections come back as ErrOpen.
func (b *Breaker[T]) Do(fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrOpen
	}
	return v, err
}

func (b *Breaker[T]) State() string { return b.cb.State().String() }

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
