package app

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

// BreakerConfig: the breaker opens after Failures consecutive failures and
// stays open for OpenFor before letting one probe through.
type BreakerConfig struct {
	Failures int           `koanf:"failures"`
	OpenFor  time.Duration `koanf:"open_for"`
	Interval time.Duration `koanf:"interval"`
}

type stateListener func(name string, to gobreaker.State)

func newBreaker(name string, cfg BreakerConfig, onChange stateListener) *gobreaker.CircuitBreaker {
	fails := cfg.Failures
	if fails < 1 {
		fails = 1
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	breakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateName(from)).Str("to", stateName(to)).Msg("breaker state change")
			breakerState.WithLabelValues(name).Set(stateValue(to))
			breakerTransitionsTotal.WithLabelValues(name, stateName(from), stateName(to)).Inc()
			if onChange != nil {
				onChange(name, to)
			}
		},
	})
}

// countsAsSuccess keeps callers that gave up (client hang-up) from being
// charged to the remote.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
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

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
