package cipapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/negneg-eq-submitter/internal/domain"
)

// newBreaker creates the circuit breaker every CIP-API call runs through.
// Client errors (4xx) are answers, not outages, so they do not count
// towards tripping it.
func newBreaker(config domain.CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 3
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CIP-API",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var statusErr *domain.StatusError
			return errors.As(err, &statusErr) && statusErr.Actual < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// BreakerState reports the circuit breaker's current state
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// IsUnavailable reports whether err was refused by an open circuit breaker
// without reaching the CIP-API.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
