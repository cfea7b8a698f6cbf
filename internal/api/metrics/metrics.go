// Package metrics defines and registers the custom Prometheus metrics of the
// console auth service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; the /metrics endpoint exposes them next to the echo request metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

const namespace = "console_auth"

// SessionOperationsTotal counts session use case calls.
// Labels:
//   - operation: login, refresh, logout, register_user, register_admin, disable, enable
//   - result: "success" or a short failure reason (see Result)
var SessionOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_operations_total",
		Help:      "Total number of session operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// SessionOperationDuration measures how long each session operation takes.
// Login includes the password hash comparison, so its buckets reach further.
var SessionOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_operation_duration_seconds",
		Help:      "Duration of session operations from request to response.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
	},
	[]string{"operation"},
)

// SessionsInvalidatedTotal counts refresh secrets cleared by logout or disable.
var SessionsInvalidatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_invalidated_total",
		Help:      "Total number of active sessions ended by logout or account disable.",
	},
	[]string{"actor_kind"},
)

// Observe records one session operation.
func Observe(operation string, start time.Time, err error) {
	SessionOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
	SessionOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Result maps an operation error to a bounded label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrActorNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrActorExists):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrSessionSuperseded):
		return "superseded"
	default:
		return "error"
	}
}
