package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts auth operations by outcome. A nil *Metrics records nothing.
type Metrics struct {
	ops   *prometheus.CounterVec
	reuse prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg (skipped when reg is nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contactbook",
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Auth operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		reuse: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contactbook",
			Subsystem: "auth",
			Name:      "refresh_reuse_total",
			Help:      "Refresh chains revoked after a non-current refresh token was presented.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.reuse)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, Outcome(err)).Inc()
}

func (m *Metrics) reuseDetected() {
	if m == nil {
		return
	}
	m.reuse.Inc()
}

// Outcome returns a stable, low-cardinality label for err ("ok" for nil).
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailNotConfirmed):
		return "email_not_confirmed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrVerification):
		return "verification_error"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
