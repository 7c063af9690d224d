package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by the account workflow.
type Metrics struct {
	OperationsTotal     *prometheus.CounterVec
	MailDeliveriesTotal *prometheus.CounterVec
}

// NewMetrics creates the workflow collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_operations_total",
				Help: "Total number of account operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		MailDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_mail_deliveries_total",
				Help: "Total number of account emails by kind and delivery status",
			},
			[]string{"kind", "status"},
		),
	}

	reg.MustRegister(m.OperationsTotal)
	reg.MustRegister(m.MailDeliveriesTotal)

	return m
}

func (m *Metrics) observeOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, outcomeLabel(err)).Inc()
}

func (m *Metrics) observeMail(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.MailDeliveriesTotal.WithLabelValues(kind, status).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrNotVerified):
		return "not_verified"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	default:
		return "error"
	}
}
