// Package metrics exposes Prometheus counters for the webhook handlers and
// the API client. The SDK packages report through observer callbacks; the
// methods here are shaped to be passed as those callbacks.
package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seayoo-io/combo-sdk-go/idempotency"
)

type Metrics struct {
	webhookResponses *prometheus.CounterVec
	idempotency      *prometheus.CounterVec
	apiAttempts      *prometheus.CounterVec
}

// New registers the collectors on reg. Collectors already registered by an
// earlier call are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		webhookResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "combo",
			Name:      "webhook_responses_total",
			Help:      "Webhook responses by handler and status code.",
		}, []string{"handler", "status"}),
		idempotency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "combo",
			Name:      "gm_idempotency_total",
			Help:      "Idempotency decisions for GM commands.",
		}, []string{"action"}),
		apiAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "combo",
			Name:      "api_attempts_total",
			Help:      "Physical requests to the Combo API by result.",
		}, []string{"result"}),
	}

	var err error
	if m.webhookResponses, err = register(reg, m.webhookResponses); err != nil {
		return nil, err
	}
	if m.idempotency, err = register(reg, m.idempotency); err != nil {
		return nil, err
	}
	if m.apiAttempts, err = register(reg, m.apiAttempts); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

// WebhookObserver returns a status observer for the named handler.
func (m *Metrics) WebhookObserver(handler string) func(status int) {
	return func(status int) {
		m.webhookResponses.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	}
}

func (m *Metrics) ObserveIdempotency(a idempotency.Action) {
	m.idempotency.WithLabelValues(a.String()).Inc()
}

func (m *Metrics) ObserveAttempt(result string) {
	m.apiAttempts.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
