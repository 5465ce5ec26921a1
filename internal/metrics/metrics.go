package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters the services and middleware report to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	accountsRegistered prometheus.Counter
	logins             *prometheus.CounterVec
	tokensIssued       prometheus.Counter
	tokenRejections    *prometheus.CounterVec
	productEvents      *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		accountsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insightpro",
			Name:      "accounts_registered_total",
			Help:      "Count of accounts created through registration",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightpro",
			Name:      "logins_total",
			Help:      "Count of login attempts by result",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insightpro",
			Name:      "tokens_issued_total",
			Help:      "Count of session tokens signed",
		}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightpro",
			Name:      "token_rejections_total",
			Help:      "Count of requests rejected by the auth gate, by reason",
		}, []string{"reason"}),
		productEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightpro",
			Name:      "product_events_total",
			Help:      "Count of product lifecycle events by type and publish result",
		}, []string{"type", "result"}),
	}
	reg.MustRegister(m.accountsRegistered, m.logins, m.tokensIssued, m.tokenRejections, m.productEvents)
	return m
}

// AccountRegistered records a successful registration.
func (m *Metrics) AccountRegistered() {
	if m == nil {
		return
	}
	m.accountsRegistered.Inc()
}

// Login records a login attempt. result is "success", "not_found" or "bad_password".
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// TokenIssued records a signed session token.
func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

// TokenRejected records a gated request that did not pass. reason is
// "missing", "invalid" or "expired".
func (m *Metrics) TokenRejected(reason string) {
	if m == nil {
		return
	}
	m.tokenRejections.WithLabelValues(reason).Inc()
}

// ProductEvent records a lifecycle event publish attempt.
func (m *Metrics) ProductEvent(eventType string, published bool) {
	if m == nil {
		return
	}
	result := "published"
	if !published {
		result = "failed"
	}
	m.productEvents.WithLabelValues(eventType, result).Inc()
}
