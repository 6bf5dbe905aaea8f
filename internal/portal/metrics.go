package portal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LoginSuccess  prometheus.Counter
	LoginFailed   prometheus.Counter
	TokenFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — без регистратора метрики летят в никуда
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		LoginSuccess: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "portal_logins_success_total",
			Help: "Successful password sign-ins.",
		}),
		LoginFailed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "portal_logins_failed_total",
			Help: "Rejected sign-in attempts.",
		}),
		TokenFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "portal_token_failures_total",
			Help: "Logins committed but custom token issuance failed.",
		}),
	}
}
