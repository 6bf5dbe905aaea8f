package tokend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued      prometheus.Counter
	Rejected    prometheus.Counter
	RateLimited prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — без регистратора метрики летят в никуда
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Issued: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tokend_tokens_issued_total",
			Help: "Custom tokens successfully minted.",
		}),
		Rejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tokend_tokens_rejected_total",
			Help: "Token requests rejected (mismatch, signing failure).",
		}),
		RateLimited: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tokend_requests_rate_limited_total",
			Help: "Requests dropped by the rate limiter.",
		}),
	}
}
