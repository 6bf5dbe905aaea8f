package binder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Saturation: сколько подписок на хранилище сейчас живо
	ActiveWatches prometheus.Gauge

	// Traffic: уведомления по каждой подписке
	Notifications *prometheus.CounterVec

	// Latency: длительность пересборки производных view-моделей
	AggregationDuration prometheus.Histogram

	// Свежее значение интегрального показателя защищенности
	SecurityScore prometheus.Gauge

	// Снапшоты, вытесненные более свежими до того, как их забрал потребитель
	DroppedViews prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — без регистратора метрики летят в никуда
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ActiveWatches: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_binder_active_watches",
			Help: "Number of live store subscriptions held by the binder.",
		}),

		Notifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_binder_notifications_total",
			Help: "Store change notifications received, per subscription.",
		}, []string{"subscription"}),

		AggregationDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_binder_aggregation_duration_seconds",
			Help:    "Time spent rebuilding derived dashboard views.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		SecurityScore: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_security_score",
			Help: "Latest computed security score (0-100).",
		}),

		DroppedViews: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sentinel_binder_dropped_views_total",
			Help: "Derived views superseded before being consumed.",
		}),
	}
}
