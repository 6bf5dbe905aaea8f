package binder

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/sentinel-console/internal/aggregate"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/store"
	"go.uber.org/zap"
)

// Binder держит ровно одну подписку на каждую пару (источник, потребитель)
// и один in-memory снапшот на источник. На каждое уведомление хранилища
// пересобирает производные view-модели агрегатором и публикует их наружу.
//
// Четыре подписки дашборда независимы: их колбэки приходят в любом
// относительном порядке, join между ними не атомарен (eventual consistency).
type Binder struct {
	store   store.DocumentStore
	logger  *zap.Logger
	metrics *Metrics

	mu         sync.Mutex
	activities map[string]domain.Document
	anomalies  map[string]domain.Document
	userCount  int64
	monitored  int64
	latest     domain.DashboardView
	closed     bool

	out     chan domain.DashboardView
	cancels []store.CancelFunc
}

func New(st store.DocumentStore, metrics *Metrics, logger *zap.Logger) *Binder {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Binder{
		store:      st,
		logger:     logger.Named("binder"),
		metrics:    metrics,
		activities: make(map[string]domain.Document),
		anomalies:  make(map[string]domain.Document),
		// Буфер на один снапшот: потребителю всегда достается самый свежий,
		// промежуточные вытесняются
		out: make(chan domain.DashboardView, 1),
	}
}

// Bind открывает четыре подписки дашборда и делает единственный
// fire-and-forget инкремент счетчика визитов. Каждая подписка доставляет
// начальный снапшот сразу, поэтому потребитель не ждет первого изменения.
func (b *Binder) Bind(ctx context.Context) error {
	subs := []struct {
		name string
		open func() (store.CancelFunc, error)
	}{
		{"userActivities", func() (store.CancelFunc, error) {
			return b.store.Watch(ctx, infra.CollectionUserActivities, func(docs map[string]domain.Document) {
				b.metrics.Notifications.WithLabelValues("userActivities").Inc()
				b.apply(func() { b.activities = docs })
			})
		}},
		{"counters/userCount", func() (store.CancelFunc, error) {
			return b.store.WatchDoc(ctx, infra.CollectionCounters, infra.CounterUserCount, func(doc domain.Document) {
				b.metrics.Notifications.WithLabelValues("userCount").Inc()
				b.apply(func() { b.userCount = domain.CounterFromDoc(doc) })
			})
		}},
		{"counters/monitoredUsers", func() (store.CancelFunc, error) {
			return b.store.WatchDoc(ctx, infra.CollectionCounters, infra.CounterMonitoredUsers, func(doc domain.Document) {
				b.metrics.Notifications.WithLabelValues("monitoredUsers").Inc()
				b.apply(func() { b.monitored = domain.CounterFromDoc(doc) })
			})
		}},
		{"Anomalies", func() (store.CancelFunc, error) {
			return b.store.Watch(ctx, infra.CollectionAnomalies, func(docs map[string]domain.Document) {
				b.metrics.Notifications.WithLabelValues("anomalies").Inc()
				b.apply(func() { b.anomalies = docs })
			})
		}},
	}

	for _, sub := range subs {
		cancel, err := sub.open()
		if err != nil {
			b.logger.Error("subscription failed", zap.String("subscription", sub.name), zap.Error(err))
			b.Close() // уже открытые подписки не должны утечь
			return err
		}
		b.mu.Lock()
		b.cancels = append(b.cancels, cancel)
		b.mu.Unlock()
		b.metrics.ActiveWatches.Inc()
	}

	// Ровно один инкремент визитов на маунт. Неудача логируется и не
	// мешает работе дашборда.
	if _, err := b.store.Increment(ctx, infra.CollectionCounters, infra.CounterUserCount, domain.FieldCount, 1); err != nil {
		b.logger.Warn("visit counter increment failed", zap.Error(err))
	}

	return nil
}

// Views — канал публикации свежих снапшотов (latest wins).
func (b *Binder) Views() <-chan domain.DashboardView {
	return b.out
}

// Latest возвращает последний собранный снапшот (pull-модель для HTTP).
func (b *Binder) Latest() domain.DashboardView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Close снимает все подписки. После Close биндер ничего не публикует.
func (b *Binder) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	cancels := b.cancels
	b.cancels = nil
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		b.metrics.ActiveWatches.Dec()
	}
}

// apply обновляет кусок снапшота и пересобирает производные данные.
func (b *Binder) apply(mutate func()) {
	start := time.Now()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	mutate()
	view := aggregate.BuildDashboardView(b.activities, b.anomalies, b.userCount, b.monitored)
	b.latest = view
	b.mu.Unlock()

	b.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	b.metrics.SecurityScore.Set(float64(view.Overview.SecurityScore))

	b.publish(view)
}

// publish кладет снапшот в буфер, вытесняя устаревший, если его не забрали.
func (b *Binder) publish(view domain.DashboardView) {
	for {
		select {
		case b.out <- view:
			return
		default:
		}
		select {
		case <-b.out:
			b.metrics.DroppedViews.Inc()
		default:
		}
	}
}
