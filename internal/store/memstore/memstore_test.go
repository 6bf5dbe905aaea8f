package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra"
)

func TestMergePreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Merge(ctx, infra.CollectionUserActivities, "a@corp.com", map[string]string{
		domain.FieldLoginCount: "5",
		domain.FieldLastLogin:  "2026-08-29T10:00:00Z",
	})
	require.NoError(t, err)

	// Merge другого поля не должен задеть login_count и lastLogin
	err = s.Merge(ctx, infra.CollectionUserActivities, "a@corp.com", map[string]string{
		domain.FieldFailedLogin: "2",
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, infra.CollectionUserActivities, "a@corp.com")
	require.NoError(t, err)
	require.Equal(t, "5", doc[domain.FieldLoginCount])
	require.Equal(t, "2026-08-29T10:00:00Z", doc[domain.FieldLastLogin])
	require.Equal(t, "2", doc[domain.FieldFailedLogin])
}

func TestGetMissingDocumentIsNil(t *testing.T) {
	s := New()
	doc, err := s.Get(context.Background(), infra.CollectionCounters, "nope")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestConcurrentIncrementsAreLostUpdateFree(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Две «одновременные» неудачные попытки входа для одного email
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(ctx, infra.CollectionUserActivities, "a@corp.com", domain.FieldFailedLogin, 1)
		}()
	}
	wg.Wait()

	doc, err := s.Get(ctx, infra.CollectionUserActivities, "a@corp.com")
	require.NoError(t, err)
	require.Equal(t, "2", doc[domain.FieldFailedLogin])
}

func TestIncrementManyWriters(t *testing.T) {
	ctx := context.Background()
	s := New()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(ctx, infra.CollectionCounters, infra.CounterUserCount, domain.FieldCount, 1)
		}()
	}
	wg.Wait()

	doc, err := s.Get(ctx, infra.CollectionCounters, infra.CounterUserCount)
	require.NoError(t, err)
	require.EqualValues(t, writers, doc.Int(domain.FieldCount))
}

func TestWatchDeliversInitialSnapshotAndUpdates(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Merge(ctx, infra.CollectionAnomalies, "a@corp.com", map[string]string{domain.FieldTime: "09:00"}))

	var mu sync.Mutex
	var snapshots []map[string]domain.Document
	cancel, err := s.Watch(ctx, infra.CollectionAnomalies, func(docs map[string]domain.Document) {
		mu.Lock()
		snapshots = append(snapshots, docs)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	mu.Lock()
	require.Len(t, snapshots, 1, "initial snapshot is delivered on subscribe")
	require.Contains(t, snapshots[0], "a@corp.com")
	mu.Unlock()

	require.NoError(t, s.Merge(ctx, infra.CollectionAnomalies, "b@corp.com", map[string]string{domain.FieldTime: "10:00"}))

	mu.Lock()
	require.Len(t, snapshots, 2)
	require.Len(t, snapshots[1], 2)
	mu.Unlock()
}

func TestWatchDocFiltersOtherKeys(t *testing.T) {
	ctx := context.Background()
	s := New()

	var mu sync.Mutex
	deliveries := 0
	cancel, err := s.WatchDoc(ctx, infra.CollectionCounters, infra.CounterUserCount, func(domain.Document) {
		mu.Lock()
		deliveries++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	// Изменение другого документа той же коллекции не доставляется
	_, err = s.Increment(ctx, infra.CollectionCounters, infra.CounterMonitoredUsers, domain.FieldCount, 1)
	require.NoError(t, err)

	_, err = s.Increment(ctx, infra.CollectionCounters, infra.CounterUserCount, domain.FieldCount, 1)
	require.NoError(t, err)

	mu.Lock()
	require.Equal(t, 2, deliveries) // начальный снапшот + свой инкремент
	mu.Unlock()
}

func TestCancelRemovesWatcher(t *testing.T) {
	ctx := context.Background()
	s := New()

	cancel1, err := s.Watch(ctx, infra.CollectionAnomalies, func(map[string]domain.Document) {})
	require.NoError(t, err)
	cancel2, err := s.WatchDoc(ctx, infra.CollectionCounters, infra.CounterUserCount, func(domain.Document) {})
	require.NoError(t, err)

	require.Equal(t, 2, s.ActiveWatchers())

	cancel1()
	require.Equal(t, 1, s.ActiveWatchers())

	cancel2()
	require.Equal(t, 0, s.ActiveWatchers())

	// Повторный cancel безопасен
	cancel2()
	require.Equal(t, 0, s.ActiveWatchers())
}
