package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]Event
}

func (m *memStorage) WriteBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := make([]Event, len(events))
	copy(batch, events)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *memStorage) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestTrail_StopDrainsBuffer(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 100, time.Hour) // тикер не успеет сработать
	trail.Start()

	for i := 0; i < 7; i++ {
		trail.Record(Event{ID: "e", Action: ActionLoginSuccess, Email: "john@corp.com"})
	}
	trail.Stop()

	assert.Equal(t, 7, storage.total())
}

func TestTrail_FlushesFullBatchWithoutStop(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 1000, time.Hour)
	trail.Start()
	defer trail.Stop()

	// Ровно порог пакета: сброс происходит без тикера и без Stop
	for i := 0; i < 100; i++ {
		trail.Record(Event{Action: ActionTokenIssued})
	}

	require.Eventually(t, func() bool {
		return storage.total() == 100
	}, time.Second, 10*time.Millisecond)
}

func TestTrail_RecordAfterStopIsDropped(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 10, time.Hour)
	trail.Start()
	trail.Stop()

	// Не должно паниковать записью в закрытый канал
	trail.Record(Event{Action: ActionLoginFailed})
	assert.Zero(t, storage.total())
}

func TestTrail_FillsMissingTimestamp(t *testing.T) {
	storage := &memStorage{}
	trail := NewTrail(storage, zap.NewNop(), 10, time.Hour)
	trail.Start()

	trail.Record(Event{Action: ActionDashboardMount})
	trail.Stop()

	require.Equal(t, 1, storage.total())
	assert.False(t, storage.batches[0][0].Timestamp.IsZero())
}
