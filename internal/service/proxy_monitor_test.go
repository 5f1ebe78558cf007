package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scraper-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	calls   int32
	release chan struct{}
	started chan struct{}
}

func (c *countingChecker) CheckAll(ctx context.Context, endpoints []models.ProxyEndpoint) models.ProxySnapshot {
	n := atomic.AddInt32(&c.calls, 1)
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.release != nil {
		<-c.release
	}
	return models.ProxySnapshot{
		Statuses:  []models.ProxyStatus{{ProxyEndpoint: endpoints[0], Healthy: true}},
		CheckedAt: time.Unix(int64(n), 0),
		Healthy:   int(n),
	}
}

type memorySnapshotStore struct {
	mu    sync.Mutex
	saved []models.ProxySnapshot
	warm  *models.ProxySnapshot
}

func (s *memorySnapshotStore) SaveSnapshot(_ context.Context, snapshot models.ProxySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *memorySnapshotStore) LatestSnapshot(_ context.Context) (*models.ProxySnapshot, error) {
	return s.warm, nil
}

var monitorEndpoints = []models.ProxyEndpoint{{ID: 1, Provider: "AWS", Region: "us-east-1", URL: "http://127.0.0.1:1"}}

func TestProxyMonitorRefreshDebounce(t *testing.T) {
	checker := &countingChecker{}
	store := &memorySnapshotStore{}
	m := NewProxyMonitor(checker, monitorEndpoints, store, time.Hour, 2*time.Second, quietLogger())

	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	_, ok := m.Snapshot()
	assert.False(t, ok)

	snap, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Healthy)

	now = now.Add(500 * time.Millisecond)
	snap, err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshSkipped)
	assert.Equal(t, 1, snap.Healthy, "skipped refresh returns the current snapshot")

	now = now.Add(2 * time.Second)
	snap, err = m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Healthy)

	assert.EqualValues(t, 2, atomic.LoadInt32(&checker.calls))
	assert.Len(t, store.saved, 2)
}

func TestProxyMonitorRefreshSkipsWhileRunning(t *testing.T) {
	checker := &countingChecker{release: make(chan struct{}), started: make(chan struct{}, 1)}
	m := NewProxyMonitor(checker, monitorEndpoints, nil, time.Hour, 0, quietLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Refresh(context.Background())
	}()
	<-checker.started
	assert.True(t, m.Running())

	_, err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshSkipped)

	close(checker.release)
	<-done

	assert.False(t, m.Running())
	assert.EqualValues(t, 1, atomic.LoadInt32(&checker.calls))
	snap, ok := m.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, 1, snap.Healthy)
}

func TestProxyMonitorRunWarmStartAndStop(t *testing.T) {
	checker := &countingChecker{}
	store := &memorySnapshotStore{warm: &models.ProxySnapshot{Healthy: 99}}
	m := NewProxyMonitor(checker, monitorEndpoints, store, 10*time.Millisecond, time.Second, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&checker.calls) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.NotEqual(t, 99, snap.Healthy, "a completed batch replaces the warm snapshot")
}
