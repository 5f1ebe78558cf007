package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"scraper-admin/internal/models"

	"github.com/sirupsen/logrus"
)

type BatchChecker interface {
	CheckAll(ctx context.Context, endpoints []models.ProxyEndpoint) models.ProxySnapshot
}

// ProxySnapshotStore shares the latest batch between processes.
type ProxySnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot models.ProxySnapshot) error
	LatestSnapshot(ctx context.Context) (*models.ProxySnapshot, error)
}

// ProxyMonitor polls the endpoint registry and keeps the latest completed batch.
// Batches never overlap; a batch requested while one runs is skipped.
type ProxyMonitor struct {
	checker   BatchChecker
	endpoints []models.ProxyEndpoint
	store     ProxySnapshotStore
	interval  time.Duration
	debounce  time.Duration
	logger    *logrus.Logger
	now       func() time.Time

	running atomic.Bool

	mu            sync.RWMutex
	snapshot      models.ProxySnapshot
	hasSnapshot   bool
	lastRefreshAt time.Time
}

func NewProxyMonitor(
	checker BatchChecker,
	endpoints []models.ProxyEndpoint,
	store ProxySnapshotStore,
	interval, debounce time.Duration,
	logger *logrus.Logger,
) *ProxyMonitor {
	return &ProxyMonitor{
		checker:   checker,
		endpoints: endpoints,
		store:     store,
		interval:  interval,
		debounce:  debounce,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *ProxyMonitor) Endpoints() []models.ProxyEndpoint {
	return m.endpoints
}

// Run checks once immediately, then on every interval tick until ctx is done.
func (m *ProxyMonitor) Run(ctx context.Context) {
	m.warmStart(ctx)
	m.runBatch(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.runBatch(ctx) {
				m.logger.Debug("Skipping scheduled proxy check, previous batch still running")
			}
		}
	}
}

// Refresh runs a batch on demand. Requests within the debounce window of the
// last accepted refresh, or while a batch runs, return the current snapshot
// with ErrRefreshSkipped.
func (m *ProxyMonitor) Refresh(ctx context.Context) (models.ProxySnapshot, error) {
	m.mu.Lock()
	now := m.now()
	if !m.lastRefreshAt.IsZero() && now.Sub(m.lastRefreshAt) < m.debounce {
		current := m.snapshot
		m.mu.Unlock()
		return current, ErrRefreshSkipped
	}
	m.lastRefreshAt = now
	m.mu.Unlock()

	if !m.runBatch(ctx) {
		current, _ := m.Snapshot()
		return current, ErrRefreshSkipped
	}
	current, _ := m.Snapshot()
	return current, nil
}

// Snapshot returns the latest completed batch and whether one exists yet.
func (m *ProxyMonitor) Snapshot() (models.ProxySnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, m.hasSnapshot
}

func (m *ProxyMonitor) Running() bool {
	return m.running.Load()
}

func (m *ProxyMonitor) runBatch(ctx context.Context) bool {
	if !m.running.CompareAndSwap(false, true) {
		return false
	}
	defer m.running.Store(false)

	snapshot := m.checker.CheckAll(ctx, m.endpoints)
	if ctx.Err() != nil {
		return true
	}

	m.mu.Lock()
	m.snapshot = snapshot
	m.hasSnapshot = true
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"healthy":     snapshot.Healthy,
		"unhealthy":   snapshot.Unhealthy,
		"duration_ms": snapshot.DurationMs,
	}).Info("Proxy health batch completed")

	if m.store != nil {
		if err := m.store.SaveSnapshot(ctx, snapshot); err != nil {
			m.logger.WithError(err).Warn("Failed to publish proxy snapshot")
		}
	}
	return true
}

func (m *ProxyMonitor) warmStart(ctx context.Context) {
	if m.store == nil {
		return
	}
	cached, err := m.store.LatestSnapshot(ctx)
	if err != nil || cached == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSnapshot {
		m.snapshot = *cached
		m.hasSnapshot = true
	}
}
