package statecache

import (
	"context"
	"sync"

	"scmcore/logger"
	"scmcore/store"
)

// Manager serves statistics and the supplier ranking from Redis when it can,
// and from the store otherwise. The store is always the source of truth.
//
// Invalidations bump a generation counter. A fill whose store read raced an
// invalidation is not written back, so a pre-write snapshot never outlives
// the write that made it stale.
type Manager struct {
	store *store.Store
	redis *RedisStore
	lg    *logger.Logger

	mu  sync.Mutex // orders fills against invalidations
	gen uint64
}

// NewManager builds a manager. redis may be nil to run without a cache.
func NewManager(st *store.Store, redis *RedisStore, lg *logger.Logger) *Manager {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Manager{store: st, redis: redis, lg: lg}
}

func (m *Manager) Enabled() bool { return m.redis != nil }

// Statistics reads through the cache. Results that carry table errors are
// not cached.
func (m *Manager) Statistics(ctx context.Context) *store.Statistics {
	if m.redis != nil {
		st, err := m.redis.GetStatistics(ctx)
		if err == nil && st != nil {
			return st
		}
		if err != nil {
			m.lg.Debugf("statecache: get statistics: %v", err)
		}
	}

	gen := m.generation()
	st := m.store.Statistics()
	if m.redis != nil && len(st.Errors) == 0 {
		m.fill(gen, "statistics", func() error { return m.redis.SetStatistics(ctx, st) })
	}
	return st
}

// SupplierRanking reads through the cache.
func (m *Manager) SupplierRanking(ctx context.Context) ([]*store.Supplier, error) {
	if m.redis != nil {
		ranked, err := m.redis.GetRanking(ctx)
		if err == nil && ranked != nil {
			return ranked, nil
		}
		if err != nil {
			m.lg.Debugf("statecache: get ranking: %v", err)
		}
	}

	gen := m.generation()
	ranked, err := m.store.SupplierPerformance()
	if err != nil {
		return ranked, err
	}
	if m.redis != nil {
		m.fill(gen, "ranking", func() error { return m.redis.SetRanking(ctx, ranked) })
	}
	return ranked, nil
}

// Invalidate is called after every successful write to kind.
func (m *Manager) Invalidate(ctx context.Context, kind store.Kind) {
	if m.redis == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if err := m.redis.Invalidate(ctx, kind); err != nil {
		m.lg.Warnf("statecache: invalidate %s: %v", kind, err)
	}
}

func (m *Manager) generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// fill runs set unless an invalidation happened since gen was read.
func (m *Manager) fill(gen uint64, view string, set func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		m.lg.Debugf("statecache: skip %s fill, invalidated during read", view)
		return
	}
	if err := set(); err != nil {
		m.lg.Debugf("statecache: set %s: %v", view, err)
	}
}
