package erp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// SettingsStore persists tenant connection parameters. It is the sole source
// of truth for credentials.
type SettingsStore interface {
	LoadConfig(ctx context.Context, tenantID string) (Config, bool, error)
	UpsertConfig(ctx context.Context, tenantID string, cfg Config) error
	MarkLastSync(ctx context.Context, tenantID string, at time.Time) error
}

// Publisher notifies other instances that a tenant's cached connection is stale.
type Publisher interface {
	Publish(ctx context.Context, tenantID string) error
}

// SessionManager owns the per-tenant connection cache. Authentication is lazy:
// resolved connections may not carry a session yet.
type SessionManager struct {
	store     SettingsStore
	publisher Publisher
	logger    *slog.Logger

	mu    sync.RWMutex
	conns map[string]*Connection
	gens  map[string]uint64
	loads singleflight.Group
}

// NewSessionManager wires the settings store. publisher may be nil.
func NewSessionManager(store SettingsStore, publisher Publisher, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:     store,
		publisher: publisher,
		logger:    logger,
		conns:     make(map[string]*Connection),
		gens:      make(map[string]uint64),
	}
}

// Resolve returns the tenant's connection, loading its configuration on a
// cache miss. Tenants without configuration get ErrNotConfigured.
func (m *SessionManager) Resolve(ctx context.Context, tenantID string) (*Connection, error) {
	if tenantID == "" {
		return nil, shared.ErrTenantRequired
	}
	m.mu.RLock()
	conn := m.conns[tenantID]
	m.mu.RUnlock()
	if conn != nil {
		return conn, nil
	}

	// The shared load must outlive any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	resultChan := m.loads.DoChan(tenantID, func() (interface{}, error) {
		return m.load(loadCtx, tenantID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Connection), nil
	}
}

func (m *SessionManager) load(ctx context.Context, tenantID string) (*Connection, error) {
	m.mu.RLock()
	gen := m.gens[tenantID]
	m.mu.RUnlock()

	cfg, ok, err := m.store.LoadConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfigured
	}
	cfg.TenantID = tenantID
	conn := NewConnection(cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.conns[tenantID]; existing != nil {
		return existing, nil
	}
	// An invalidation raced this load; hand the connection out uncached.
	if m.gens[tenantID] != gen {
		return conn, nil
	}
	m.conns[tenantID] = conn
	return conn, nil
}

// Invalidate drops the tenant's cached connection.
func (m *SessionManager) Invalidate(tenantID string) {
	m.mu.Lock()
	delete(m.conns, tenantID)
	m.gens[tenantID]++
	m.mu.Unlock()
	m.loads.Forget(tenantID)
}

// Save persists a new configuration and invalidates the cache so the next
// resolution authenticates with the new credentials.
func (m *SessionManager) Save(ctx context.Context, tenantID string, cfg Config) error {
	if tenantID == "" {
		return shared.ErrTenantRequired
	}
	cfg.TenantID = tenantID
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.store.UpsertConfig(ctx, tenantID, cfg); err != nil {
		return err
	}
	m.Invalidate(tenantID)
	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, tenantID); err != nil {
			m.logger.Warn("publish erp invalidation", slog.String("tenant_id", tenantID), slog.Any("error", err))
		}
	}
	m.logger.Info("erp configuration saved", slog.String("tenant_id", tenantID))
	return nil
}

// MarkSynced records a completed sync for the tenant.
func (m *SessionManager) MarkSynced(ctx context.Context, tenantID string, at time.Time) error {
	return m.store.MarkLastSync(ctx, tenantID, at.UTC())
}

// Cached reports whether a connection is cached for the tenant.
func (m *SessionManager) Cached(tenantID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.conns[tenantID]
	return ok
}
