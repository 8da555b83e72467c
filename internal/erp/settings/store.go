// Package settings persists per-tenant ERP connection parameters in Postgres.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/coopfinance/internal/erp"
)

// querier is the subset of *pgxpool.Pool the store relies on.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements erp.SettingsStore.
type Store struct {
	db     querier
	cipher *Cipher
	now    func() time.Time
}

// NewStore constructs a Store over a pgx pool.
func NewStore(db querier, cipher *Cipher) *Store {
	return &Store{db: db, cipher: cipher, now: time.Now}
}

const loadConfigSQL = `SELECT url, database_name, username, secret_cipher, company_id
FROM erp_settings WHERE tenant_id = $1`

// LoadConfig returns the tenant's configuration; ok is false when absent.
func (s *Store) LoadConfig(ctx context.Context, tenantID string) (erp.Config, bool, error) {
	if s == nil || s.db == nil {
		return erp.Config{}, false, fmt.Errorf("settings: store not initialised")
	}
	var (
		cfg    erp.Config
		sealed []byte
	)
	err := s.db.QueryRow(ctx, loadConfigSQL, tenantID).Scan(&cfg.URL, &cfg.Database, &cfg.Username, &sealed, &cfg.CompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return erp.Config{}, false, nil
	}
	if err != nil {
		return erp.Config{}, false, fmt.Errorf("settings: load %s: %w", tenantID, err)
	}
	secret, err := s.cipher.Open(sealed)
	if err != nil {
		return erp.Config{}, false, fmt.Errorf("settings: load %s: %w", tenantID, err)
	}
	cfg.TenantID = tenantID
	cfg.Secret = secret
	return cfg, true, nil
}

const upsertConfigSQL = `INSERT INTO erp_settings (tenant_id, url, database_name, username, secret_cipher, company_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tenant_id) DO UPDATE SET
	url = EXCLUDED.url,
	database_name = EXCLUDED.database_name,
	username = EXCLUDED.username,
	secret_cipher = EXCLUDED.secret_cipher,
	company_id = EXCLUDED.company_id,
	updated_at = EXCLUDED.updated_at`

// UpsertConfig replaces the tenant's configuration.
func (s *Store) UpsertConfig(ctx context.Context, tenantID string, cfg erp.Config) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("settings: store not initialised")
	}
	sealed, err := s.cipher.Seal(cfg.Secret)
	if err != nil {
		return fmt.Errorf("settings: seal secret: %w", err)
	}
	if _, err := s.db.Exec(ctx, upsertConfigSQL, tenantID, cfg.URL, cfg.Database, cfg.Username, sealed, cfg.CompanyID, s.now().UTC()); err != nil {
		return fmt.Errorf("settings: upsert %s: %w", tenantID, err)
	}
	return nil
}

const markLastSyncSQL = `UPDATE erp_settings SET last_sync_at = $2 WHERE tenant_id = $1`

// MarkLastSync stamps the tenant's last successful sync.
func (s *Store) MarkLastSync(ctx context.Context, tenantID string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("settings: store not initialised")
	}
	tag, err := s.db.Exec(ctx, markLastSyncSQL, tenantID, at)
	if err != nil {
		return fmt.Errorf("settings: mark sync %s: %w", tenantID, err)
	}
	if tag.RowsAffected() == 0 {
		return erp.ErrNotConfigured
	}
	return nil
}

const listTenantsSQL = `SELECT tenant_id FROM erp_settings ORDER BY tenant_id`

// ListTenants returns every tenant with a stored configuration.
func (s *Store) ListTenants(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("settings: store not initialised")
	}
	rows, err := s.db.Query(ctx, listTenantsSQL)
	if err != nil {
		return nil, fmt.Errorf("settings: list tenants: %w", err)
	}
	tenants, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("settings: list tenants: %w", err)
	}
	return tenants, nil
}
