package erp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
)

// Config holds one tenant's ERP connection parameters.
type Config struct {
	TenantID  string `json:"tenant_id"`
	URL       string `json:"url"`
	Database  string `json:"database"`
	Username  string `json:"username"`
	Secret    string `json:"-"`
	CompanyID int64  `json:"company_id,omitempty"`
}

// Validate checks the parameters required to reach the ERP.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" || strings.TrimSpace(c.Username) == "" || c.Secret == "" {
		return fmt.Errorf("%w: database, username and secret are required", ErrInvalidConfig)
	}
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: url %q", ErrInvalidConfig, c.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if c.CompanyID < 0 {
		return fmt.Errorf("%w: company id %d", ErrInvalidConfig, c.CompanyID)
	}
	return nil
}

// BaseURL returns the endpoint without trailing slashes.
func (c Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.URL), "/")
}

// Connection is the live handle for one tenant. The config is immutable; the
// session id is cached after the first successful authentication and cleared
// after a failed call.
type Connection struct {
	config  Config
	authMu  sync.Mutex
	session atomic.Int64
}

// NewConnection builds a connection without a session.
func NewConnection(cfg Config) *Connection {
	return &Connection{config: cfg}
}

// Config returns the connection parameters.
func (c *Connection) Config() Config {
	return c.config
}

// TenantID returns the owning tenant.
func (c *Connection) TenantID() string {
	return c.config.TenantID
}

// SessionID returns the cached session id, 0 when none.
func (c *Connection) SessionID() int64 {
	return c.session.Load()
}

// ensureSession returns the cached session or runs authenticate while holding
// the per-connection lock, so concurrent first use authenticates once.
func (c *Connection) ensureSession(ctx context.Context, authenticate func(context.Context) (int64, error)) (int64, error) {
	if sid := c.session.Load(); sid != 0 {
		return sid, nil
	}
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if sid := c.session.Load(); sid != 0 {
		return sid, nil
	}
	sid, err := authenticate(ctx)
	if err != nil {
		return 0, err
	}
	c.session.Store(sid)
	return sid, nil
}

// clearSession drops sid if it is still the cached session.
func (c *Connection) clearSession(sid int64) {
	c.session.CompareAndSwap(sid, 0)
}
