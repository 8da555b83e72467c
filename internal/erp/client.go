package erp

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/kolo/xmlrpc"
)

const (
	commonPath = "/xmlrpc/2/common"
	objectPath = "/xmlrpc/2/object"

	defaultTimeout = 30 * time.Second
)

// SearchOptions bounds a search_read call. Zero values are omitted from the
// request so the ERP applies its own defaults.
type SearchOptions struct {
	Limit  int
	Offset int
	Order  string
}

// ClientOptions configures the RPC transport.
type ClientOptions struct {
	Timeout time.Duration
	Metrics *Metrics
	Logger  *slog.Logger
}

// Client issues authenticate and execute_kw calls against an ERP endpoint.
type Client struct {
	plain   http.RoundTripper
	secure  http.RoundTripper
	metrics *Metrics
	logger  *slog.Logger
}

// NewClient constructs the transport.
//
// Certificate validation is disabled for https endpoints. Cooperatives commonly
// run self-hosted ERPs behind self-signed certificates; this trust relaxation is
// intentional and limited to the ERP client.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	plain := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	secure := plain.Clone()
	secure.TLSHandshakeTimeout = timeout
	secure.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed ERP deployments
	return &Client{
		plain:   timeoutTransport{base: plain, timeout: timeout},
		secure:  timeoutTransport{base: secure, timeout: timeout},
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// Authenticate exchanges the tenant credentials for a session id. A remote
// fault or a falsy id is reported as an AuthError.
func (c *Client) Authenticate(ctx context.Context, conn *Connection) (int64, error) {
	cfg := conn.Config()
	var reply any
	err := c.invoke(ctx, cfg, commonPath, "authenticate", []any{cfg.Database, cfg.Username, cfg.Secret, map[string]any{}}, &reply)
	if err != nil {
		c.metrics.observeAuth(err)
		return 0, &AuthError{TenantID: cfg.TenantID, Cause: err}
	}
	sid := toInt64(reply)
	if sid <= 0 {
		c.metrics.observeAuth(errInvalidCredentials)
		return 0, &AuthError{TenantID: cfg.TenantID}
	}
	c.metrics.observeAuth(nil)
	c.logger.Debug("erp authenticated", slog.String("tenant_id", cfg.TenantID))
	return sid, nil
}

var errInvalidCredentials = errors.New("invalid credentials")

// Call runs model.method through execute_kw, authenticating first when the
// connection has no session. Failures after authentication clear the cached
// session so the next call re-authenticates.
func (c *Client) Call(ctx context.Context, conn *Connection, model, method string, args []any, kwargs map[string]any) (any, error) {
	sid, err := conn.ensureSession(ctx, func(ctx context.Context) (int64, error) {
		return c.Authenticate(ctx, conn)
	})
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	cfg := conn.Config()
	start := time.Now()
	var reply any
	err = c.invoke(ctx, cfg, objectPath, "execute_kw", []any{cfg.Database, sid, cfg.Secret, model, method, args, kwargs}, &reply)
	c.metrics.observeCall(model, method, start, err)
	if err != nil {
		if ctx.Err() == nil {
			conn.clearSession(sid)
		}
		c.logger.Warn("erp call failed",
			slog.String("tenant_id", cfg.TenantID),
			slog.String("model", model),
			slog.String("method", method),
			slog.Any("error", err))
		return nil, &RPCError{Model: model, Method: method, Cause: err}
	}
	return reply, nil
}

// SearchRead wraps search_read. fields, limit, offset and order are only sent
// when set.
func (c *Client) SearchRead(ctx context.Context, conn *Connection, model string, domain []any, fields []string, opts SearchOptions) ([]Record, error) {
	if domain == nil {
		domain = []any{}
	}
	kwargs := searchKwargs(fields, opts)
	result, err := c.Call(ctx, conn, model, "search_read", []any{domain}, kwargs)
	if err != nil {
		return nil, err
	}
	records, err := toRecords(result)
	if err != nil {
		return nil, &RPCError{Model: model, Method: "search_read", Cause: err}
	}
	return records, nil
}

func searchKwargs(fields []string, opts SearchOptions) map[string]any {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		list := make([]any, len(fields))
		for i, f := range fields {
			list[i] = f
		}
		kwargs["fields"] = list
	}
	if opts.Limit > 0 {
		kwargs["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		kwargs["offset"] = opts.Offset
	}
	if opts.Order != "" {
		kwargs["order"] = opts.Order
	}
	return kwargs
}

// invoke performs one XML-RPC round trip. The wait honours ctx; the request
// itself is bounded by the transport timeout.
func (c *Client) invoke(ctx context.Context, cfg Config, path, method string, args []any, reply *any) error {
	endpoint := cfg.BaseURL() + path
	rpc, err := xmlrpc.NewClient(endpoint, c.transportFor(endpoint))
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		// Close stops the codec reader. Idle connections are only dropped for
		// a bare *http.Transport, so the wrapped pool is kept.
		defer func() { _ = rpc.Close() }()
		done <- rpc.Call(method, args, reply)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (c *Client) transportFor(endpoint string) http.RoundTripper {
	u, err := url.Parse(endpoint)
	if err == nil && u.Scheme == "https" {
		return c.secure
	}
	return c.plain
}

// timeoutTransport bounds each request, body read included, by timeout.
type timeoutTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

func (t timeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
