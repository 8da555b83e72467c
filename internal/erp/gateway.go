package erp

import (
	"context"
	"fmt"
)

// Gateway resolves a tenant's connection and runs calls through the client.
type Gateway struct {
	sessions *SessionManager
	client   *Client
}

// NewGateway wires the session manager and transport.
func NewGateway(sessions *SessionManager, client *Client) *Gateway {
	return &Gateway{sessions: sessions, client: client}
}

// SearchRead runs search_read for the tenant.
func (g *Gateway) SearchRead(ctx context.Context, tenantID, model string, domain []any, fields []string, opts SearchOptions) ([]Record, error) {
	conn, err := g.sessions.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return g.client.SearchRead(ctx, conn, model, domain, fields, opts)
}

// CompanyID returns the tenant's company filter, 0 when unfiltered.
func (g *Gateway) CompanyID(ctx context.Context, tenantID string) (int64, error) {
	conn, err := g.sessions.Resolve(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return conn.Config().CompanyID, nil
}

// Company describes the ERP company a tenant reports on.
type Company struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CompanyInfo reads res.company, honouring the tenant's company filter. It
// doubles as a connection test: it authenticates when no session is cached.
func (g *Gateway) CompanyInfo(ctx context.Context, tenantID string) (Company, error) {
	conn, err := g.sessions.Resolve(ctx, tenantID)
	if err != nil {
		return Company{}, err
	}
	domain := []any{}
	if id := conn.Config().CompanyID; id > 0 {
		domain = append(domain, []any{"id", "=", id})
	}
	records, err := g.client.SearchRead(ctx, conn, "res.company", domain, []string{"id", "name", "currency_id"}, SearchOptions{Limit: 1})
	if err != nil {
		return Company{}, err
	}
	if len(records) == 0 {
		return Company{}, &RPCError{Model: "res.company", Method: "search_read", Cause: fmt.Errorf("company %d not found", conn.Config().CompanyID)}
	}
	_, currency := records[0].Many2One("currency_id")
	return Company{
		ID:       records[0].Int64("id"),
		Name:     records[0].String("name"),
		Currency: currency,
	}, nil
}
