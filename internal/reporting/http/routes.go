package reportinghttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/coopfinance/internal/auth"
)

const (
	tenantRateLimit  = 30
	tenantRateWindow = time.Minute
)

// MountRoutes registers the /erp endpoints. authn must populate the tenant
// identity before these handlers run.
func (h *Handler) MountRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	limiter := httprate.Limit(tenantRateLimit, tenantRateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Route("/erp", func(r chi.Router) {
		r.Use(authn)
		r.Use(limiter)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleViewer))
			r.Get("/reports/balance-sheet", h.handleBalanceSheet)
			r.Get("/reports/cash-flow", h.handleCashFlow)
			r.Get("/reports/membership-fees", h.handleMembershipFees)
			r.Get("/reports/summary", h.handleSummary)
			r.Get("/ratios", h.handleRatios)
			r.Get("/ratios/history", h.handleRatioHistory)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))
			r.Put("/config", h.handlePutConfig)
			r.Post("/config/test", h.handleTestConfig)
			r.Post("/sync", h.handleSync)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if tenant := auth.TenantIDFromContext(r.Context()); tenant != "" {
		return "tenant:" + tenant, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
