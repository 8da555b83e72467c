// Package reportinghttp exposes ERP-backed reports, ratios and tenant ERP
// settings over HTTP.
package reportinghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/coopfinance/internal/auth"
	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/ledger"
	"github.com/odyssey-erp/coopfinance/internal/platform/httpx"
	"github.com/odyssey-erp/coopfinance/internal/ratios"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// ReportService is the ledger aggregation used by the handlers.
type ReportService interface {
	BalanceSheet(ctx context.Context, tenantID string, period shared.Period) ([]ledger.BalanceEntry, error)
	CashFlow(ctx context.Context, tenantID string, period shared.Period) ([]ledger.CashFlowEntry, error)
	MembershipFees(ctx context.Context, tenantID string) ([]ledger.MembershipFee, error)
	Report(ctx context.Context, tenantID string, period shared.Period) (ledger.Report, error)
}

// RatioService derives ratios and their history.
type RatioService interface {
	ForPeriod(ctx context.Context, tenantID string, period shared.Period) ([]ratios.Ratio, error)
	History(ctx context.Context, tenantID string, period shared.Period) ([]ratios.Series, error)
}

// SettingsService persists tenant ERP connections.
type SettingsService interface {
	Save(ctx context.Context, tenantID string, cfg erp.Config) error
}

// ConnectionTester probes a tenant's ERP.
type ConnectionTester interface {
	CompanyInfo(ctx context.Context, tenantID string) (erp.Company, error)
}

// SyncEnqueuer schedules a background sync.
type SyncEnqueuer interface {
	EnqueueSync(ctx context.Context, tenantID string, period shared.Period) (string, error)
}

// Handler serves the /erp endpoints.
type Handler struct {
	logger    *slog.Logger
	reports   ReportService
	ratios    RatioService
	settings  SettingsService
	tester    ConnectionTester
	sync      SyncEnqueuer
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs the handler. sync may be nil when no worker queue is
// configured; manual sync then answers 503.
func NewHandler(logger *slog.Logger, reports ReportService, ratioSvc RatioService, settings SettingsService, tester ConnectionTester, sync SyncEnqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		reports:   reports,
		ratios:    ratioSvc,
		settings:  settings,
		tester:    tester,
		sync:      sync,
		validator: validator.New(),
		now:       time.Now,
	}
}

type periodQuery struct {
	Year  int `validate:"gte=2000,lte=2100"`
	Month int `validate:"gte=1,lte=12"`
}

// parsePeriod reads year and month, defaulting each to the current UTC month.
func (h *Handler) parsePeriod(r *http.Request) (shared.Period, error) {
	current := shared.PeriodOf(h.now())
	q := periodQuery{Year: current.Year, Month: current.Month}
	for key, target := range map[string]*int{"year": &q.Year, "month": &q.Month} {
		raw := strings.TrimSpace(r.URL.Query().Get(key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return shared.Period{}, errors.Join(httpx.ErrValidation, errors.New(key+" must be an integer"))
		}
		*target = v
	}
	if err := h.validator.Struct(q); err != nil {
		return shared.Period{}, errors.Join(httpx.ErrValidation, validationError(err))
	}
	return shared.NewPeriod(q.Year, q.Month)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return errors.New(strings.Join(parts, "; "))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("erp request failed",
		slog.String("path", r.URL.Path),
		slog.String("tenant_id", auth.TenantIDFromContext(r.Context())),
		slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.reports.BalanceSheet(r.Context(), auth.TenantIDFromContext(r.Context()), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, periodPayload{Period: period, Data: ledger.BalanceSheet{
		Entries: entries,
		Summary: ledger.SummarizeBalance(entries),
	}})
}

func (h *Handler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.reports.CashFlow(r.Context(), auth.TenantIDFromContext(r.Context()), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, periodPayload{Period: period, Data: ledger.CashFlow{
		Entries: entries,
		Summary: ledger.SummarizeCashFlow(entries),
	}})
}

func (h *Handler) handleMembershipFees(w http.ResponseWriter, r *http.Request) {
	fees, err := h.reports.MembershipFees(r.Context(), auth.TenantIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": fees})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.reports.Report(r.Context(), auth.TenantIDFromContext(r.Context()), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleRatios(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.ratios.ForPeriod(r.Context(), auth.TenantIDFromContext(r.Context()), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, periodPayload{Period: period, Data: list})
}

func (h *Handler) handleRatioHistory(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	series, err := h.ratios.History(r.Context(), auth.TenantIDFromContext(r.Context()), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, periodPayload{Period: period, Data: series})
}

type periodPayload struct {
	Period shared.Period `json:"period"`
	Data   any           `json:"data"`
}

type configRequest struct {
	URL       string `json:"url" validate:"required,url"`
	Database  string `json:"database" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Secret    string `json:"secret" validate:"required"`
	CompanyID int64  `json:"company_id" validate:"gte=0"`
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, errors.Join(httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, errors.Join(httpx.ErrValidation, validationError(err)))
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	cfg := erp.Config{
		TenantID:  tenantID,
		URL:       req.URL,
		Database:  req.Database,
		Username:  req.Username,
		Secret:    req.Secret,
		CompanyID: req.CompanyID,
	}
	if err := h.settings.Save(r.Context(), tenantID, cfg); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("erp configuration updated",
		slog.String("tenant_id", tenantID),
		slog.String("subject", auth.SubjectFromContext(r.Context())))
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleTestConfig(w http.ResponseWriter, r *http.Request) {
	company, err := h.tester.CompanyInfo(r.Context(), auth.TenantIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "company": company})
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Sync Unavailable", "background queue not configured")
		return
	}
	period, err := h.parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	taskID, err := h.sync.EnqueueSync(r.Context(), auth.TenantIDFromContext(r.Context()), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"task_id": taskID, "period": period})
}
