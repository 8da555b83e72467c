package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/coopfinance/internal/erp"
	jobmetrics "github.com/odyssey-erp/coopfinance/internal/jobs"
	"github.com/odyssey-erp/coopfinance/internal/ledger"
	"github.com/odyssey-erp/coopfinance/internal/ratios"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Reporter builds a tenant report.
type Reporter interface {
	Report(ctx context.Context, tenantID string, period shared.Period) (ledger.Report, error)
}

// RatioDeriver computes ratios for one period.
type RatioDeriver interface {
	ForPeriod(ctx context.Context, tenantID string, period shared.Period) ([]ratios.Ratio, error)
}

// SyncMarker records a completed sync.
type SyncMarker interface {
	MarkSynced(ctx context.Context, tenantID string, at time.Time) error
}

// TenantLister enumerates tenants with ERP configuration.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]string, error)
}

// SyncEnqueuer schedules a per-tenant sync.
type SyncEnqueuer interface {
	EnqueueSync(ctx context.Context, tenantID string, period shared.Period) (string, error)
}

// ERPSyncJob refreshes one tenant's reports and ratios from the ERP.
type ERPSyncJob struct {
	Reports Reporter
	Ratios  RatioDeriver
	Marker  SyncMarker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewERPSyncJob wires dependencies for the sync handler.
func NewERPSyncJob(reports Reporter, ratioSvc RatioDeriver, marker SyncMarker, logger *slog.Logger, metrics *jobmetrics.Metrics) *ERPSyncJob {
	return &ERPSyncJob{
		Reports: reports,
		Ratios:  ratioSvc,
		Marker:  marker,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes erp:sync tasks. Tenants without ERP configuration are not
// retried; a failing report section is retried.
func (j *ERPSyncJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("erp sync: handler not configured")
	}
	var payload ERPSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("erp sync: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	period, err := j.period(payload)
	if err != nil {
		return fmt.Errorf("erp sync: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TenantID == "" {
		return fmt.Errorf("erp sync: %v: %w", shared.ErrTenantRequired, asynq.SkipRetry)
	}

	tracker := j.metrics().Track("erp_sync")
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("tenant_id", payload.TenantID), slog.String("period", period.String()))
	logger.Info("starting erp sync")

	report, err := j.Reports.Report(ctx, payload.TenantID, period)
	if errors.Is(err, erp.ErrNotConfigured) {
		logger.Info("erp not configured, skipping")
		return fmt.Errorf("erp sync: %w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		logger.Error("erp sync failed", slog.Any("error", err))
		return err
	}

	failed := j.sectionFailures(logger, report)
	if len(failed) > 0 {
		return fmt.Errorf("erp sync: sections failed: %v", failed)
	}

	list, err := j.Ratios.ForPeriod(ctx, payload.TenantID, period)
	if err != nil {
		logger.Error("erp sync ratios failed", slog.Any("error", err))
		return err
	}

	if err := j.Marker.MarkSynced(ctx, payload.TenantID, j.now()); err != nil {
		logger.Error("mark erp sync", slog.Any("error", err))
		return err
	}
	logger.Info("erp sync completed",
		slog.Int("balance_entries", len(report.BalanceSheet.Data.Entries)),
		slog.Int("cash_flow_entries", len(report.CashFlow.Data.Entries)),
		slog.Int("members", len(report.Membership.Data)),
		slog.Int("ratios", len(list)),
		slog.Bool("balanced", report.BalanceSheet.Data.Summary.IsBalanced))
	return nil
}

func (j *ERPSyncJob) sectionFailures(logger *slog.Logger, report ledger.Report) []string {
	sections := []struct {
		name    string
		success bool
		err     string
	}{
		{"balance_sheet", report.BalanceSheet.Success, report.BalanceSheet.Error},
		{"cash_flow", report.CashFlow.Success, report.CashFlow.Error},
		{"membership_fees", report.Membership.Success, report.Membership.Error},
	}
	var failed []string
	for _, s := range sections {
		if s.success {
			continue
		}
		failed = append(failed, s.name)
		j.metrics().AddSectionFailure(s.name)
		logger.Warn("erp sync section failed", slog.String("section", s.name), slog.String("error", s.err))
	}
	return failed
}

func (j *ERPSyncJob) period(payload ERPSyncPayload) (shared.Period, error) {
	if payload.Year == 0 || payload.Month == 0 {
		return shared.PeriodOf(j.now()), nil
	}
	return shared.NewPeriod(payload.Year, payload.Month)
}

func (j *ERPSyncJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *ERPSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ERPSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// ERPSyncAllJob enqueues one erp:sync task per configured tenant.
type ERPSyncAllJob struct {
	Tenants  TenantLister
	Enqueuer SyncEnqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewERPSyncAllJob wires dependencies for the fan-out handler.
func NewERPSyncAllJob(tenants TenantLister, enqueuer SyncEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ERPSyncAllJob {
	return &ERPSyncAllJob{
		Tenants:  tenants,
		Enqueuer: enqueuer,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes erp:sync_all tasks. Enqueue failures are collected so one
// tenant does not block the rest.
func (j *ERPSyncAllJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("erp sync all: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracker := metrics.Track("erp_sync_all")
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	tenants, err := j.Tenants.ListTenants(ctx)
	if err != nil {
		logger.Error("list erp tenants", slog.Any("error", err))
		return err
	}
	now := time.Now().UTC()
	if j.clock != nil {
		now = j.clock()
	}
	period := shared.PeriodOf(now)

	var errs []error
	enqueued := 0
	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := j.Enqueuer.EnqueueSync(ctx, tenantID, period); err != nil {
			logger.Warn("enqueue erp sync", slog.String("tenant_id", tenantID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
			continue
		}
		enqueued++
	}
	metrics.AddEnqueued(TaskERPSync, enqueued)
	logger.Info("erp sync fan-out", slog.Int("tenants", len(tenants)), slog.Int("enqueued", enqueued), slog.String("period", period.String()))
	return errors.Join(errs...)
}
