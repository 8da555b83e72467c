package ledger

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// Report fetches every section for the period concurrently. A failing section
// is recorded on its Result and does not cancel its siblings. Only a missing
// ERP configuration is returned as an error, since no section could succeed.
func (s *Service) Report(ctx context.Context, tenantID string, period shared.Period) (Report, error) {
	if _, err := s.source.CompanyID(ctx, tenantID); errors.Is(err, erp.ErrNotConfigured) || errors.Is(err, shared.ErrTenantRequired) {
		return Report{}, err
	}

	report := Report{TenantID: tenantID, Period: period}
	var g errgroup.Group
	g.Go(func() error {
		entries, err := s.BalanceSheet(ctx, tenantID, period)
		report.BalanceSheet = resultOf(BalanceSheet{Entries: entries, Summary: SummarizeBalance(entries)}, err)
		s.logSection(tenantID, period, "balance_sheet", err)
		return nil
	})
	g.Go(func() error {
		entries, err := s.CashFlow(ctx, tenantID, period)
		report.CashFlow = resultOf(CashFlow{Entries: entries, Summary: SummarizeCashFlow(entries)}, err)
		s.logSection(tenantID, period, "cash_flow", err)
		return nil
	})
	g.Go(func() error {
		fees, err := s.MembershipFees(ctx, tenantID)
		report.Membership = resultOf(fees, err)
		s.logSection(tenantID, period, "membership_fees", err)
		return nil
	})
	_ = g.Wait()
	return report, nil
}

func (s *Service) logSection(tenantID string, period shared.Period, section string, err error) {
	if err == nil {
		return
	}
	s.logger.Warn("report section failed",
		slog.String("tenant_id", tenantID),
		slog.String("period", period.String()),
		slog.String("section", section),
		slog.Any("error", err))
}
