package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/coopfinance/internal/classify"
	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

var march = shared.Period{Year: 2024, Month: 3}

func seededSource() *fakeSource {
	src := newFakeSource()
	src.companyID = 7
	src.records[modelAccount] = []erp.Record{
		account(1, "1010", "Cash", "asset_cash"),
		account(2, "2010", "Payables", "liability_payable"),
		account(3, "3010", "Capital", "equity"),
		account(4, "1510", "Equipment", "asset_fixed"),
		account(5, "4010", "Fees", "income"),
	}
	return src
}

func TestBalanceSheetNetsPerAccountCumulatively(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{
		line(1, 1, "2023-12-15", 1000, 0),
		line(2, 3, "2023-12-15", 0, 1000),
		line(3, 1, "2024-03-02", 200, 0),
		line(4, 2, "2024-03-02", 0, 200),
		line(5, 1, "2024-03-20", 0, 50),
		line(6, 2, "2024-03-20", 50, 0),
	}
	svc := NewService(src, nil, nil)

	entries, err := svc.BalanceSheet(context.Background(), "t1", march)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "1010", entries[0].AccountCode)
	assert.Equal(t, classify.Assets, entries[0].Category)
	assert.Equal(t, "asset_cash", entries[0].Subcategory)
	assert.Equal(t, 1150.0, entries[0].FinalDebit)
	assert.Zero(t, entries[0].FinalCredit)
	assert.Equal(t, 200.0, entries[0].PeriodDebit)
	assert.Equal(t, 50.0, entries[0].PeriodCredit)

	assert.Equal(t, "2010", entries[1].AccountCode)
	assert.Equal(t, classify.Liabilities, entries[1].Category)
	assert.Equal(t, 150.0, entries[1].FinalCredit)

	assert.Equal(t, "3010", entries[2].AccountCode)
	assert.Equal(t, classify.Equity, entries[2].Category)
	assert.Equal(t, 1000.0, entries[2].FinalCredit)
	assert.Zero(t, entries[2].PeriodCredit)

	summary := SummarizeBalance(entries)
	assert.Equal(t, 1150.0, summary.TotalAssets)
	assert.Equal(t, 150.0, summary.TotalLiabilities)
	assert.Equal(t, 1000.0, summary.TotalEquity)
	assert.True(t, summary.IsBalanced)

	calls := src.callsFor(modelMoveLine)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{
		[]any{"parent_state", "=", "posted"},
		[]any{"date", "<=", "2024-03-31"},
		[]any{"company_id", "=", int64(7)},
	}, calls[0].domain)
}

func TestBalanceSheetRecordsClassificationGaps(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{
		line(1, 5, "2024-03-02", 0, 300),
		line(2, 1, "2024-03-02", 300, 0),
	}
	gaps := &recordingGaps{}
	svc := NewService(src, gaps, nil)

	entries, err := svc.BalanceSheet(context.Background(), "t1", march)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, classify.Assets, entries[1].Category, "income folds into assets")
	assert.Equal(t, []string{classify.TaxonomyBalanceSheet + ":income"}, gaps.gaps)
}

func TestBalanceSheetEmptyLedger(t *testing.T) {
	src := seededSource()
	svc := NewService(src, nil, nil)

	entries, err := svc.BalanceSheet(context.Background(), "t1", march)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, src.callsFor(modelAccount), "no accounts to join")
}

func TestBalanceSheetPropagatesErrors(t *testing.T) {
	src := seededSource()
	src.errs[modelMoveLine] = &erp.RPCError{Model: modelMoveLine, Method: "search_read", Cause: errors.New("boom")}
	svc := NewService(src, nil, nil)

	_, err := svc.BalanceSheet(context.Background(), "t1", march)
	require.Error(t, err)
	assert.True(t, erp.IsRPCError(err))
}

func TestSummarizeBalanceScenario(t *testing.T) {
	summary := SummarizeBalance([]BalanceEntry{
		{Category: classify.Assets, FinalDebit: 1000},
		{Category: classify.Liabilities, FinalCredit: 400},
	})
	assert.Equal(t, 1000.0, summary.TotalAssets)
	assert.Equal(t, 400.0, summary.TotalLiabilities)
	assert.False(t, summary.IsBalanced)
}

func TestSummarizeBalanceTolerance(t *testing.T) {
	within := SummarizeBalance([]BalanceEntry{
		{Category: classify.Assets, FinalDebit: 100.005},
		{Category: classify.Equity, FinalCredit: 100},
	})
	assert.True(t, within.IsBalanced)

	outside := SummarizeBalance([]BalanceEntry{
		{Category: classify.Assets, FinalDebit: 100.01},
		{Category: classify.Equity, FinalCredit: 100},
	})
	assert.False(t, outside.IsBalanced, "a gap of exactly one cent is not balanced")
}

func TestCashFlowGroupsByCodeAndCategory(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{
		line(1, 1, "2024-03-02", 500, 0),
		line(2, 1, "2024-03-03", 0, 100),
		line(3, 4, "2024-03-04", 0, 200),
		line(4, 3, "2024-03-05", 0, 100),
		line(5, 2, "2024-03-06", 0.004, 0),
	}
	svc := NewService(src, nil, nil)

	entries, err := svc.CashFlow(context.Background(), "t1", march)
	require.NoError(t, err)
	require.Len(t, entries, 3, "payables movement sits under the noise floor")

	assert.Equal(t, classify.Operating, entries[0].Category)
	assert.Equal(t, 400.0, entries[0].Amount)
	assert.Equal(t, "1010 Cash", entries[0].Description)
	assert.Equal(t, "account.account:1", entries[0].SourceID)

	assert.Equal(t, classify.Investing, entries[1].Category)
	assert.Equal(t, -200.0, entries[1].Amount)

	assert.Equal(t, classify.Financing, entries[2].Category)
	assert.Equal(t, -100.0, entries[2].Amount)

	calls := src.callsFor(modelMoveLine)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].domain, []any{"date", ">=", "2024-03-01"})
	assert.Contains(t, calls[0].domain, []any{"date", "<=", "2024-03-31"})
	assert.Empty(t, src.callsFor(modelPayment))
}

func TestCashFlowRoundsToCents(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{
		line(1, 1, "2024-03-02", 10.125, 0),
		line(2, 1, "2024-03-02", 0.001, 0),
	}
	svc := NewService(src, nil, nil)

	entries, err := svc.CashFlow(context.Background(), "t1", march)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 10.13, entries[0].Amount)
}

func TestCashFlowFallsBackToPayments(t *testing.T) {
	src := seededSource()
	src.records[modelPayment] = []erp.Record{
		{"id": int64(9), "name": "PAY/009", "amount": 120.0, "payment_type": "outbound", "partner_id": []any{int64(3), "Supplier"}, "date": "2024-03-09"},
		{"id": int64(8), "name": "PAY/008", "amount": 300.0, "payment_type": "inbound", "partner_id": false, "date": "2024-03-08"},
	}
	svc := NewService(src, nil, nil)

	entries, err := svc.CashFlow(context.Background(), "t1", march)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "account.payment:8", entries[0].SourceID)
	assert.Equal(t, 300.0, entries[0].Amount)
	assert.Equal(t, "PAY/008", entries[0].Description)
	assert.Equal(t, -120.0, entries[1].Amount)
	assert.Equal(t, "PAY/009 - Supplier", entries[1].Description)
	assert.Equal(t, classify.Operating, entries[1].Category)
}

func TestCashFlowNoiseOnlyStillFallsBack(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{line(1, 1, "2024-03-02", 0.001, 0)}
	src.records[modelPayment] = []erp.Record{
		{"id": int64(1), "name": "PAY/001", "amount": 50.0, "payment_type": "inbound"},
	}
	svc := NewService(src, nil, nil)

	entries, err := svc.CashFlow(context.Background(), "t1", march)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 50.0, entries[0].Amount)
}

func TestSummarizeCashFlowScenario(t *testing.T) {
	summary := SummarizeCashFlow([]CashFlowEntry{
		{Category: classify.Operating, Amount: 700},
		{Category: classify.Operating, Amount: -200},
		{Category: classify.Investing, Amount: -200},
		{Category: classify.Financing, Amount: -100},
	})
	assert.Equal(t, 500.0, summary.Operating)
	assert.Equal(t, -200.0, summary.Investing)
	assert.Equal(t, -100.0, summary.Financing)
	assert.Equal(t, 200.0, summary.NetCashFlow)
	assert.Equal(t, 700.0, summary.OperatingRevenue)
}

func TestMembershipFees(t *testing.T) {
	src := seededSource()
	src.records[modelPartner] = []erp.Record{
		{"id": int64(2), "name": "Bea", "ref": false, "total_invoiced": 300.0, "credit": 0.0},
		{"id": int64(1), "name": "Ana", "ref": "M-001", "total_invoiced": 650.0, "credit": 150.0},
		{"id": int64(3), "name": "Cruz", "total_invoiced": 0.0, "credit": 80.0},
	}
	svc := NewService(src, nil, nil)

	fees, err := svc.MembershipFees(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, fees, 3)

	assert.Equal(t, MembershipFee{PartnerID: 1, Name: "Ana", Reference: "M-001", Expected: 500, Paid: 500, Debt: 0, Status: StatusUpToDate}, fees[0])
	assert.Equal(t, MembershipFee{PartnerID: 2, Name: "Bea", Expected: 500, Paid: 300, Debt: 200, Status: StatusWithDebt}, fees[1])
	assert.Equal(t, 0.0, fees[2].Paid, "credit beyond invoicing never goes negative")
	assert.Equal(t, 500.0, fees[2].Debt)

	calls := src.callsFor(modelPartner)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"customer_rank", ">", 0}, calls[0].domain[0])
}

func TestReportIsolatesSectionFailures(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{
		line(1, 1, "2024-03-02", 100, 0),
		line(2, 3, "2024-03-02", 0, 100),
	}
	src.errs[modelPartner] = &erp.RPCError{Model: modelPartner, Method: "search_read", Cause: errors.New("access denied")}
	svc := NewService(src, nil, nil)

	report, err := svc.Report(context.Background(), "t1", march)
	require.NoError(t, err)
	assert.Equal(t, "t1", report.TenantID)
	assert.Equal(t, march, report.Period)

	assert.True(t, report.BalanceSheet.Success)
	assert.True(t, report.BalanceSheet.Data.Summary.IsBalanced)
	assert.True(t, report.CashFlow.Success)
	assert.Len(t, report.CashFlow.Data.Entries, 2)

	assert.False(t, report.Membership.Success)
	assert.Contains(t, report.Membership.Error, "access denied")
	assert.Nil(t, report.Membership.Data)
}

func TestReportNotConfigured(t *testing.T) {
	src := seededSource()
	src.configErr = erp.ErrNotConfigured
	svc := NewService(src, nil, nil)

	_, err := svc.Report(context.Background(), "t1", march)
	require.ErrorIs(t, err, erp.ErrNotConfigured)
}

func TestAggregationIsIdempotent(t *testing.T) {
	src := seededSource()
	src.records[modelMoveLine] = []erp.Record{
		line(1, 4, "2024-03-02", 100, 0),
		line(2, 1, "2024-03-02", 0, 100),
		line(3, 3, "2024-03-03", 0, 40),
		line(4, 2, "2024-03-03", 40, 0),
	}
	svc := NewService(src, nil, nil)

	first, err := svc.Report(context.Background(), "t1", march)
	require.NoError(t, err)
	second, err := svc.Report(context.Background(), "t1", march)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGapCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := NewGapCounter(reg, nil)

	counter.RecordGap(classify.TaxonomyBalanceSheet, "expense")
	counter.RecordGap(classify.TaxonomyBalanceSheet, "expense")
	counter.RecordGap(classify.TaxonomyCashFlow, "")

	assert.Equal(t, 2.0, testutil.ToFloat64(counter.counter.WithLabelValues(classify.TaxonomyBalanceSheet, "expense")))
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.counter.WithLabelValues(classify.TaxonomyCashFlow, "unset")))

	var nilCounter *GapCounter
	assert.NotPanics(t, func() { nilCounter.RecordGap("x", "y") })
}
