package ledger

import (
	"time"

	"github.com/odyssey-erp/coopfinance/internal/classify"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// RawLine is one posted journal item as fetched from the ERP.
type RawLine struct {
	ID          int64
	AccountID   int64
	AccountName string
	Date        time.Time
	Debit       float64
	Credit      float64
	Description string
	Reference   string
	MoveID      int64
}

// Account is a chart-of-accounts descriptor.
type Account struct {
	ID   int64
	Code string
	Name string
	Type string
}

// BalanceEntry is one netted account on the balance sheet. Final amounts are
// cumulative to the period end; period amounts cover the month only.
type BalanceEntry struct {
	AccountCode  string                   `json:"account_code"`
	AccountName  string                   `json:"account_name"`
	Category     classify.BalanceCategory `json:"category"`
	Subcategory  string                   `json:"subcategory"`
	PeriodDebit  float64                  `json:"period_debit"`
	PeriodCredit float64                  `json:"period_credit"`
	FinalDebit   float64                  `json:"final_debit"`
	FinalCredit  float64                  `json:"final_credit"`
}

// CashFlowEntry is one netted movement inside the period.
type CashFlowEntry struct {
	Description string                    `json:"description"`
	Amount      float64                   `json:"amount"`
	Category    classify.CashFlowCategory `json:"category"`
	SourceID    string                    `json:"source_id"`
}

// Membership statuses.
const (
	StatusUpToDate = "up to date"
	StatusWithDebt = "with debt"
)

// ExpectedContribution is the membership fee every partner is measured
// against. It stands in for a per-cooperative setting the ERP does not carry.
const ExpectedContribution = 500.0

// MembershipFee summarises one member's contribution.
type MembershipFee struct {
	PartnerID int64   `json:"partner_id"`
	Name      string  `json:"name"`
	Reference string  `json:"reference,omitempty"`
	Expected  float64 `json:"expected"`
	Paid      float64 `json:"paid"`
	Debt      float64 `json:"debt"`
	Status    string  `json:"status"`
}

// BalanceSummary totals a balance sheet.
type BalanceSummary struct {
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
	IsBalanced       bool    `json:"is_balanced"`
}

// CashFlowSummary totals a cash-flow statement.
type CashFlowSummary struct {
	Operating        float64 `json:"operating"`
	Investing        float64 `json:"investing"`
	Financing        float64 `json:"financing"`
	NetCashFlow      float64 `json:"net_cash_flow"`
	OperatingRevenue float64 `json:"operating_revenue"`
}

// BalanceSheet pairs entries with their totals.
type BalanceSheet struct {
	Entries []BalanceEntry `json:"entries"`
	Summary BalanceSummary `json:"summary"`
}

// CashFlow pairs entries with their totals.
type CashFlow struct {
	Entries []CashFlowEntry `json:"entries"`
	Summary CashFlowSummary `json:"summary"`
}

// Result carries one section of a report. Failures are captured rather than
// returned so sibling sections still render.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

func resultOf[T any](data T, err error) Result[T] {
	if err != nil {
		var zero T
		return Result[T]{Success: false, Data: zero, Error: err.Error()}
	}
	return Result[T]{Success: true, Data: data}
}

// Report bundles every section for one tenant and period.
type Report struct {
	TenantID     string                  `json:"tenant_id"`
	Period       shared.Period           `json:"period"`
	BalanceSheet Result[BalanceSheet]    `json:"balance_sheet"`
	CashFlow     Result[CashFlow]        `json:"cash_flow"`
	Membership   Result[[]MembershipFee] `json:"membership_fees"`
}
