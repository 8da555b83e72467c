// Package classify maps ERP account types onto the cooperative's reporting
// taxonomies. Both mappings are total: unknown types land in a documented
// default bucket and are reported as gaps so data quality can be monitored.
package classify

// BalanceCategory is a balance-sheet bucket.
type BalanceCategory string

// Balance-sheet categories.
const (
	Assets      BalanceCategory = "assets"
	Liabilities BalanceCategory = "liabilities"
	Equity      BalanceCategory = "equity"
)

// CashFlowCategory is a cash-flow statement bucket.
type CashFlowCategory string

// Cash-flow categories.
const (
	Operating CashFlowCategory = "operating"
	Investing CashFlowCategory = "investing"
	Financing CashFlowCategory = "financing"
)

// Taxonomy names used when reporting gaps.
const (
	TaxonomyBalanceSheet = "balance_sheet"
	TaxonomyCashFlow     = "cash_flow"
)

// BalanceCategories lists every balance-sheet bucket in report order.
var BalanceCategories = []BalanceCategory{Assets, Liabilities, Equity}

// CashFlowCategories lists every cash-flow bucket in report order.
var CashFlowCategories = []CashFlowCategory{Operating, Investing, Financing}

var balanceSheetTable = map[string]BalanceCategory{
	"asset_receivable":      Assets,
	"asset_cash":            Assets,
	"asset_current":         Assets,
	"asset_non_current":     Assets,
	"asset_prepayments":     Assets,
	"asset_fixed":           Assets,
	"liability_payable":     Liabilities,
	"liability_credit_card": Liabilities,
	"liability_current":     Liabilities,
	"liability_non_current": Liabilities,
	"equity":                Equity,
	"equity_unaffected":     Equity,
}

var cashFlowTable = map[string]CashFlowCategory{
	"asset_non_current":     Investing,
	"asset_fixed":           Investing,
	"equity":                Financing,
	"equity_unaffected":     Financing,
	"liability_non_current": Financing,
}

// BalanceSheet classifies an account type into a balance-sheet category. The
// second return value is false when the type is not in the table.
//
// Unmatched types, income and expense included, default to Assets. Income and
// expense eventually close into equity but the ERP carries no direct equity
// bucket for them; folding them into assets keeps the equation computable.
// This is an approximation, not correct accounting treatment.
func BalanceSheet(accountType string) (BalanceCategory, bool) {
	if category, ok := balanceSheetTable[accountType]; ok {
		return category, true
	}
	return Assets, false
}

// CashFlow classifies an account type into a cash-flow category. Everything not
// listed as investing or financing is operating, including receivables,
// payables, cash, current accounts, income and expense.
func CashFlow(accountType string) (CashFlowCategory, bool) {
	if category, ok := cashFlowTable[accountType]; ok {
		return category, true
	}
	return Operating, knownType(accountType)
}

// knownType reports whether the type is part of the ERP chart vocabulary.
// Operating is the designed home for these, so they are not gaps.
func knownType(accountType string) bool {
	if _, ok := balanceSheetTable[accountType]; ok {
		return true
	}
	_, ok := operatingTypes[accountType]
	return ok
}

var operatingTypes = map[string]struct{}{
	"income":               {},
	"income_other":         {},
	"expense":              {},
	"expense_depreciation": {},
	"expense_direct_cost":  {},
}

// GapRecorder observes account types resolved by a default arm.
type GapRecorder interface {
	RecordGap(taxonomy, accountType string)
}
