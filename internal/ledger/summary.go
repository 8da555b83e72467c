package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/coopfinance/internal/classify"
)

const balanceTolerance = 0.01

// SummarizeBalance totals each category on its normal side. Assets are
// debit-normal; liabilities and equity are credit-normal.
func SummarizeBalance(entries []BalanceEntry) BalanceSummary {
	var assets, liabilities, equity decimal.Decimal
	for _, e := range entries {
		debitSide := decimal.NewFromFloat(e.FinalDebit).Sub(decimal.NewFromFloat(e.FinalCredit))
		switch e.Category {
		case classify.Liabilities:
			liabilities = liabilities.Sub(debitSide)
		case classify.Equity:
			equity = equity.Sub(debitSide)
		default:
			assets = assets.Add(debitSide)
		}
	}
	summary := BalanceSummary{
		TotalAssets:      money(assets),
		TotalLiabilities: money(liabilities),
		TotalEquity:      money(equity),
	}
	gap := assets.Sub(liabilities.Add(equity)).Abs()
	summary.IsBalanced = gap.LessThan(decimal.NewFromFloat(balanceTolerance))
	return summary
}

// SummarizeCashFlow totals entries per category. OperatingRevenue only counts
// positive operating amounts.
func SummarizeCashFlow(entries []CashFlowEntry) CashFlowSummary {
	var operating, investing, financing, revenue decimal.Decimal
	for _, e := range entries {
		amount := decimal.NewFromFloat(e.Amount)
		switch e.Category {
		case classify.Investing:
			investing = investing.Add(amount)
		case classify.Financing:
			financing = financing.Add(amount)
		default:
			operating = operating.Add(amount)
			if amount.IsPositive() {
				revenue = revenue.Add(amount)
			}
		}
	}
	return CashFlowSummary{
		Operating:        money(operating),
		Investing:        money(investing),
		Financing:        money(financing),
		NetCashFlow:      money(operating.Add(investing).Add(financing)),
		OperatingRevenue: money(revenue),
	}
}
