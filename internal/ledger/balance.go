package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/coopfinance/internal/shared"
)

type accountTotals struct {
	account      Account
	debit        decimal.Decimal
	credit       decimal.Decimal
	periodDebit  decimal.Decimal
	periodCredit decimal.Decimal
}

// BalanceSheet returns one entry per account with posted lines dated on or
// before the last day of the period. A balance sheet is a point-in-time
// snapshot, so history before the month is included.
func (s *Service) BalanceSheet(ctx context.Context, tenantID string, period shared.Period) ([]BalanceEntry, error) {
	companyID, err := s.source.CompanyID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lines, err := s.fetchLines(ctx, tenantID, postedLinesDomain(companyID, time.Time{}, period.LastDay()))
	if err != nil {
		return nil, err
	}
	accounts, err := s.fetchAccounts(ctx, tenantID, lines)
	if err != nil {
		return nil, err
	}
	return s.netBalances(lines, accounts, period), nil
}

// netBalances nets debit minus credit per account and classifies each account once.
func (s *Service) netBalances(lines []RawLine, accounts map[int64]Account, period shared.Period) []BalanceEntry {
	first := period.FirstDay()
	byAccount := make(map[int64]*accountTotals)
	order := make([]int64, 0)
	for _, line := range lines {
		totals, ok := byAccount[line.AccountID]
		if !ok {
			totals = &accountTotals{account: accountFor(accounts, line)}
			byAccount[line.AccountID] = totals
			order = append(order, line.AccountID)
		}
		debit := decimal.NewFromFloat(line.Debit)
		credit := decimal.NewFromFloat(line.Credit)
		totals.debit = totals.debit.Add(debit)
		totals.credit = totals.credit.Add(credit)
		if !line.Date.Before(first) {
			totals.periodDebit = totals.periodDebit.Add(debit)
			totals.periodCredit = totals.periodCredit.Add(credit)
		}
	}

	entries := make([]BalanceEntry, 0, len(order))
	for _, id := range order {
		totals := byAccount[id]
		entry := BalanceEntry{
			AccountCode:  totals.account.Code,
			AccountName:  totals.account.Name,
			Category:     s.classifyBalance(totals.account.Type),
			Subcategory:  totals.account.Type,
			PeriodDebit:  money(totals.periodDebit),
			PeriodCredit: money(totals.periodCredit),
		}
		net := totals.debit.Sub(totals.credit)
		if net.IsPositive() {
			entry.FinalDebit = money(net)
		} else {
			entry.FinalCredit = money(net.Neg())
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].AccountCode != entries[j].AccountCode {
			return entries[i].AccountCode < entries[j].AccountCode
		}
		return entries[i].AccountName < entries[j].AccountName
	})
	return entries
}

func money(d decimal.Decimal) float64 {
	out, _ := d.Round(2).Float64()
	return out
}
