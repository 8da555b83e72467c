package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/coopfinance/internal/classify"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

var noiseFloor = decimal.New(1, -2)

type flowKey struct {
	code     string
	category classify.CashFlowCategory
}

type flowGroup struct {
	account Account
	net     decimal.Decimal
}

// CashFlow returns the movements posted inside the period, grouped by account
// code and cash-flow category. When the ledger yields nothing, posted payments
// are reported one per entry instead.
func (s *Service) CashFlow(ctx context.Context, tenantID string, period shared.Period) ([]CashFlowEntry, error) {
	companyID, err := s.source.CompanyID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	from, to := period.FirstDay(), period.LastDay()
	lines, err := s.fetchLines(ctx, tenantID, postedLinesDomain(companyID, from, to))
	if err != nil {
		return nil, err
	}
	accounts, err := s.fetchAccounts(ctx, tenantID, lines)
	if err != nil {
		return nil, err
	}
	entries := s.groupFlows(lines, accounts)
	if len(entries) > 0 {
		return entries, nil
	}

	payments, err := s.fetchPayments(ctx, tenantID, companyID, from, to)
	if err != nil {
		return nil, err
	}
	return paymentFlows(payments), nil
}

func (s *Service) groupFlows(lines []RawLine, accounts map[int64]Account) []CashFlowEntry {
	groups := make(map[flowKey]*flowGroup)
	categories := make(map[int64]classify.CashFlowCategory)
	for _, line := range lines {
		account := accountFor(accounts, line)
		category, ok := categories[line.AccountID]
		if !ok {
			category = s.classifyCashFlow(account.Type)
			categories[line.AccountID] = category
		}
		key := flowKey{code: account.Code, category: category}
		group, ok := groups[key]
		if !ok {
			group = &flowGroup{account: account}
			groups[key] = group
		}
		group.net = group.net.Add(decimal.NewFromFloat(line.Debit)).Sub(decimal.NewFromFloat(line.Credit))
	}

	entries := make([]CashFlowEntry, 0, len(groups))
	for key, group := range groups {
		if group.net.Abs().LessThan(noiseFloor) {
			continue
		}
		amount := money(group.net)
		entries = append(entries, CashFlowEntry{
			Description: describeAccount(group.account),
			Amount:      amount,
			Category:    key.category,
			SourceID:    fmt.Sprintf("%s:%d", modelAccount, group.account.ID),
		})
	}
	sortFlows(entries)
	return entries
}

func paymentFlows(payments []Payment) []CashFlowEntry {
	entries := make([]CashFlowEntry, 0, len(payments))
	for _, p := range payments {
		amount := shared.Round(p.Amount, 2)
		if p.Type == PaymentOutbound {
			amount = -amount
		}
		desc := p.Name
		if p.PartnerName != "" {
			desc = fmt.Sprintf("%s - %s", p.Name, p.PartnerName)
		}
		entries = append(entries, CashFlowEntry{
			Description: desc,
			Amount:      amount,
			Category:    classify.Operating,
			SourceID:    fmt.Sprintf("%s:%d", modelPayment, p.ID),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].SourceID < entries[j].SourceID })
	return entries
}

func describeAccount(acc Account) string {
	switch {
	case acc.Code == "":
		return acc.Name
	case acc.Name == "":
		return acc.Code
	default:
		return acc.Code + " " + acc.Name
	}
}

var flowOrder = map[classify.CashFlowCategory]int{
	classify.Operating: 0,
	classify.Investing: 1,
	classify.Financing: 2,
}

func sortFlows(entries []CashFlowEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Category != b.Category {
			return flowOrder[a.Category] < flowOrder[b.Category]
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.SourceID < b.SourceID
	})
}
