package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/odyssey-erp/coopfinance/internal/erp"
)

// ERP models read by the pipeline.
const (
	modelMoveLine = "account.move.line"
	modelAccount  = "account.account"
	modelPayment  = "account.payment"
	modelPartner  = "res.partner"
)

var (
	lineFields    = []string{"id", "account_id", "date", "debit", "credit", "name", "ref", "move_id"}
	accountFields = []string{"id", "code", "name", "account_type"}
	paymentFields = []string{"id", "name", "amount", "payment_type", "partner_id", "date", "ref"}
	partnerFields = []string{"id", "name", "ref", "total_invoiced", "credit"}
)

// Source is the tenant-scoped ERP access the pipeline needs.
type Source interface {
	SearchRead(ctx context.Context, tenantID, model string, domain []any, fields []string, opts erp.SearchOptions) ([]erp.Record, error)
	CompanyID(ctx context.Context, tenantID string) (int64, error)
}

// postedLinesDomain selects posted journal items dated in [from, to]. A zero
// from leaves the range open, giving cumulative-to-date semantics.
func postedLinesDomain(companyID int64, from, to time.Time) []any {
	domain := []any{
		[]any{"parent_state", "=", "posted"},
		[]any{"date", "<=", to.Format(erp.DateLayout)},
	}
	if !from.IsZero() {
		domain = append(domain, []any{"date", ">=", from.Format(erp.DateLayout)})
	}
	if companyID > 0 {
		domain = append(domain, []any{"company_id", "=", companyID})
	}
	return domain
}

func (s *Service) fetchLines(ctx context.Context, tenantID string, domain []any) ([]RawLine, error) {
	records, err := s.source.SearchRead(ctx, tenantID, modelMoveLine, domain, lineFields, erp.SearchOptions{})
	if err != nil {
		return nil, err
	}
	lines := make([]RawLine, 0, len(records))
	for _, rec := range records {
		accountID, accountName := rec.Many2One("account_id")
		moveID, _ := rec.Many2One("move_id")
		lines = append(lines, RawLine{
			ID:          rec.Int64("id"),
			AccountID:   accountID,
			AccountName: accountName,
			Date:        rec.Date("date"),
			Debit:       rec.Float("debit"),
			Credit:      rec.Float("credit"),
			Description: rec.String("name"),
			Reference:   rec.String("ref"),
			MoveID:      moveID,
		})
	}
	return lines, nil
}

// fetchAccounts loads descriptors for the accounts referenced by lines, keyed
// by account id.
func (s *Service) fetchAccounts(ctx context.Context, tenantID string, lines []RawLine) (map[int64]Account, error) {
	ids := accountIDs(lines)
	accounts := make(map[int64]Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}
	idList := make([]any, len(ids))
	for i, id := range ids {
		idList[i] = id
	}
	records, err := s.source.SearchRead(ctx, tenantID, modelAccount, []any{[]any{"id", "in", idList}}, accountFields, erp.SearchOptions{})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		acc := Account{
			ID:   rec.Int64("id"),
			Code: rec.String("code"),
			Name: rec.String("name"),
			Type: rec.String("account_type"),
		}
		accounts[acc.ID] = acc
	}
	return accounts, nil
}

func accountIDs(lines []RawLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0)
	for _, line := range lines {
		if line.AccountID == 0 {
			continue
		}
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// accountFor returns the descriptor for a line, falling back to the name the
// line itself carries when the account was not returned.
func accountFor(accounts map[int64]Account, line RawLine) Account {
	if acc, ok := accounts[line.AccountID]; ok {
		return acc
	}
	return Account{ID: line.AccountID, Name: line.AccountName}
}

// Payment is a direct payment record used when ledger grouping yields nothing.
type Payment struct {
	ID          int64
	Name        string
	Amount      float64
	Type        string
	PartnerName string
	Date        time.Time
	Reference   string
}

// Payment directions.
const (
	PaymentInbound  = "inbound"
	PaymentOutbound = "outbound"
)

func (s *Service) fetchPayments(ctx context.Context, tenantID string, companyID int64, from, to time.Time) ([]Payment, error) {
	domain := []any{
		[]any{"state", "=", "posted"},
		[]any{"date", ">=", from.Format(erp.DateLayout)},
		[]any{"date", "<=", to.Format(erp.DateLayout)},
	}
	if companyID > 0 {
		domain = append(domain, []any{"company_id", "=", companyID})
	}
	records, err := s.source.SearchRead(ctx, tenantID, modelPayment, domain, paymentFields, erp.SearchOptions{})
	if err != nil {
		return nil, err
	}
	payments := make([]Payment, 0, len(records))
	for _, rec := range records {
		_, partner := rec.Many2One("partner_id")
		payments = append(payments, Payment{
			ID:          rec.Int64("id"),
			Name:        rec.String("name"),
			Amount:      rec.Float("amount"),
			Type:        rec.String("payment_type"),
			PartnerName: partner,
			Date:        rec.Date("date"),
			Reference:   rec.String("ref"),
		})
	}
	return payments, nil
}
