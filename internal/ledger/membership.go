package ledger

import (
	"context"
	"math"
	"sort"

	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// MembershipFees measures every customer partner against ExpectedContribution.
func (s *Service) MembershipFees(ctx context.Context, tenantID string) ([]MembershipFee, error) {
	companyID, err := s.source.CompanyID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	domain := []any{[]any{"customer_rank", ">", 0}}
	if companyID > 0 {
		domain = append(domain, "|", []any{"company_id", "=", false}, []any{"company_id", "=", companyID})
	}
	records, err := s.source.SearchRead(ctx, tenantID, modelPartner, domain, partnerFields, erp.SearchOptions{Order: "name asc"})
	if err != nil {
		return nil, err
	}
	fees := make([]MembershipFee, 0, len(records))
	for _, rec := range records {
		paid := math.Max(rec.Float("total_invoiced")-rec.Float("credit"), 0)
		fees = append(fees, newMembershipFee(rec.Int64("id"), rec.String("name"), rec.String("ref"), paid))
	}
	sort.SliceStable(fees, func(i, j int) bool {
		if fees[i].Name != fees[j].Name {
			return fees[i].Name < fees[j].Name
		}
		return fees[i].PartnerID < fees[j].PartnerID
	})
	return fees, nil
}

func newMembershipFee(id int64, name, ref string, paid float64) MembershipFee {
	fee := MembershipFee{
		PartnerID: id,
		Name:      name,
		Reference: ref,
		Expected:  ExpectedContribution,
		Paid:      shared.Round(paid, 2),
	}
	fee.Debt = shared.Round(math.Max(fee.Expected-fee.Paid, 0), 2)
	if fee.Paid >= fee.Expected {
		fee.Status = StatusUpToDate
	} else {
		fee.Status = StatusWithDebt
	}
	return fee
}
