package ledger

import (
	"context"
	"sync"

	"github.com/odyssey-erp/coopfinance/internal/erp"
)

type searchCall struct {
	model  string
	domain []any
	opts   erp.SearchOptions
}

type fakeSource struct {
	mu        sync.Mutex
	companyID int64
	configErr error
	records   map[string][]erp.Record
	errs      map[string]error
	calls     []searchCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{records: make(map[string][]erp.Record), errs: make(map[string]error)}
}

func (f *fakeSource) SearchRead(ctx context.Context, tenantID, model string, domain []any, fields []string, opts erp.SearchOptions) ([]erp.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{model: model, domain: domain, opts: opts})
	if err := f.errs[model]; err != nil {
		return nil, err
	}
	return f.records[model], nil
}

func (f *fakeSource) CompanyID(ctx context.Context, tenantID string) (int64, error) {
	if f.configErr != nil {
		return 0, f.configErr
	}
	return f.companyID, nil
}

func (f *fakeSource) callsFor(model string) []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]searchCall, 0)
	for _, c := range f.calls {
		if c.model == model {
			out = append(out, c)
		}
	}
	return out
}

func line(id, accountID int64, date string, debit, credit float64) erp.Record {
	return erp.Record{
		"id":         id,
		"account_id": []any{accountID, "acct"},
		"date":       date,
		"debit":      debit,
		"credit":     credit,
		"name":       false,
		"ref":        false,
		"move_id":    []any{id * 10, "MOVE"},
	}
}

func account(id int64, code, name, accountType string) erp.Record {
	return erp.Record{"id": id, "code": code, "name": name, "account_type": accountType}
}

type recordingGaps struct {
	mu   sync.Mutex
	gaps []string
}

func (r *recordingGaps) RecordGap(taxonomy, accountType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gaps = append(r.gaps, taxonomy+":"+accountType)
}
