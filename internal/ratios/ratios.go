// Package ratios derives trend-scored financial ratios from the ledger
// aggregates of a single period and assembles short histories of them.
package ratios

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/coopfinance/internal/classify"
	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/ledger"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// Trend scores a ratio against its thresholds.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendStable Trend = "stable"
	TrendDown   Trend = "down"
)

// Ratio names.
const (
	CurrentRatio    = "Current Ratio"
	DebtToAssets    = "Debt to Assets"
	ReturnOnEquity  = "Return on Equity"
	OperatingMargin = "Operating Margin"
)

// Names lists every ratio in presentation order.
var Names = []string{CurrentRatio, DebtToAssets, ReturnOnEquity, OperatingMargin}

// Ratio is one derived indicator for a tenant and period.
type Ratio struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	Period      shared.Period `json:"period"`
	Name        string        `json:"name"`
	Value       float64       `json:"value"`
	Trend       Trend         `json:"trend"`
	Description string        `json:"description"`
}

// Ledger is the aggregation the engine reads from.
type Ledger interface {
	BalanceSheet(ctx context.Context, tenantID string, period shared.Period) ([]ledger.BalanceEntry, error)
	CashFlow(ctx context.Context, tenantID string, period shared.Period) ([]ledger.CashFlowEntry, error)
}

// Options tunes the engine.
type Options struct {
	// Workers caps concurrent period computations in History.
	Workers int
	Logger  *slog.Logger
}

const defaultWorkers = 3

// Engine computes ratios. It holds no per-tenant state.
type Engine struct {
	ledger  Ledger
	workers int
	logger  *slog.Logger
}

// NewEngine builds an Engine. Workers is clamped to [1, HistoryLength].
func NewEngine(l Ledger, opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > HistoryLength {
		workers = HistoryLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{ledger: l, workers: workers, logger: logger}
}

// ForPeriod returns the four ratios for the period, or an empty slice when
// the balance sheet has no entries. A failed cash-flow fetch leaves the
// balance-based ratios intact; the cash-based ones fall to 0.
func (e *Engine) ForPeriod(ctx context.Context, tenantID string, period shared.Period) ([]Ratio, error) {
	entries, err := e.ledger.BalanceSheet(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []Ratio{}, nil
	}
	flows, err := e.ledger.CashFlow(ctx, tenantID, period)
	if err != nil {
		if !isolated(ctx, err) {
			return nil, err
		}
		e.logger.Warn("ratio cash flow unavailable",
			slog.String("tenant_id", tenantID),
			slog.String("period", period.String()),
			slog.Any("error", err))
		flows = nil
	}
	return derive(tenantID, period, entries, flows), nil
}

// isolated reports whether err is a fetch failure confined to one section or
// period. Missing configuration, a missing tenant and caller cancellation
// concern the whole request.
func isolated(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, erp.ErrNotConfigured) && !errors.Is(err, shared.ErrTenantRequired)
}

type rule struct {
	name        string
	places      int32
	up          float64
	stable      float64
	lowerBetter bool
	description string
}

var rules = map[string]rule{
	CurrentRatio: {
		name: CurrentRatio, places: 2, up: 1.5, stable: 1.0,
		description: "Current assets over current liabilities",
	},
	DebtToAssets: {
		name: DebtToAssets, places: 3, up: 0.5, stable: 0.7, lowerBetter: true,
		description: "Total liabilities over total assets",
	},
	ReturnOnEquity: {
		name: ReturnOnEquity, places: 3, up: 0.15, stable: 0.08,
		description: "Net operating cash flow over total equity",
	},
	OperatingMargin: {
		name: OperatingMargin, places: 3, up: 0.2, stable: 0.1,
		description: "Net operating cash flow over operating revenue",
	},
}

// trend applies the rule's thresholds. Debt to assets improves as it falls,
// so its comparisons are strict upper bounds.
func (r rule) trend(v float64) Trend {
	if r.lowerBetter {
		switch {
		case v < r.up:
			return TrendUp
		case v < r.stable:
			return TrendStable
		default:
			return TrendDown
		}
	}
	switch {
	case v >= r.up:
		return TrendUp
	case v >= r.stable:
		return TrendStable
	default:
		return TrendDown
	}
}

func derive(tenantID string, period shared.Period, entries []ledger.BalanceEntry, flows []ledger.CashFlowEntry) []Ratio {
	balance := ledger.SummarizeBalance(entries)
	cash := ledger.SummarizeCashFlow(flows)
	currentAssets, currentLiabilities := effectiveCurrent(entries, balance)

	values := map[string]float64{
		CurrentRatio:    safeDiv(currentAssets, currentLiabilities),
		DebtToAssets:    safeDiv(balance.TotalLiabilities, balance.TotalAssets),
		ReturnOnEquity:  safeDiv(cash.Operating, balance.TotalEquity),
		OperatingMargin: safeDiv(cash.Operating, cash.OperatingRevenue),
	}
	out := make([]Ratio, 0, len(Names))
	for _, name := range Names {
		r := rules[name]
		value := shared.Round(values[name], r.places)
		out = append(out, Ratio{
			ID:          ratioID(tenantID, period, name),
			TenantID:    tenantID,
			Period:      period,
			Name:        name,
			Value:       value,
			Trend:       r.trend(value),
			Description: r.description,
		})
	}
	return out
}

// effectiveCurrent sums the current subcategories. When none matched on a
// side, that side falls back to its full category total.
func effectiveCurrent(entries []ledger.BalanceEntry, totals ledger.BalanceSummary) (float64, float64) {
	var assets, liabilities float64
	var assetsMatched, liabilitiesMatched bool
	for _, e := range entries {
		switch e.Category {
		case classify.Assets:
			if classify.IsCurrentAsset(e.Subcategory) {
				assets += e.FinalDebit - e.FinalCredit
				assetsMatched = true
			}
		case classify.Liabilities:
			if classify.IsCurrentLiability(e.Subcategory) {
				liabilities += e.FinalCredit - e.FinalDebit
				liabilitiesMatched = true
			}
		}
	}
	if !assetsMatched {
		assets = totals.TotalAssets
	}
	if !liabilitiesMatched {
		liabilities = totals.TotalLiabilities
	}
	return assets, liabilities
}

// safeDiv returns 0 for a zero denominator.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func ratioID(tenantID string, period shared.Period, name string) string {
	return fmt.Sprintf("%s:%s:%s", tenantID, period, slug(name))
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
