package ratios

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/coopfinance/internal/classify"
	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/ledger"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

func seedAllButMarch(l *fakeLedger) {
	for i, p := range june.Trailing(HistoryLength) {
		if p.Month == 3 {
			continue
		}
		l.balances[p] = []ledger.BalanceEntry{
			{Category: classify.Assets, FinalDebit: 1000},
			{Category: classify.Liabilities, FinalCredit: float64(100 * (i + 1))},
		}
	}
}

func TestHistoryZeroFillsMissingPeriods(t *testing.T) {
	l := newFakeLedger()
	seedAllButMarch(l)
	engine := NewEngine(l, Options{Workers: 3})

	series, err := engine.History(context.Background(), "t1", june)
	require.NoError(t, err)
	require.Len(t, series, len(Names))

	for n, s := range series {
		assert.Equal(t, Names[n], s.Name)
		require.Len(t, s.Points, HistoryLength)
		assert.Equal(t, shared.Period{Year: 2024, Month: 1}, s.Points[0].Period)
		assert.Equal(t, june, s.Points[5].Period)
		assert.Zero(t, s.Points[2].Value, "%s for 2024-03", s.Name)
	}

	debt := series[1]
	assert.Equal(t, DebtToAssets, debt.Name)
	assert.Equal(t, []float64{0.1, 0.2, 0, 0.4, 0.5, 0.6}, values(debt))
}

func TestHistoryBoundsConcurrency(t *testing.T) {
	l := newFakeLedger()
	l.delay = 20 * time.Millisecond
	seedAllButMarch(l)
	engine := NewEngine(l, Options{Workers: 2})

	series, err := engine.History(context.Background(), "t1", june)
	require.NoError(t, err)
	require.Len(t, series, len(Names))
	assert.Equal(t, HistoryLength, l.calls)
	assert.LessOrEqual(t, l.peak, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0, 0.4, 0.5, 0.6}, values(series[1]), "chronological regardless of completion")
}

func TestHistoryZeroFillsFailedPeriod(t *testing.T) {
	l := newFakeLedger()
	seedAllButMarch(l)
	l.errs[shared.Period{Year: 2024, Month: 2}] = &erp.RPCError{Model: "account.move.line", Method: "search_read", Cause: errors.New("503")}
	engine := NewEngine(l, Options{})

	series, err := engine.History(context.Background(), "t1", june)
	require.NoError(t, err)
	require.Len(t, series, len(Names))
	for _, s := range series {
		require.Len(t, s.Points, HistoryLength)
	}
	assert.Equal(t, []float64{0.1, 0, 0, 0.4, 0.5, 0.6}, values(series[1]))
}

func TestHistoryPropagatesNotConfigured(t *testing.T) {
	l := newFakeLedger()
	seedAllButMarch(l)
	l.errs[shared.Period{Year: 2024, Month: 4}] = fmt.Errorf("resolve: %w", erp.ErrNotConfigured)
	engine := NewEngine(l, Options{})

	_, err := engine.History(context.Background(), "t1", june)
	require.ErrorIs(t, err, erp.ErrNotConfigured)
}

func TestHistoryCancelled(t *testing.T) {
	l := newFakeLedger()
	seedAllButMarch(l)
	engine := NewEngine(l, Options{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.History(ctx, "t1", june)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, l.calls)
}

func TestNewEngineClampsWorkers(t *testing.T) {
	assert.Equal(t, defaultWorkers, NewEngine(nil, Options{}).workers)
	assert.Equal(t, HistoryLength, NewEngine(nil, Options{Workers: 50}).workers)
	assert.Equal(t, 1, NewEngine(nil, Options{Workers: 1}).workers)
}

func values(s Series) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}
