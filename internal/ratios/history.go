package ratios

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// HistoryLength is the number of trailing periods in a series, the requested
// one included.
const HistoryLength = 6

// Point is one period's value in a series.
type Point struct {
	Period shared.Period `json:"period"`
	Value  float64       `json:"value"`
}

// Series is one ratio across the trailing periods, oldest first.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// History recomputes the ratios for each trailing period independently. A
// period without balance data, or whose fetch failed, contributes 0 for every
// ratio. Periods are computed concurrently up to the worker cap. Only missing
// configuration and cancellation fail the series.
func (e *Engine) History(ctx context.Context, tenantID string, period shared.Period) ([]Series, error) {
	periods := period.Trailing(HistoryLength)
	results := make([][]Ratio, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, p := range periods {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ratios, err := e.ForPeriod(gctx, tenantID, p)
			if err != nil {
				if !isolated(gctx, err) {
					return err
				}
				e.logger.Warn("ratio history period unavailable",
					slog.String("tenant_id", tenantID),
					slog.String("period", p.String()),
					slog.Any("error", err))
				return nil
			}
			results[i] = ratios
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("ratio history failed",
			slog.String("tenant_id", tenantID),
			slog.String("period", period.String()),
			slog.Any("error", err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assemble(periods, results), nil
}

func assemble(periods []shared.Period, results [][]Ratio) []Series {
	series := make([]Series, len(Names))
	for n, name := range Names {
		points := make([]Point, len(periods))
		for i, p := range periods {
			points[i] = Point{Period: p, Value: valueOf(results[i], name)}
		}
		series[n] = Series{Name: name, Points: points}
	}
	return series
}

func valueOf(ratios []Ratio, name string) float64 {
	for _, r := range ratios {
		if r.Name == name {
			return r.Value
		}
	}
	return 0
}
