// Package ledger turns raw ERP journal items into balance-sheet, cash-flow and
// membership entries.
package ledger

import (
	"log/slog"

	"github.com/odyssey-erp/coopfinance/internal/classify"
)

// Service runs the aggregation pipelines against an ERP source.
type Service struct {
	source Source
	gaps   classify.GapRecorder
	logger *slog.Logger
}

// NewService wires the pipeline. gaps may be nil.
func NewService(source Source, gaps classify.GapRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, gaps: gaps, logger: logger}
}

func (s *Service) classifyBalance(accountType string) classify.BalanceCategory {
	category, matched := classify.BalanceSheet(accountType)
	if !matched && s.gaps != nil {
		s.gaps.RecordGap(classify.TaxonomyBalanceSheet, accountType)
	}
	return category
}

func (s *Service) classifyCashFlow(accountType string) classify.CashFlowCategory {
	category, matched := classify.CashFlow(accountType)
	if !matched && s.gaps != nil {
		s.gaps.RecordGap(classify.TaxonomyCashFlow, accountType)
	}
	return category
}
