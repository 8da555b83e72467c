package ledger

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// GapCounter counts account types resolved by a default classification arm.
type GapCounter struct {
	counter *prometheus.CounterVec
	logger  *slog.Logger
}

// NewGapCounter registers the gap counter against registerer.
func NewGapCounter(registerer prometheus.Registerer, logger *slog.Logger) *GapCounter {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coopfinance_classification_gaps_total",
		Help: "Account types classified by the default branch, per taxonomy.",
	}, []string{"taxonomy", "account_type"})
	registerer.MustRegister(counter)
	return &GapCounter{counter: counter, logger: logger}
}

// RecordGap implements classify.GapRecorder.
func (g *GapCounter) RecordGap(taxonomy, accountType string) {
	if g == nil {
		return
	}
	label := accountType
	if label == "" {
		label = "unset"
	}
	g.counter.WithLabelValues(taxonomy, label).Inc()
	g.logger.Debug("classification gap", slog.String("taxonomy", taxonomy), slog.String("account_type", label))
}
