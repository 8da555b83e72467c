package app

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/erp/settings"
	"github.com/odyssey-erp/coopfinance/internal/ledger"
	"github.com/odyssey-erp/coopfinance/internal/ratios"
)

// ERPDeps collects the infrastructure the ERP stack is assembled from.
// Redis is optional; without it invalidations stay local to the process.
type ERPDeps struct {
	Config     *Config
	Logger     *slog.Logger
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Registerer prometheus.Registerer
}

// ERPStack is the assembled integration and reconciliation layer shared by
// the API server and the worker.
type ERPStack struct {
	Settings    *settings.Store
	Broadcaster *erp.Broadcaster
	Sessions    *erp.SessionManager
	Gateway     *erp.Gateway
	Ledger      *ledger.Service
	Ratios      *ratios.Engine
}

// BuildERP wires settings, sessions, transport, ledger and ratio engine.
func BuildERP(deps ERPDeps) (*ERPStack, error) {
	if deps.Config == nil {
		return nil, errors.New("app: erp config required")
	}
	if deps.Pool == nil {
		return nil, errors.New("app: erp settings pool required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cipher, err := settings.NewCipher(deps.Config.ERPSettingsKey)
	if err != nil {
		return nil, err
	}
	store := settings.NewStore(deps.Pool, cipher)
	broadcaster := erp.NewBroadcaster(deps.Redis, logger)
	sessions := erp.NewSessionManager(store, broadcaster, logger)
	client := erp.NewClient(erp.ClientOptions{
		Timeout: deps.Config.ERPTimeout,
		Metrics: erp.NewMetrics(deps.Registerer),
		Logger:  logger,
	})
	gateway := erp.NewGateway(sessions, client)
	ledgerSvc := ledger.NewService(gateway, ledger.NewGapCounter(deps.Registerer, logger), logger)
	engine := ratios.NewEngine(ledgerSvc, ratios.Options{
		Workers: deps.Config.ERPHistoryWorkers,
		Logger:  logger,
	})

	return &ERPStack{
		Settings:    store,
		Broadcaster: broadcaster,
		Sessions:    sessions,
		Gateway:     gateway,
		Ledger:      ledgerSvc,
		Ratios:      engine,
	}, nil
}
