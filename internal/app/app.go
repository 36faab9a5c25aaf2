// Package app wires storage, data sources, services and background workers
// into the core shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/mystock/internal/clients/eodhd"
	"github.com/bobmcallan/mystock/internal/clients/frankfurter"
	"github.com/bobmcallan/mystock/internal/clients/mfapi"
	"github.com/bobmcallan/mystock/internal/clients/yahoo"
	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/services/agent"
	"github.com/bobmcallan/mystock/internal/services/forex"
	"github.com/bobmcallan/mystock/internal/services/llm"
	"github.com/bobmcallan/mystock/internal/services/monitor"
	"github.com/bobmcallan/mystock/internal/services/portfolio"
	"github.com/bobmcallan/mystock/internal/services/price"
	"github.com/bobmcallan/mystock/internal/services/tools"
	"github.com/bobmcallan/mystock/internal/services/transfer"
	"github.com/bobmcallan/mystock/internal/storage"
)

// App holds every initialised component
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.Store
	History     interfaces.HistoryClient
	Funds       *price.FundResolver
	ManualNAV   *price.ManualNAVResolver
	Resolvers   *price.Resolvers
	Forex       *forex.Service
	Portfolio   *portfolio.Service
	Tools       *tools.Registry
	Gateway     *llm.Gateway
	Budget      *agent.Budget
	Agent       *agent.Agent
	Insights    *agent.InsightsGenerator
	Alerts      *monitor.AlertStore
	Monitor     *monitor.Monitor
	Hub         *monitor.Hub
	Transfer    *transfer.Service
	MCPServer   *server.MCPServer
	StartupTime time.Time

	kafka           *monitor.KafkaSink
	schedulerCancel context.CancelFunc
	mu              sync.Mutex
	started         bool
	closed          bool
}

// ConfigPaths returns the config files to merge, lowest priority first
func ConfigPaths(explicit string) []string {
	paths := []string{"config/mystock.toml", "mystock.toml"}
	if env := os.Getenv("MYSTOCK_CONFIG"); env != "" {
		paths = append(paths, env)
	}
	if explicit != "" {
		paths = append(paths, explicit)
	}
	return paths
}

// NewApp loads configuration and initialises the application
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(ConfigPaths(configPath)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(config)
}

// NewAppWithConfig initialises the application from a resolved config
func NewAppWithConfig(config *common.Config) (*App, error) {
	start := time.Now()
	ctx := context.Background()

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.NewStore(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cc := config.Clients
	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(cc.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(cc.Yahoo.RateLimit),
		yahoo.WithTimeout(cc.Yahoo.GetTimeout()),
	)
	mfClient := mfapi.NewClient(
		mfapi.WithBaseURL(cc.MFAPI.BaseURL),
		mfapi.WithLogger(logger),
		mfapi.WithRateLimit(cc.MFAPI.RateLimit),
		mfapi.WithTimeout(cc.MFAPI.GetTimeout()),
	)
	rateClient := frankfurter.NewClient(
		frankfurter.WithBaseURL(cc.Frankfurter.BaseURL),
		frankfurter.WithLogger(logger),
		frankfurter.WithRateLimit(cc.Frankfurter.RateLimit),
		frankfurter.WithTimeout(cc.Frankfurter.GetTimeout()),
	)

	historySources := []interfaces.HistoryClient{yahooClient}
	if cc.EODHD.APIKey != "" {
		historySources = append(historySources, eodhd.NewClient(cc.EODHD.APIKey,
			eodhd.WithBaseURL(cc.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(cc.EODHD.RateLimit),
			eodhd.WithTimeout(cc.EODHD.GetTimeout()),
		))
	} else {
		logger.Debug().Msg("EODHD API key not configured, using Yahoo history only")
	}
	history := price.NewFallbackHistory(logger, historySources...)

	fx := forex.NewService(store, rateClient, yahooClient, config.Cache.ForexTTL(), logger)

	funds, err := price.NewFundResolver(store, mfClient, config.Cache, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	equity := price.NewEquityResolver(store, history, config.Cache, logger)
	equity.SetBatchWorkers(config.Monitor.BatchConcurrency)
	manual := price.NewManualNAVResolver(store, logger)
	resolvers := &price.Resolvers{
		Equity: equity,
		Fund:   funds,
		Metal:  price.NewMetalResolver(store, history, fx, config.Cache, logger),
		Manual: manual,
	}

	portfolioService := portfolio.NewService(store, resolvers, fx, config.ReportingCurrency, logger)

	registry := tools.NewRegistry(logger)
	tools.RegisterPortfolioTools(registry, store, logger)
	tools.RegisterMarketTools(registry, history, mfClient, fx, logger)

	gateway, err := llm.NewFromConfig(ctx, config.AI, logger)
	if err != nil {
		logger.Warn().Err(err).Str("provider", config.AI.Provider).Msg("AI backend unavailable, chat disabled")
		gateway = llm.NewGateway(nil, config.AI.ModelID(), config.AI.GetTimeout(), logger)
	}
	budget := agent.NewBudget(store, config.AI.MonthlyBudgetUSD, gateway, logger)
	chat := agent.NewAgent(gateway, registry, budget, agent.NewSessionManager(), logger)
	insights := agent.NewInsightsGenerator(store, gateway, budget, config.Cache.InsightsTTL(), logger)

	alerts := monitor.NewAlertStore(config.Monitor.MaxAlerts)
	hub := monitor.NewHub(logger)
	mon := monitor.NewMonitor(store, history, alerts, config.Monitor, logger)
	mon.AddSink(hub)

	var kafkaSink *monitor.KafkaSink
	if config.Alerts.Kafka.Enabled() {
		kafkaSink = monitor.NewKafkaSink(config.Alerts.Kafka, logger)
		mon.AddSink(kafkaSink)
	}

	mcpServer := server.NewMCPServer(
		"mystock",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		History:     history,
		Funds:       funds,
		ManualNAV:   manual,
		Resolvers:   resolvers,
		Forex:       fx,
		Portfolio:   portfolioService,
		Tools:       registry,
		Gateway:     gateway,
		Budget:      budget,
		Agent:       chat,
		Insights:    insights,
		Alerts:      alerts,
		Monitor:     mon,
		Hub:         hub,
		Transfer:    transfer.NewService(store, logger),
		MCPServer:   mcpServer,
		StartupTime: start,
		kafka:       kafkaSink,
	}

	registerMCPTools(mcpServer, registry, logger)

	logger.Info().
		Str("storage", store.Backend()).
		Str("ai_provider", gateway.Provider()).
		Bool("ai_configured", gateway.Configured()).
		Int("tools", len(registry.Tools())).
		Dur("startup", time.Since(start)).
		Msg("App initialized")

	return a, nil
}

// StartBackground launches the alert hub, the price monitor, the price
// warm-up scheduler and, when enabled, a first insights run
func (a *App) StartBackground() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.closed {
		return
	}
	a.started = true

	go a.Hub.Run()

	if a.Config.Monitor.Enabled {
		a.Monitor.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	if interval := a.Config.Monitor.GetRefreshInterval(); interval > 0 {
		go startPriceScheduler(ctx, a.Portfolio, a.Logger, interval)
	}

	if a.Config.AI.InsightsOnLoad && a.Gateway.Configured() {
		go func() {
			if _, err := a.Insights.Get(ctx, false); err != nil {
				a.Logger.Warn().Err(err).Msg("Startup insights failed")
			}
		}()
	}
}

// Close stops background work and releases resources. Safe to call twice.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	started := a.started
	cancel := a.schedulerCancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.Monitor.Stop()
	if started {
		a.Hub.Stop()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close Kafka writer")
		}
	}
	a.Funds.Close()
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close store")
	}
}
