// Package app wires configuration, storage, clients, and services into the
// MCP server. It is the shared core used by cmd/usmarket-server.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/usmarket/internal/clients/yahoo"
	"github.com/bobmcallan/usmarket/internal/common"
	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/services/history"
	"github.com/bobmcallan/usmarket/internal/storage/csvstore"
)

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Store          *csvstore.Store
	HistoryService interfaces.HistoryService
	MCPServer      *server.MCPServer
	StartupTime    time.Time
}

// NewApp initializes config, logging, storage, the Yahoo client, the history
// service, and the MCP server with all tools and resources registered.
// configPath may be empty, in which case USMARKET_CONFIG is consulted.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	if configPath == "" {
		configPath = os.Getenv("USMARKET_CONFIG")
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := csvstore.New(logger, config.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	historyService := history.NewService(store, client, config.Update.GetMinInterval(), logger)

	mcpServer := server.NewMCPServer(
		"us-market-data",
		common.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
	)

	a := &App{
		Config:         config,
		Logger:         logger,
		Store:          store,
		HistoryService: historyService,
		MCPServer:      mcpServer,
		StartupTime:    startupStart,
	}

	a.registerTools()
	a.registerResources()

	logger.Info().
		Str("data_dir", store.DataPath()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	svc := a.HistoryService
	logger := a.Logger
	defaultStart := a.Config.Update.DefaultStartDate

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createGetLocalStockDataTool(), handleGetLocalStockData(svc, logger))
	s.AddTool(createUpdateStockDataTool(), handleUpdateStockData(svc, defaultStart, logger))
	s.AddTool(createListLocalSymbolsTool(), handleListLocalSymbols(svc, logger))
}

// registerResources registers the historical data resource template.
func (a *App) registerResources() {
	a.MCPServer.AddResourceTemplate(
		createHistoricalResourceTemplate(),
		handleHistoricalResource(a.HistoryService, a.Logger),
	)
}
