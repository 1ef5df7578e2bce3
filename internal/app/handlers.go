package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/usmarket/internal/common"
	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/models"
)

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("us-market-data MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleGetLocalStockData implements the get_local_stock_data tool
func handleGetLocalStockData(svc interfaces.HistoryService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		bars, err := svc.Local(ctx, symbol)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				// A valid empty state, not a failure
				return textResult(fmt.Sprintf("No local data for %s. Use update_stock_data to fetch it.",
					strings.ToUpper(strings.TrimSpace(symbol)))), nil
			}
			logger.Error().Err(err).Str("symbol", symbol).Msg("Local read failed")
			return errorResult(fmt.Sprintf("Error reading local data: %v", err)), nil
		}

		return textResult(formatBarsCSV(bars)), nil
	}
}

// handleUpdateStockData implements the update_stock_data tool
func handleUpdateStockData(svc interfaces.HistoryService, defaultStart string, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		startStr := request.GetString("start_date", defaultStart)
		start, err := time.Parse(models.DateFormat, startStr)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: start_date %q is not a valid YYYY-MM-DD date", startStr)), nil
		}

		result, err := svc.Update(ctx, symbol, start)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Update failed")
			return errorResult(fmt.Sprintf("Update error: %v", err)), nil
		}

		return textResult(formatUpdateResult(result)), nil
	}
}

// handleListLocalSymbols implements the list_local_symbols tool
func handleListLocalSymbols(svc interfaces.HistoryService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbols, err := svc.ListSymbols(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("List symbols failed")
			return errorResult(fmt.Sprintf("Error listing symbols: %v", err)), nil
		}
		if len(symbols) == 0 {
			return textResult("No symbols stored yet. Use update_stock_data to fetch one."), nil
		}
		return textResult(formatSymbolList(symbols)), nil
	}
}

// handleHistoricalResource serves usstock://{symbol}/historical with the
// same CSV payload as get_local_stock_data.
func handleHistoricalResource(svc interfaces.HistoryService, logger *common.Logger) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		symbol, err := symbolFromHistoricalURI(request.Params.URI)
		if err != nil {
			return nil, err
		}

		bars, err := svc.Local(ctx, symbol)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, fmt.Errorf("no local data for symbol %s", strings.ToUpper(symbol))
			}
			logger.Error().Err(err).Str("symbol", symbol).Msg("Resource read failed")
			return nil, fmt.Errorf("failed to read local data for %s: %w", symbol, err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/csv",
				Text:     formatBarsCSV(bars),
			},
		}, nil
	}
}

// symbolFromHistoricalURI extracts {symbol} from usstock://{symbol}/historical.
func symbolFromHistoricalURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "usstock://")
	if !ok {
		return "", fmt.Errorf("unsupported resource URI %q", uri)
	}
	symbol, ok := strings.CutSuffix(rest, "/historical")
	if !ok || symbol == "" || strings.Contains(symbol, "/") {
		return "", fmt.Errorf("unsupported resource URI %q", uri)
	}
	return symbol, nil
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
