package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the us-market-data server version and status. Use this to verify connectivity."),
	)
}

// createGetLocalStockDataTool returns the get_local_stock_data tool definition
func createGetLocalStockDataTool() mcp.Tool {
	return mcp.NewTool("get_local_stock_data",
		mcp.WithDescription("Get locally cached US stock historical daily bars as CSV (Date,Open,High,Low,Close,Volume). Returns a 'no local data' notice for symbols that were never updated."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol, e.g. 'AAPL', 'MSFT'"),
		),
	)
}

// createUpdateStockDataTool returns the update_stock_data tool definition
func createUpdateStockDataTool() mcp.Tool {
	return mcp.NewTool("update_stock_data",
		mcp.WithDescription("Fetch daily bars for a symbol from the remote provider and merge them into the local cache. Refetches the full range from start_date; freshly fetched bars replace stored bars on the same date."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol, e.g. 'AAPL', 'MSFT'"),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date in YYYY-MM-DD format (default: 2015-01-01)"),
		),
	)
}

// createListLocalSymbolsTool returns the list_local_symbols tool definition
func createListLocalSymbolsTool() mcp.Tool {
	return mcp.NewTool("list_local_symbols",
		mcp.WithDescription("List the stock symbols with locally cached historical data."),
	)
}

// createHistoricalResourceTemplate returns the usstock historical resource
// template. It serves the same CSV payload as get_local_stock_data.
func createHistoricalResourceTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"usstock://{symbol}/historical",
		"US stock historical daily bars",
		mcp.WithTemplateDescription("Locally cached daily bars for one symbol as CSV, ascending by date."),
		mcp.WithTemplateMIMEType("text/csv"),
	)
}
