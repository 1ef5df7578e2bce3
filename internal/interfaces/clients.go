// Package interfaces defines the service and storage contracts for the
// usmarket server.
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/usmarket/internal/models"
)

// BarFetcher retrieves daily bars from a remote market data provider.
type BarFetcher interface {
	// FetchDailyBars returns the daily bars for symbol within [from, to],
	// sorted ascending by date. A provider failure, unknown symbol, or
	// empty response is an error; the fetcher never retries internally.
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error)
}
