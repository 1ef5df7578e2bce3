package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/usmarket/internal/models"
)

// UpdateResult summarizes one completed update for a symbol.
type UpdateResult struct {
	Symbol  string
	Fetched int // rows returned by the remote provider
	Total   int // rows in the stored table after the merge
	First   time.Time
	Last    time.Time
}

// HistoryService coordinates local reads and remote updates of per-symbol
// daily bar tables.
type HistoryService interface {
	// Local returns the stored table for a symbol. ErrNotFound when the
	// symbol has never been updated.
	Local(ctx context.Context, symbol string) ([]models.DailyBar, error)

	// Update fetches bars from startDate to today, merges them with the
	// stored table (fetched bars win on duplicate dates), and persists the
	// result atomically. A fetch failure aborts the update and leaves the
	// stored table untouched.
	Update(ctx context.Context, symbol string, startDate time.Time) (*UpdateResult, error)

	// ListSymbols returns the symbols with locally stored data.
	ListSymbols(ctx context.Context) ([]string, error)
}
