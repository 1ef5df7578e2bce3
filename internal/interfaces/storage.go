package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/usmarket/internal/models"
)

// Storage error kinds. Implementations wrap these so callers can test with
// errors.Is without depending on the concrete store.
var (
	// ErrNotFound means no table has been stored for the symbol. This is a
	// valid empty-result state, not a failure.
	ErrNotFound = errors.New("no stored data")

	// ErrCorrupt means a stored table exists but cannot be parsed.
	ErrCorrupt = errors.New("stored data is corrupt")
)

// BarStorage owns the on-disk representation of per-symbol daily bar tables.
// No other component mutates storage directly.
type BarStorage interface {
	// Read loads the full stored table for a symbol, sorted ascending by
	// date. Returns ErrNotFound if no table exists, ErrCorrupt if the
	// stored format cannot be parsed.
	Read(ctx context.Context, symbol string) ([]models.DailyBar, error)

	// Write persists the full table, replacing any prior content. The
	// replacement is atomic: a concurrent reader never observes a partially
	// written table, and a crash mid-write leaves the previous version
	// intact.
	Write(ctx context.Context, symbol string, bars []models.DailyBar) error

	// ListSymbols returns the symbols with a stored table, sorted.
	ListSymbols(ctx context.Context) ([]string, error)

	// DataPath returns the storage root directory.
	DataPath() string
}
