// Package history implements the read and update pipeline for locally
// cached per-symbol daily bar tables.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/usmarket/internal/common"
	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/models"
)

// Service coordinates the Local Store and the remote fetcher. One instance
// exists per process; it owns the shared pacing state for outbound fetches.
type Service struct {
	storage interfaces.BarStorage
	fetcher interfaces.BarFetcher
	logger  *common.Logger

	// minFetchGap is the minimum delay between the completion of one remote
	// fetch and the start of the next, process-wide across all symbols.
	minFetchGap time.Duration

	// fetchMu serializes the fetch step of concurrent updates and guards
	// lastFetchEnd.
	fetchMu      sync.Mutex
	lastFetchEnd time.Time

	// symbolMu guards symbolLocks; each symbol's lock serializes the
	// read-merge-write sequence for that symbol.
	symbolMu    sync.Mutex
	symbolLocks map[string]*sync.Mutex
}

// NewService creates the history service.
func NewService(storage interfaces.BarStorage, fetcher interfaces.BarFetcher, minFetchGap time.Duration, logger *common.Logger) *Service {
	return &Service{
		storage:     storage,
		fetcher:     fetcher,
		logger:      logger,
		minFetchGap: minFetchGap,
		symbolLocks: make(map[string]*sync.Mutex),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *Service) lockFor(symbol string) *sync.Mutex {
	s.symbolMu.Lock()
	defer s.symbolMu.Unlock()
	mu, ok := s.symbolLocks[symbol]
	if !ok {
		mu = &sync.Mutex{}
		s.symbolLocks[symbol] = mu
	}
	return mu
}

// Local returns the stored table for a symbol.
func (s *Service) Local(ctx context.Context, symbol string) ([]models.DailyBar, error) {
	return s.storage.Read(ctx, normalizeSymbol(symbol))
}

// ListSymbols returns the symbols with locally stored data.
func (s *Service) ListSymbols(ctx context.Context) ([]string, error) {
	return s.storage.ListSymbols(ctx)
}

// Update fetches bars for symbol from startDate to today, merges them with
// the stored table, and persists the result atomically. The stored table is
// left untouched when the fetch fails.
func (s *Service) Update(ctx context.Context, symbol string, startDate time.Time) (*interfaces.UpdateResult, error) {
	sym := normalizeSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	mu := s.lockFor(sym)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.storage.Read(ctx, sym)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to read stored table for %s: %w", sym, err)
	}

	fetched, err := s.fetchPaced(ctx, sym, startDate, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", sym, err)
	}
	if len(fetched) == 0 {
		return nil, fmt.Errorf("fetch returned no data for %s", sym)
	}

	merged := mergeBars(fetched, existing)

	if err := s.storage.Write(ctx, sym, merged); err != nil {
		return nil, fmt.Errorf("failed to save table for %s: %w", sym, err)
	}

	result := &interfaces.UpdateResult{
		Symbol:  sym,
		Fetched: len(fetched),
		Total:   len(merged),
		First:   merged[0].Date,
		Last:    merged[len(merged)-1].Date,
	}

	s.logger.Info().
		Str("symbol", sym).
		Int("fetched", result.Fetched).
		Int("total", result.Total).
		Msg("Symbol table updated")

	return result, nil
}

// fetchPaced runs one remote fetch under the process-wide pacing guard: the
// fetch does not start until minFetchGap has elapsed since the previous
// fetch completed, regardless of symbol.
func (s *Service) fetchPaced(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyBar, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	if !s.lastFetchEnd.IsZero() {
		if wait := s.minFetchGap - time.Since(s.lastFetchEnd); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	bars, err := s.fetcher.FetchDailyBars(ctx, symbol, from, to)
	s.lastFetchEnd = time.Now()
	return bars, err
}

// mergeBars combines freshly fetched bars with the stored table, keyed by
// date. The fetched bar wins on duplicate dates since providers revise
// recent bars. The result is sorted ascending with unique dates.
func mergeBars(fetched, existing []models.DailyBar) []models.DailyBar {
	byDate := make(map[string]models.DailyBar, len(existing)+len(fetched))
	for _, b := range existing {
		byDate[b.DateKey()] = b
	}
	for _, b := range fetched {
		byDate[b.DateKey()] = b
	}

	merged := make([]models.DailyBar, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}
