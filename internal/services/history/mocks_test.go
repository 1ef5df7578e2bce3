package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/models"
)

// mockStorage is an in-memory BarStorage that tracks write activity.
type mockStorage struct {
	mu     sync.Mutex
	tables map[string][]models.DailyBar

	readErr  error
	writeErr error

	writes int
	// inFlight tracks concurrent Write calls to detect interleaving.
	inFlight    int
	maxInFlight int
	writeDelay  time.Duration
}

func newMockStorage() *mockStorage {
	return &mockStorage{tables: make(map[string][]models.DailyBar)}
}

func (m *mockStorage) Read(_ context.Context, symbol string) ([]models.DailyBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	bars, ok := m.tables[symbol]
	if !ok {
		return nil, fmt.Errorf("%w for symbol %q", interfaces.ErrNotFound, symbol)
	}
	out := make([]models.DailyBar, len(bars))
	copy(out, bars)
	return out, nil
}

func (m *mockStorage) Write(_ context.Context, symbol string, bars []models.DailyBar) error {
	m.mu.Lock()
	if m.writeErr != nil {
		m.mu.Unlock()
		return m.writeErr
	}
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.writeDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	m.writes++
	stored := make([]models.DailyBar, len(bars))
	copy(stored, bars)
	m.tables[symbol] = stored
	return nil
}

func (m *mockStorage) ListSymbols(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var symbols []string
	for sym := range m.tables {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (m *mockStorage) DataPath() string { return "mock" }

func (m *mockStorage) table(symbol string) []models.DailyBar {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[symbol]
}

func (m *mockStorage) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// mockFetcher is a BarFetcher returning canned bars and recording the start
// time of every fetch.
type mockFetcher struct {
	mu     sync.Mutex
	bars   map[string][]models.DailyBar
	err    error
	delay  time.Duration
	starts []time.Time
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{bars: make(map[string][]models.DailyBar)}
}

func (m *mockFetcher) FetchDailyBars(_ context.Context, symbol string, _, _ time.Time) ([]models.DailyBar, error) {
	m.mu.Lock()
	m.starts = append(m.starts, time.Now())
	err := m.err
	bars := m.bars[symbol]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.DailyBar, len(bars))
	copy(out, bars)
	return out, nil
}

func (m *mockFetcher) fetchStarts() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.starts))
	copy(out, m.starts)
	return out
}
