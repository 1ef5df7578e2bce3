package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/models"
)

// mockHistoryService is a canned HistoryService for handler tests.
type mockHistoryService struct {
	tables    map[string][]models.DailyBar
	localErr  error
	updateErr error
	listErr   error

	lastUpdateSymbol string
	lastUpdateStart  time.Time
}

func newMockHistoryService() *mockHistoryService {
	return &mockHistoryService{tables: make(map[string][]models.DailyBar)}
}

func (m *mockHistoryService) Local(_ context.Context, symbol string) ([]models.DailyBar, error) {
	if m.localErr != nil {
		return nil, m.localErr
	}
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	bars, ok := m.tables[sym]
	if !ok {
		return nil, fmt.Errorf("%w for symbol %q", interfaces.ErrNotFound, sym)
	}
	return bars, nil
}

func (m *mockHistoryService) Update(_ context.Context, symbol string, startDate time.Time) (*interfaces.UpdateResult, error) {
	m.lastUpdateSymbol = strings.ToUpper(strings.TrimSpace(symbol))
	m.lastUpdateStart = startDate
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	bars := m.tables[m.lastUpdateSymbol]
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch returned no data for %s", m.lastUpdateSymbol)
	}
	return &interfaces.UpdateResult{
		Symbol:  m.lastUpdateSymbol,
		Fetched: len(bars),
		Total:   len(bars),
		First:   bars[0].Date,
		Last:    bars[len(bars)-1].Date,
	}, nil
}

func (m *mockHistoryService) ListSymbols(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var symbols []string
	for sym := range m.tables {
		symbols = append(symbols, sym)
	}
	return symbols, nil
}
