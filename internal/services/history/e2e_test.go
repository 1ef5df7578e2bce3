package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/usmarket/internal/clients/yahoo"
	"github.com/bobmcallan/usmarket/internal/common"
	"github.com/bobmcallan/usmarket/internal/storage/csvstore"
)

// Timestamps are 09:00 UTC on 2024-01-02 and 2024-01-03.
const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1704186000, 1704272400],
      "indicators": {
        "quote": [{
          "open":   [187.15, 184.22],
          "high":   [188.44, 185.88],
          "low":    [183.885, 183.43],
          "close":  [185.64, 184.25],
          "volume": [82488700, 58414500]
        }]
      }
    }],
    "error": null
  }
}`

// TestUpdateThenRead exercises the full pipeline against a real CSV store
// and a fake provider endpoint: fetch, merge, atomic write, read back.
func TestUpdateThenRead(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer provider.Close()

	logger := common.NewSilentLogger()
	dir := t.TempDir()
	store, err := csvstore.New(logger, dir)
	require.NoError(t, err)

	client := yahoo.NewClient(
		yahoo.WithBaseURL(provider.URL),
		yahoo.WithRateLimit(1000),
	)

	svc := NewService(store, client, 0, logger)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := svc.Update(ctx, "aapl", start)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Total)

	// The table landed on disk under the normalized name
	_, err = os.Stat(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)

	bars, err := svc.Local(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-01-02", bars[0].DateKey())
	assert.Equal(t, 185.64, bars[0].Close)
	assert.Equal(t, int64(58414500), bars[1].Volume)

	// Updating again with unchanged remote data is idempotent
	firstTable, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, "AAPL", start)
	require.NoError(t, err)

	secondTable, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(firstTable), string(secondTable))
}

func TestUpdate_ProviderFailureKeepsDiskState(t *testing.T) {
	calls := 0
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer provider.Close()

	logger := common.NewSilentLogger()
	dir := t.TempDir()
	store, err := csvstore.New(logger, dir)
	require.NoError(t, err)

	client := yahoo.NewClient(yahoo.WithBaseURL(provider.URL), yahoo.WithRateLimit(1000))
	svc := NewService(store, client, 0, logger)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err = svc.Update(ctx, "AAPL", start)
	require.NoError(t, err)

	before, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, "AAPL", start)
	require.Error(t, err)

	after, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "failed update must leave the stored table untouched")

	bars, err := svc.Local(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}
