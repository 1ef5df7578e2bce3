// Package csvstore implements file-based CSV storage for per-symbol daily
// bar tables. One file per symbol, named from the normalized symbol, with
// atomic replace-on-write.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/usmarket/internal/common"
	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/models"
)

// Store provides file-based CSV storage for symbol tables.
type Store struct {
	dir    string
	logger *common.Logger
}

// New creates a store rooted at dir, creating the directory if absent.
func New(logger *common.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	logger.Info().Str("path", dir).Msg("CSV store opened")
	return &Store{dir: dir, logger: logger}, nil
}

// DataPath returns the storage root directory.
func (s *Store) DataPath() string {
	return s.dir
}

// normalizeSymbol uppercases the symbol and strips characters that could
// escape the data directory.
func normalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(symbol)
}

func (s *Store) filePath(symbol string) string {
	return filepath.Join(s.dir, normalizeSymbol(symbol)+".csv")
}

// Read loads the full stored table for a symbol.
func (s *Store) Read(_ context.Context, symbol string) ([]models.DailyBar, error) {
	path := s.filePath(symbol)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for symbol %q", interfaces.ErrNotFound, normalizeSymbol(symbol))
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(models.CSVHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no readable header row: %v", interfaces.ErrCorrupt, path, err)
	}
	for i, col := range models.CSVHeader {
		if header[i] != col {
			return nil, fmt.Errorf("%w: %s has unexpected header %v", interfaces.ErrCorrupt, path, header)
		}
	}

	var bars []models.DailyBar
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", interfaces.ErrCorrupt, path, line, err)
		}
		bar, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", interfaces.ErrCorrupt, path, line, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// Write persists the full table, replacing any prior content. The table is
// written to a temp file in the same directory and renamed over the target
// in one step, so readers never observe a partial table and a crash
// mid-write leaves the previous version intact.
func (s *Store) Write(_ context.Context, symbol string, bars []models.DailyBar) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", s.dir, err)
	}
	target := s.filePath(symbol)

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	w := csv.NewWriter(tmpFile)
	writeErr := w.Write(models.CSVHeader)
	for _, bar := range bars {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(formatRecord(bar))
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.logger.Debug().Str("symbol", normalizeSymbol(symbol)).Int("rows", len(bars)).Msg("Symbol table saved")
	return nil
}

// ListSymbols returns the symbols with a stored table, sorted.
func (s *Store) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data directory %s: %w", s.dir, err)
	}
	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".csv") && !strings.HasPrefix(name, ".tmp-") {
			symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// --- row codec ---

func parseRecord(record []string) (models.DailyBar, error) {
	var bar models.DailyBar

	date, err := time.Parse(models.DateFormat, record[0])
	if err != nil {
		return bar, fmt.Errorf("bad date %q", record[0])
	}
	open, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return bar, fmt.Errorf("bad open %q", record[1])
	}
	high, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return bar, fmt.Errorf("bad high %q", record[2])
	}
	low, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return bar, fmt.Errorf("bad low %q", record[3])
	}
	closePx, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return bar, fmt.Errorf("bad close %q", record[4])
	}
	volume, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return bar, fmt.Errorf("bad volume %q", record[5])
	}

	bar = models.DailyBar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: volume,
	}
	return bar, nil
}

func formatRecord(bar models.DailyBar) []string {
	return []string{
		bar.Date.Format(models.DateFormat),
		strconv.FormatFloat(bar.Open, 'f', -1, 64),
		strconv.FormatFloat(bar.High, 'f', -1, 64),
		strconv.FormatFloat(bar.Low, 'f', -1, 64),
		strconv.FormatFloat(bar.Close, 'f', -1, 64),
		strconv.FormatInt(bar.Volume, 10),
	}
}
