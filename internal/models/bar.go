// Package models defines the data types shared across the usmarket server.
package models

import (
	"sort"
	"time"
)

// DateFormat is the canonical date layout used in storage and tool arguments.
const DateFormat = "2006-01-02"

// CSVHeader is the column contract of a stored symbol table.
var CSVHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// DailyBar represents a single trading day's price data for one symbol.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// DateKey returns the bar's date in canonical YYYY-MM-DD form. Bars within
// one symbol table are unique by this key.
func (b DailyBar) DateKey() string {
	return b.Date.Format(DateFormat)
}

// SortBars orders bars ascending by date in place.
func SortBars(bars []DailyBar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
}
