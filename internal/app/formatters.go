package app

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/bobmcallan/usmarket/internal/interfaces"
	"github.com/bobmcallan/usmarket/internal/models"
)

// formatBarsCSV renders a symbol table in the stored column order. The tool
// and the resource both use this, so they return identical content for the
// same stored state.
func formatBarsCSV(bars []models.DailyBar) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write(models.CSVHeader)
	for _, bar := range bars {
		w.Write([]string{
			bar.Date.Format(models.DateFormat),
			strconv.FormatFloat(bar.Open, 'f', -1, 64),
			strconv.FormatFloat(bar.High, 'f', -1, 64),
			strconv.FormatFloat(bar.Low, 'f', -1, 64),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
			strconv.FormatInt(bar.Volume, 10),
		})
	}
	w.Flush()

	return sb.String()
}

// formatUpdateResult renders the outcome of one update call.
func formatUpdateResult(r *interfaces.UpdateResult) string {
	return fmt.Sprintf("Updated %s: fetched %d bars, table now holds %d rows (%s to %s).",
		r.Symbol,
		r.Fetched,
		r.Total,
		r.First.Format(models.DateFormat),
		r.Last.Format(models.DateFormat),
	)
}

// formatSymbolList renders the stored symbols as a markdown list.
func formatSymbolList(symbols []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d symbols with local data:\n", len(symbols)))
	for _, sym := range symbols {
		sb.WriteString(fmt.Sprintf("- %s\n", sym))
	}
	return sb.String()
}
