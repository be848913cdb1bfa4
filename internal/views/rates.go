package views

import (
	"sort"
	"strings"

	"fintrack/internal/core"
)

// RateRow is one currency against the table base
type RateRow struct {
	Code   string  `json:"code"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
	Text   string  `json:"text"`
}

// RateTable is the currencies page table for one base
type RateTable struct {
	Base  string    `json:"base"`
	Rows  []RateRow `json:"rows"`
	Stale bool      `json:"stale"`
}

// BuildRateTable sorts the rates by code. The base itself is left out.
func BuildRateTable(set core.ExchangeRateSet, l Locale) RateTable {
	t := RateTable{Base: strings.ToUpper(set.Base), Rows: make([]RateRow, 0, len(set.Rates))}
	for code, rate := range set.Rates {
		code = strings.ToUpper(code)
		if code == t.Base {
			continue
		}
		t.Rows = append(t.Rows, RateRow{Code: code, Symbol: core.CurrencySymbol(code), Rate: rate, Text: l.Rate(rate)})
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Code < t.Rows[j].Code })
	return t
}

// HistoryPoint is a single day of a rate series
type HistoryPoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// BuildHistory orders the series by date
func BuildHistory(points []core.RatePoint) []HistoryPoint {
	out := make([]HistoryPoint, 0, len(points))
	for _, p := range points {
		out = append(out, HistoryPoint(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
