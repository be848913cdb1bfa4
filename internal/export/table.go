// Package export lays the ledger out as a flat table and writes it to
// spreadsheet formats.
package export

import (
	"strings"

	"fintrack/internal/core"
)

// Columns is the header shared by every tabular export
var Columns = []string{"ID", "Date", "Type", "Category", "Description", "Amount", "Currency", "Amount (base)", "Base currency", "Tags"}

// Row lays one transaction out in Columns order. Amounts are kept as plain
// decimal strings so spreadsheets parse them as numbers.
func Row(tx core.Transaction) []any {
	tags := ""
	if tx.Tags != nil {
		tags = *tx.Tags
	}
	return []any{
		tx.ID,
		tx.Date.String(),
		string(tx.Type),
		tx.CategoryName,
		tx.Description,
		tx.Amount.StringFixed(2),
		strings.ToUpper(tx.Currency),
		tx.AmountInBase.StringFixed(2),
		strings.ToUpper(tx.BaseCurrency),
		tags,
	}
}

// Table returns the header followed by one row per transaction
func Table(txs []core.Transaction) [][]any {
	out := make([][]any, 0, len(txs)+1)
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	out = append(out, header)
	for _, tx := range txs {
		out = append(out, Row(tx))
	}
	return out
}
