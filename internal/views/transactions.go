package views

import (
	"strings"

	"fintrack/internal/api"
	"fintrack/internal/core"
)

// TypeAll is the filter value meaning "any type"
const TypeAll = "all"

// TransactionFilter holds the five list dimensions. Query always carries all
// of them, so a fetch never loses a previously set dimension.
type TransactionFilter struct {
	Type       core.TxType `json:"type,omitempty"`
	CategoryID *int64      `json:"category_id,omitempty"`
	Search     string      `json:"search,omitempty"`
	StartDate  string      `json:"start_date,omitempty"`
	EndDate    string      `json:"end_date,omitempty"`
}

// SetType accepts "income", "expense", or "all"/"" to clear
func (f *TransactionFilter) SetType(t string) error {
	if t == TypeAll || t == "" {
		f.Type = ""
		return nil
	}
	typ := core.TxType(t)
	if err := typ.Validate(); err != nil {
		return err
	}
	f.Type = typ
	return nil
}

func (f *TransactionFilter) SetCategory(id *int64) {
	if id == nil {
		f.CategoryID = nil
		return
	}
	v := *id
	f.CategoryID = &v
}

func (f *TransactionFilter) SetSearch(s string) {
	f.Search = strings.TrimSpace(s)
}

// SetDateRange sets both bounds; empty strings clear a bound. Dates are
// normalized to YYYY-MM-DD.
func (f *TransactionFilter) SetDateRange(start, end string) error {
	s, err := normalizeDate(start)
	if err != nil {
		return err
	}
	e, err := normalizeDate(end)
	if err != nil {
		return err
	}
	f.StartDate, f.EndDate = s, e
	return nil
}

func (f *TransactionFilter) Reset() {
	*f = TransactionFilter{}
}

// Query returns the gateway query carrying every dimension
func (f TransactionFilter) Query() api.TransactionQuery {
	return api.TransactionQuery{
		Type:       f.Type,
		CategoryID: f.CategoryID,
		Search:     f.Search,
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
	}
}

func normalizeDate(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// TransactionRow is one rendered ledger line
type TransactionRow struct {
	Transaction core.Transaction `json:"transaction"`
	Date        string           `json:"date"`
	Category    string           `json:"category"`
	Color       string           `json:"color,omitempty"`
	Amount      AmountDisplay    `json:"amount"`
	HasFile     bool             `json:"has_file"`
}

// BuildTransactionRows renders rows in the order the backend returned them
func BuildTransactionRows(txs []core.Transaction, l Locale) []TransactionRow {
	rows := make([]TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, TransactionRow{
			Transaction: t,
			Date:        t.Date.String(),
			Category:    t.CategoryName,
			Color:       t.CategoryColor,
			Amount:      l.Amount(t),
			HasFile:     t.Attachment != nil && *t.Attachment != "",
		})
	}
	return rows
}
