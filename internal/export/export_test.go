package export

import (
	"bytes"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func sampleTxs() []core.Transaction {
	tags := "trip"
	return []core.Transaction{
		{
			ID: 1, Type: core.Expense, Date: core.NewDate(2024, 3, 1),
			Amount: decimal.RequireFromString("12.5"), Currency: "usd",
			AmountInBase: decimal.RequireFromString("1150"), BaseCurrency: "RUB",
			CategoryName: "Food", Description: "Lunch", Tags: &tags,
		},
		{
			ID: 2, Type: core.Income, Date: core.NewDate(2024, 3, 2),
			Amount: decimal.NewFromInt(5000), Currency: "RUB",
			AmountInBase: decimal.NewFromInt(5000), BaseCurrency: "RUB",
			CategoryName: "Salary",
		},
	}
}

func TestTable(t *testing.T) {
	table := Table(sampleTxs())
	if len(table) != 3 {
		t.Fatalf("rows = %d, want 3", len(table))
	}
	if len(table[0]) != len(Columns) {
		t.Errorf("header width = %d", len(table[0]))
	}
	row := table[1]
	if row[1] != "2024-03-01" || row[5] != "12.50" || row[6] != "USD" || row[9] != "trip" {
		t.Errorf("row = %v", row)
	}
	if table[2][9] != "" {
		t.Errorf("missing tags should be empty, got %v", table[2][9])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleTxs()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("sheet rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][3] != "Food" || rows[2][3] != "Salary" {
		t.Errorf("rows = %v", rows)
	}
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("empty ledger should still produce a workbook")
	}
}
