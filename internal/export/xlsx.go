package export

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"fintrack/internal/core"
)

// SheetName is the worksheet the XLSX export writes to
const SheetName = "Transactions"

var (
	headerStyle = `{
		"border": [
			{"type": "bottom", "color": "#000000", "style": 1}
		],
		"fill": {"type": "pattern", "pattern": 1, "color": ["#96b753"]},
		"font": {"bold": true},
		"alignment": {"horizontal": "center"}
	}`
	amountStyle = `{"number_format": 4}`
)

// WriteXLSX streams the ledger into a workbook and writes it to w
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	f.NewSheet(SheetName)
	f.DeleteSheet("Sheet1")

	if err := f.SetColWidth(SheetName, "A", "J", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	hdr, err := f.NewStyle(headerStyle)
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	num, err := f.NewStyle(amountStyle)
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = excelize.Cell{StyleID: hdr, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for n, tx := range txs {
		row := Row(tx)
		// amounts go in as numbers so the sheet can sum them
		row[5] = excelize.Cell{StyleID: num, Value: tx.Amount.InexactFloat64()}
		row[7] = excelize.Cell{StyleID: num, Value: tx.AmountInBase.InexactFloat64()}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", n+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
