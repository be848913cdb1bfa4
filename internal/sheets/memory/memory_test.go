package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestStoreReplacesRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.ExportTransactions(ctx, []core.Transaction{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := s.ExportTransactions(ctx, []core.Transaction{{ID: 3}}); err != nil {
		t.Fatal(err)
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].ID != 3 {
		t.Errorf("rows = %+v", rows)
	}
	if s.Exports() != 2 {
		t.Errorf("exports = %d", s.Exports())
	}
}

func TestStoreCopiesInput(t *testing.T) {
	s := New()
	in := []core.Transaction{{ID: 1}}
	_ = s.ExportTransactions(context.Background(), in)
	in[0].ID = 9
	if s.Rows()[0].ID != 1 {
		t.Error("store must not alias caller slice")
	}
}
