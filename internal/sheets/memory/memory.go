package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Store is an in-process mirror used by tests and when no spreadsheet is configured
type Store struct {
	mu      sync.Mutex
	rows    []core.Transaction
	exports int
}

var _ ports.TransactionExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// ExportTransactions replaces the mirrored ledger
func (s *Store) ExportTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]core.Transaction(nil), txs...)
	s.exports++
	return nil
}

// Rows returns a copy of the mirrored ledger
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}

// Exports counts how many times the mirror was rewritten
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
