package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter replaces a mirror's content with the given ledger
	TransactionExporter interface {
		ExportTransactions(ctx context.Context, txs []core.Transaction) error
	}
)
