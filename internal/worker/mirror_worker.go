package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// TransactionLister reads the full ledger. *api.Client satisfies it.
type TransactionLister interface {
	ListTransactions(ctx context.Context, q api.TransactionQuery) ([]core.Transaction, error)
}

// MirrorWorker rewrites the spreadsheet mirror whenever the ledger changes.
// Messages only carry ids, so every change triggers a full re-read.
type MirrorWorker struct {
	lister       TransactionLister
	exporter     sheets.TransactionExporter
	snapshotPath string
	logger       *log.Logger

	mu     sync.Mutex
	lastID ulid.ULID
}

type Option func(*MirrorWorker)

// WithSnapshot also writes an XLSX copy of the ledger to path after each sync
func WithSnapshot(path string) Option {
	return func(w *MirrorWorker) { w.snapshotPath = path }
}

func NewMirrorWorker(lister TransactionLister, exporter sheets.TransactionExporter, logger *log.Logger, opts ...Option) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	w := &MirrorWorker{
		lister:   lister,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleLedgerChanged processes one change notification from AMQP. A message
// older than one already mirrored is skipped, since that sync already covered it.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if msg.ID.Compare(w.lastID) <= 0 {
		w.logger.DebugContext(ctx, "Skipping already mirrored change",
			log.FieldMessageID, msg.ID.String())
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldMessageID, msg.ID.String(),
		log.FieldEntity, msg.Entity,
		log.FieldOperation, msg.Op,
		log.FieldEntityID, msg.EntityID)

	if err := w.mirror(ctx); err != nil {
		return err
	}
	w.lastID = msg.ID
	return nil
}

// StartupSync mirrors the ledger once, to recover from changes missed while
// the worker was down
func (w *MirrorWorker) StartupSync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger.InfoContext(ctx, "Running startup mirror")
	return w.mirror(ctx)
}

func (w *MirrorWorker) mirror(ctx context.Context) error {
	txs, err := w.lister.ListTransactions(ctx, api.TransactionQuery{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	if err := w.exporter.ExportTransactions(ctx, txs); err != nil {
		return fmt.Errorf("export transactions: %w", err)
	}

	if w.snapshotPath != "" {
		if err := w.writeSnapshot(txs); err != nil {
			// the sheet is the primary mirror; a failed local copy is not fatal
			w.logger.ErrorContext(ctx, "Failed to write XLSX snapshot", "path", w.snapshotPath, log.FieldError, err)
		}
	}

	w.logger.InfoContext(ctx, "Ledger mirrored", log.FieldCount, len(txs))
	return nil
}

func (w *MirrorWorker) writeSnapshot(txs []core.Transaction) error {
	dir := filepath.Dir(w.snapshotPath)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.xlsx")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := export.WriteXLSX(tmp, txs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), w.snapshotPath)
}
