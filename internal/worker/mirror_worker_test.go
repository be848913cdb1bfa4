package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
)

type fakeLister struct {
	txs   []core.Transaction
	err   error
	calls int
	last  api.TransactionQuery
}

func (f *fakeLister) ListTransactions(ctx context.Context, q api.TransactionQuery) ([]core.Transaction, error) {
	f.calls++
	f.last = q
	return f.txs, f.err
}

func TestMirrorWorker_HandleLedgerChanged(t *testing.T) {
	lister := &fakeLister{txs: []core.Transaction{{ID: 1}, {ID: 2}}}
	mirror := memory.New()
	w := NewMirrorWorker(lister, mirror, nil)
	ctx := context.Background()

	first := amqp.NewLedgerChangedMessage(amqp.EntityTransaction, amqp.OpCreated, 2)
	second := amqp.NewLedgerChangedMessage(amqp.EntityTransaction, amqp.OpDeleted, 1)

	if err := w.HandleLedgerChanged(ctx, first); err != nil {
		t.Fatalf("HandleLedgerChanged() error = %v", err)
	}
	if len(mirror.Rows()) != 2 {
		t.Errorf("mirror rows = %d", len(mirror.Rows()))
	}
	if lister.last != (api.TransactionQuery{}) {
		t.Errorf("mirror must read the unfiltered ledger, got %+v", lister.last)
	}

	if err := w.HandleLedgerChanged(ctx, second); err != nil {
		t.Fatal(err)
	}
	// redelivery of an older message is a no-op
	if err := w.HandleLedgerChanged(ctx, first); err != nil {
		t.Fatal(err)
	}
	if mirror.Exports() != 2 || lister.calls != 2 {
		t.Errorf("exports = %d, list calls = %d, want 2 and 2", mirror.Exports(), lister.calls)
	}
}

func TestMirrorWorker_ListFailureIsRetried(t *testing.T) {
	lister := &fakeLister{err: errors.New("backend down")}
	mirror := memory.New()
	w := NewMirrorWorker(lister, mirror, nil)
	msg := amqp.NewLedgerChangedMessage(amqp.EntityBudget, amqp.OpUpdated, 4)

	if err := w.HandleLedgerChanged(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if mirror.Exports() != 0 {
		t.Error("nothing should be exported on failure")
	}

	lister.err = nil
	if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
		t.Fatalf("redelivered message should be processed: %v", err)
	}
}

func TestMirrorWorker_StartupSyncWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	lister := &fakeLister{txs: []core.Transaction{{ID: 1, Type: core.Income, Date: core.NewDate(2024, 1, 1)}}}
	w := NewMirrorWorker(lister, memory.New(), nil, WithSnapshot(path))

	if err := w.StartupSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("snapshot is empty")
	}
}
