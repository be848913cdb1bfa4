package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"fintrack/internal/log"
	"fintrack/internal/state"
)

var _ state.Persister = (*SQLiteStore)(nil)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLiteStore keeps each store namespace as one row of client_state
type SQLiteStore struct {
	db     *sqlx.DB
	logger *log.Logger
	now    func() time.Time
}

type stateRow struct {
	Namespace string    `db:"namespace"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	selectStateSQL = `SELECT payload FROM client_state WHERE namespace = ?`
	upsertStateSQL = `INSERT INTO client_state (namespace, payload, updated_at)
VALUES (:namespace, :payload, :updated_at)
ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	deleteStateSQL = `DELETE FROM client_state WHERE namespace = ?`
)

// NewSQLiteStore opens (creating if needed) the database at dbPath and migrates it
func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	if _, err := migrateUp(dbPath, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewSQLiteStoreFromDB(db.DB, logger), nil
}

// NewSQLiteStoreFromDB wraps an already migrated connection
func NewSQLiteStoreFromDB(db *sql.DB, logger *log.Logger) *SQLiteStore {
	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteStore{
		db:     sqlx.NewDb(db, "sqlite"),
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}
}

func (s *SQLiteStore) Load(ctx context.Context, namespace string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, selectStateSQL, namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state %s: %w", namespace, err)
	}
	return payload, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, namespace string, payload []byte) error {
	row := stateRow{Namespace: namespace, Payload: payload, UpdatedAt: s.now().UTC()}
	if _, err := s.db.NamedExecContext(ctx, upsertStateSQL, row); err != nil {
		return fmt.Errorf("upsert state %s: %w", namespace, err)
	}
	s.logger.DebugContext(ctx, "State saved", log.FieldNamespace, namespace, "bytes", len(payload))
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, deleteStateSQL, namespace); err != nil {
		return fmt.Errorf("delete state %s: %w", namespace, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
