package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// tableColumns fixes the COPY column order for each destination table.
var tableColumns = map[string][]string{
	"marketing": {"event_id", "phone_id", "ad_id", "provider", "placement", "length", "event_ts"},
	"users":     {"event_id", "user_id", "phone_id", "property", "value", "event_ts"},
}

// Columns returns the COPY column list for a destination table.
func Columns(table string) ([]string, bool) {
	cols, ok := tableColumns[table]
	return cols, ok
}

// Run is the audit record for one load invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	FilesLoaded int
	RowsLoaded  int64
	RowsDropped int64
}

type Repository interface {
	LastChecksum(ctx context.Context, table, file string) (string, bool, error)
	LoadFile(ctx context.Context, table, file, checksum string, columns []string, rows [][]any) (int64, error)
	Reset(ctx context.Context) error
	RecordRun(ctx context.Context, run Run) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// LastChecksum returns the checksum recorded the last time this file was
// loaded. The boolean indicates whether a checkpoint existed.
func (r *PostgresRepository) LastChecksum(ctx context.Context, table, file string) (string, bool, error) {
	var checksum string
	err := r.pool.QueryRow(ctx, `
		SELECT checksum
		FROM load_checkpoint
		WHERE table_name=$1 AND file_name=$2
	`, table, file).Scan(&checksum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select checkpoint: %w", err)
	}
	return checksum, true, nil
}

// LoadFile bulk-copies rows into table and records the file checkpoint in the
// same transaction, so a failed COPY leaves no checkpoint behind.
func (r *PostgresRepository) LoadFile(ctx context.Context, table, file, checksum string, columns []string, rows [][]any) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO load_checkpoint (table_name, file_name, checksum, row_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_name, file_name)
		DO UPDATE SET checksum=EXCLUDED.checksum, row_count=EXCLUDED.row_count, loaded_at=now()
	`, table, file, checksum, n)
	if err != nil {
		return 0, fmt.Errorf("upsert checkpoint: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Reset empties the data tables and forgets all checkpoints.
func (r *PostgresRepository) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE marketing, users`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM load_checkpoint`); err != nil {
		return fmt.Errorf("clear checkpoints: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecordRun(ctx context.Context, run Run) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO load_run (run_id, started_at, files_loaded, rows_loaded, rows_dropped)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.StartedAt, run.FilesLoaded, run.RowsLoaded, run.RowsDropped)
	if err != nil {
		return fmt.Errorf("insert load_run: %w", err)
	}
	return nil
}
