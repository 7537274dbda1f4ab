// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. A table replace runs DROP,
// CREATE and the batched INSERTs inside one transaction, so readers see either
// the previous table or the complete new one.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	gddl "abprep/internal/ddl"
	"abprep/internal/storage"
	sqliteddl "abprep/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// Open opens a SQLite database without pinging it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if dsn == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// New wraps an existing *sql.DB. The caller owns db.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NewRepository opens the database at cfg.DSN, creating its parent directory
// for file paths, and returns a Repository plus a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if dir := fileDir(dsn); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}

	db, err := Open(dsn)
	if err != nil {
		return nil, nil, err
	}

	// Fail fast on unusable paths.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// fileDir returns the directory of a plain file DSN, or "" for memory and URI
// DSNs.
func fileDir(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return ""
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return ""
	}
	return dir
}

// ReplaceTable implements storage.Repository.
func (r *Repository) ReplaceTable(ctx context.Context, def gddl.TableDef, rows [][]any) (int64, error) {
	drop, err := sqliteddl.BuildDropTableSQL(def.FQN)
	if err != nil {
		return 0, err
	}
	create, err := sqliteddl.BuildCreateTableSQL(def)
	if err != nil {
		return 0, err
	}
	columns := def.ColumnNames()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if _, err := tx.ExecContext(ctx, drop); err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: drop %s: %w", def.FQN, err)
	}
	if _, err := tx.ExecContext(ctx, create); err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: create %s: %w", def.FQN, err)
	}

	stmt, err := tx.PrepareContext(ctx, sqliteddl.BuildInsertSQL(def.FQN, columns))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
		var n int64
		for _, row := range batch {
			if len(row) != len(cols) {
				return n, fmt.Errorf("sqlite: row length %d != columns length %d", len(row), len(cols))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return n, fmt.Errorf("sqlite: insert: %w", err)
			}
			n++
		}
		return n, nil
	}

	batch := r.cfg.BatchSize
	if batch <= 0 {
		batch = storage.DefaultBatchSize
	}
	inserted, err := storage.InsertBatches(ctx, columns, rows, batch, copyFn)
	if err != nil {
		rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement outside of a transaction.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}
