// Package postgres implements a Postgres repository using pgx v5. A table
// replace drops and recreates the table and COPYs the rows in, all inside one
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "abprep/internal/ddl"
	"abprep/internal/storage"
	pgddl "abprep/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN       string // connection string for pgxpool
	BatchSize int    // rows per COPY call
}

// beginner is the subset of *pgxpool.Pool used by Repository.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	db  beginner
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{db: pool, cfg: cfg}, closeFn, nil
}

// ReplaceTable implements storage.Repository.
func (r *Repository) ReplaceTable(ctx context.Context, def gddl.TableDef, rows [][]any) (int64, error) {
	drop, err := pgddl.BuildDropTableSQL(def.FQN)
	if err != nil {
		return 0, err
	}
	create, err := pgddl.BuildCreateTableSQL(def)
	if err != nil {
		return 0, err
	}
	ident := pgx.Identifier(pgddl.SplitFQN(def.FQN))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, drop); err != nil {
		return 0, fmt.Errorf("postgres: drop %s: %w", def.FQN, err)
	}
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("postgres: create %s: %w", def.FQN, err)
	}

	copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
		n, err := tx.CopyFrom(ctx, ident, cols, pgx.CopyFromRows(batch))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Detail != "" {
				return n, fmt.Errorf("postgres: copy: %s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
			}
			return n, fmt.Errorf("postgres: copy: %w", err)
		}
		return n, nil
	}

	batch := r.cfg.BatchSize
	if batch <= 0 {
		batch = storage.DefaultBatchSize
	}
	inserted, err := storage.InsertBatches(ctx, def.ColumnNames(), rows, batch, copyFn)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	log.Printf("postgres: replaced %s rows=%d", def.FQN, inserted)
	return inserted, nil
}

// Exec executes arbitrary SQL (e.g., DDL) against the database.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}
