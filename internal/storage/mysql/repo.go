// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and go-sql-driver/mysql.
//
// MySQL commits DDL implicitly, so a replace cannot drop and recreate the
// live table inside one transaction. Instead rows are loaded into a staging
// table in a transaction and the staging table is swapped in with a single
// RENAME TABLE, which is atomic. On any failure before the rename the live
// table is untouched.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	gddl "abprep/internal/ddl"
	"abprep/internal/storage"
	myddl "abprep/internal/storage/mysql/ddl"
)

const (
	stagingSuffix = "__abprep_new"
	oldSuffix     = "__abprep_old"

	// maxPlaceholders is the server's limit on ? markers per statement.
	maxPlaceholders = 65535
)

// Config holds connection and batching settings.
type Config struct {
	DSN       string
	BatchSize int
}

// Repository is a MySQL implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// New wraps an existing *sql.DB. The caller owns db.
func New(db *sql.DB, cfg Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// NewRepository parses cfg.DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsnCfg, err := mysqldrv.ParseDSN(strings.TrimSpace(cfg.DSN))
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	connector, err := mysqldrv.NewConnector(dsnCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// ReplaceTable implements storage.Repository.
func (r *Repository) ReplaceTable(ctx context.Context, def gddl.TableDef, rows [][]any) (int64, error) {
	target := strings.TrimSpace(def.FQN)
	staging := myddl.WithSuffix(target, stagingSuffix)
	old := myddl.WithSuffix(target, oldSuffix)

	stageDef := def
	stageDef.FQN = staging
	create, err := myddl.BuildCreateTableSQL(stageDef)
	if err != nil {
		return 0, err
	}
	dropStaging, _ := myddl.BuildDropTableSQL(staging)
	dropOld, _ := myddl.BuildDropTableSQL(old)

	for _, stmt := range []string{dropStaging, dropOld, create} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("mysql: prepare staging %s: %w", staging, err)
		}
	}

	inserted, err := r.load(ctx, staging, def.ColumnNames(), rows)
	if err != nil {
		if _, derr := r.db.ExecContext(context.WithoutCancel(ctx), dropStaging); derr != nil {
			log.Printf("mysql: drop staging %s after failure: %v", staging, derr)
		}
		return 0, err
	}

	for _, stmt := range myddl.BuildSwapSQL(target, staging, old) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("mysql: swap %s: %w", target, err)
		}
	}
	log.Printf("mysql: replaced %s rows=%d", target, inserted)
	return inserted, nil
}

// load inserts rows into table with multi-row INSERTs inside one transaction.
func (r *Repository) load(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
		args := make([]any, 0, len(batch)*len(cols))
		for _, row := range batch {
			if len(row) != len(cols) {
				return 0, fmt.Errorf("mysql: row length %d != columns length %d", len(row), len(cols))
			}
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, myddl.BuildMultiInsertSQL(table, cols, len(batch)), args...)
		if err != nil {
			return 0, fmt.Errorf("mysql: insert: %w", err)
		}
		return res.RowsAffected()
	}

	inserted, err := storage.InsertBatches(ctx, columns, rows, r.batchSize(len(columns)), copyFn)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// batchSize clamps the configured batch so one INSERT stays under the
// placeholder limit.
func (r *Repository) batchSize(ncols int) int {
	n := r.cfg.BatchSize
	if n <= 0 {
		n = storage.DefaultBatchSize
	}
	if ncols > 0 && n*ncols > maxPlaceholders {
		n = maxPlaceholders / ncols
	}
	return n
}

// Exec executes an arbitrary SQL statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}
