// Package storage contains the backend-agnostic persistence contract, the
// registry that maps a storage kind to its factory, and the batched insert
// helper shared by the backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"abprep/internal/ddl"
)

// ErrUnknownKind is returned by New when no backend registered the kind.
var ErrUnknownKind = errors.New("unsupported storage.kind")

// Config selects and configures a backend.
type Config struct {
	Kind      string // "sqlite", "postgres", "mssql"
	DSN       string
	Table     string // destination table, optionally schema-qualified
	BatchSize int    // rows per insert batch; <= 0 selects DefaultBatchSize
}

// DefaultBatchSize is used when Config.BatchSize is unset.
const DefaultBatchSize = 1000

// Repository is a relational sink.
type Repository interface {
	// ReplaceTable drops def.FQN if it exists, recreates it from def and
	// inserts rows (aligned to def's column order), all inside one
	// transaction. On any error the transaction is rolled back and the prior
	// table contents remain. It returns the number of rows inserted.
	ReplaceTable(ctx context.Context, def ddl.TableDef, rows [][]any) (int64, error)

	// Exec runs a single statement outside of any transaction.
	Exec(ctx context.Context, sql string) error

	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// again replaces the previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w=%s", ErrUnknownKind, cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
