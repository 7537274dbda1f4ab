package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	gddl "abprep/internal/ddl"
)

// fakeTx records the calls ReplaceTable makes. Unimplemented pgx.Tx methods
// panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx

	execs      []string
	copied     [][]any
	copyTable  pgx.Identifier
	copyErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	f.copyTable = table
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	var n int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return n, err
		}
		f.copied = append(f.copied, vals)
		n++
	}
	return n, nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx    *fakeTx
	execs []string
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) { return f.tx, nil }

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func listingsDef() gddl.TableDef {
	return gddl.TableDef{
		FQN: "public.listings",
		Columns: []gddl.ColumnDef{
			{Name: "id", Kind: gddl.KindText},
			{Name: "price", Kind: gddl.KindFloat},
		},
	}
}

/*
TestReplaceTableCopiesInBatches checks drop-then-create ordering, COPY into the
split identifier across batches, and the final commit.
*/
func TestReplaceTableCopiesInBatches(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	repo := &Repository{db: &fakeDB{tx: tx}, cfg: Config{BatchSize: 2}}

	n, err := repo.ReplaceTable(context.Background(), listingsDef(), [][]any{
		{"1", 50.0}, {"2", 80.0}, {"3", 90.0},
	})
	if err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	if n != 3 || len(tx.copied) != 3 {
		t.Fatalf("copied n=%d rows=%d, want 3", n, len(tx.copied))
	}
	if len(tx.execs) != 2 ||
		!strings.HasPrefix(tx.execs[0], "DROP TABLE IF EXISTS") ||
		!strings.HasPrefix(tx.execs[1], `CREATE TABLE "public"."listings"`) {
		t.Fatalf("unexpected exec order: %q", tx.execs)
	}
	if len(tx.copyTable) != 2 || tx.copyTable[0] != "public" || tx.copyTable[1] != "listings" {
		t.Fatalf("copy table = %v", tx.copyTable)
	}
	if !tx.committed || tx.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v, want commit only", tx.committed, tx.rolledBack)
	}
}

/*
TestReplaceTableRollsBackOnCopyError verifies that a COPY failure is returned
and the transaction is rolled back rather than committed.
*/
func TestReplaceTableRollsBackOnCopyError(t *testing.T) {
	t.Parallel()

	boom := errors.New("copy failed")
	tx := &fakeTx{copyErr: boom}
	repo := &Repository{db: &fakeDB{tx: tx}}

	_, err := repo.ReplaceTable(context.Background(), listingsDef(), [][]any{{"1", 50.0}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if tx.committed || !tx.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v, want rollback only", tx.committed, tx.rolledBack)
	}
}

func TestReplaceTableRejectsEmptyDefinition(t *testing.T) {
	t.Parallel()

	repo := &Repository{db: &fakeDB{tx: &fakeTx{}}}
	if _, err := repo.ReplaceTable(context.Background(), gddl.TableDef{FQN: "t"}, nil); err == nil {
		t.Fatalf("expected error for table without columns")
	}
}

func TestExecDelegates(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	repo := &Repository{db: db}
	if err := repo.Exec(context.Background(), " "); err != nil {
		t.Fatalf("Exec blank: %v", err)
	}
	if err := repo.Exec(context.Background(), "ANALYZE listings"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(db.execs) != 1 || db.execs[0] != "ANALYZE listings" {
		t.Fatalf("execs = %q", db.execs)
	}
}
