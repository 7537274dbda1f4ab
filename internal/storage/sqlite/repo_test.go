package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	gddl "abprep/internal/ddl"
)

func testDef() gddl.TableDef {
	return gddl.TableDef{
		FQN: "listings",
		Columns: []gddl.ColumnDef{
			{Name: "id", Kind: gddl.KindText},
			{Name: "price", Kind: gddl.KindFloat, Nullable: true},
			{Name: "instant_bookable", Kind: gddl.KindBool, Nullable: true},
		},
	}
}

/*
TestReplaceTableCommits checks the statement order of a successful replace:
drop, create, prepared insert per row, commit.
*/
func TestReplaceTableCommits(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "listings"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "listings"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "listings"`))
	prep.ExpectExec().WithArgs("1", 50.0, true).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("2", 80.0, false).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := New(db)
	n, err := repo.ReplaceTable(context.Background(), testDef(), [][]any{
		{"1", 50.0, true},
		{"2", 80.0, false},
	})
	if err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

/*
TestReplaceTableRollsBackOnInsertError verifies that an insert failure rolls
back the transaction and surfaces the driver error.
*/
func TestReplaceTableRollsBackOnInsertError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare("INSERT INTO")
	prep.ExpectExec().WillReturnError(boom)
	mock.ExpectRollback()

	_, err = New(db).ReplaceTable(context.Background(), testDef(), [][]any{{"1", 50.0, true}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

/*
TestReplaceTableEndToEnd runs two replaces against a real database file and
checks that the second fully supersedes the first, and that a failed replace
leaves the previous contents in place.
*/
func TestReplaceTableEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "ab.db")
	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, BatchSize: 1})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	def := testDef()
	if _, err := repo.ReplaceTable(ctx, def, [][]any{{"1", 50.0, true}, {"2", 80.0, nil}, {"3", 90.0, false}}); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	n, err := repo.ReplaceTable(ctx, def, [][]any{{"9", 120.5, true}})
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted = %d, want 1", n)
	}
	if got := countRows(t, repo); got != 1 {
		t.Fatalf("rows after replace = %d, want 1", got)
	}

	// Width mismatch fails inside the transaction.
	if _, err := repo.ReplaceTable(ctx, def, [][]any{{"x"}}); err == nil {
		t.Fatalf("expected error for short row")
	}
	if got := countRows(t, repo); got != 1 {
		t.Fatalf("rows after failed replace = %d, want 1", got)
	}

	var price float64
	var flag int
	if err := repo.db.QueryRowContext(ctx, `SELECT price, instant_bookable FROM listings WHERE id = '9'`).Scan(&price, &flag); err != nil {
		t.Fatalf("select: %v", err)
	}
	if price != 120.5 || flag != 1 {
		t.Fatalf("row = (%v, %v), want (120.5, 1)", price, flag)
	}
}

func countRows(t *testing.T, r *Repository) int {
	t.Helper()
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestNewRepositoryRejectsEmptyDSN(t *testing.T) {
	t.Parallel()
	if _, _, err := NewRepository(context.Background(), Config{DSN: "  "}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestExecSkipsBlank(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := New(db)
	if err := repo.Exec(context.Background(), "   "); err != nil {
		t.Fatalf("Exec blank: %v", err)
	}
	mock.ExpectExec("VACUUM").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Exec(context.Background(), "VACUUM"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
