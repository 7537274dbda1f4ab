package ddl

import (
	"strings"
	"testing"

	gddl "abprep/internal/ddl"
)

// TestQuoteIdent verifies SQLite-style double-quoted identifier quoting with
// escaping of embedded double quotes.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"name", `"name"`},
		{"", `""`},
		{"user name", `"user name"`},
		{`weird"name`, `"weird""name"`},
	}
	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Fatalf("quoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"listings", `"listings"`},
		{"main.listings", `"main"."listings"`},
		{" .main..listings. ", `"main"."listings"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Dialect.QuoteFQN(tt.in); got != tt.want {
			t.Fatalf("QuoteFQN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		gddl.KindInt:   "INTEGER",
		gddl.KindBool:  "INTEGER",
		gddl.KindFloat: "REAL",
		gddl.KindText:  "TEXT",
		" BIGINT ":     "INTEGER",
		"":             "TEXT",
	}
	for in, want := range tests {
		if got := MapType(in); got != want {
			t.Fatalf("MapType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN: "listings",
		Columns: []gddl.ColumnDef{
			{Name: "listing_id", Kind: gddl.KindText, Nullable: true},
			{Name: "price", Kind: gddl.KindFloat},
			{Name: "instant_bookable", Kind: gddl.KindBool},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	want := "CREATE TABLE \"listings\" (\n  \"listing_id\" TEXT,\n  \"price\" REAL NOT NULL,\n  \"instant_bookable\" INTEGER NOT NULL\n);"
	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}

	if _, err := BuildCreateTableSQL(gddl.TableDef{FQN: "t"}); err == nil || !strings.HasPrefix(err.Error(), "sqlite ddl:") {
		t.Fatalf("error = %v, want sqlite ddl prefix", err)
	}
}

func TestBuildDropAndInsertSQL(t *testing.T) {
	t.Parallel()

	drop, err := BuildDropTableSQL("listings")
	if err != nil || drop != `DROP TABLE IF EXISTS "listings"` {
		t.Fatalf("BuildDropTableSQL() = %q, %v", drop, err)
	}
	ins := BuildInsertSQL("listings", []string{"a", "b"})
	if ins != `INSERT INTO "listings" ("a", "b") VALUES (?, ?)` {
		t.Fatalf("BuildInsertSQL() = %q", ins)
	}
}
