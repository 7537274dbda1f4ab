// Package ddl renders SQLite DDL for the generic ddl.TableDef model.
//
// Identifiers are double-quoted; booleans are stored as INTEGER 0/1 and
// floats as REAL.
package ddl

import (
	"strings"

	gddl "abprep/internal/ddl"
)

// Dialect is the SQLite rendering of ddl.TableDef.
var Dialect = gddl.Dialect{
	Name:       "sqlite ddl",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
}

// MapType maps a logical kind into a SQLite column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, "integer", "bigint":
		return "INTEGER"
	case gddl.KindBool, "boolean":
		return "INTEGER" // 0/1
	case gddl.KindFloat, "double", "real":
		return "REAL"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL returns CREATE TABLE "t" (...) for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.CreateTable(t)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS "t".
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.DropTable(fqn)
}

// BuildInsertSQL returns a single-row INSERT with ? placeholders.
func BuildInsertSQL(fqn string, columns []string) string {
	return Dialect.InsertSQL(fqn, columns, nil)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
