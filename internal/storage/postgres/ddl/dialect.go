// Package ddl renders Postgres DDL for the generic ddl.TableDef model.
package ddl

import (
	"strings"

	gddl "abprep/internal/ddl"
)

// Dialect is the Postgres rendering of ddl.TableDef.
var Dialect = gddl.Dialect{
	Name:       "postgres ddl",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
}

// MapType maps a logical kind into a Postgres column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, "integer", "bigint":
		return "BIGINT"
	case gddl.KindFloat, "double", "real":
		return "DOUBLE PRECISION"
	case gddl.KindBool, "boolean":
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// QuoteIdent safely quotes a single identifier segment.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// SplitFQN splits "schema.table" into its non-empty segments, unquoted.
func SplitFQN(fqn string) []string {
	var out []string
	for _, p := range strings.Split(fqn, ".") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildCreateTableSQL returns CREATE TABLE "schema"."t" (...) for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.CreateTable(t)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS "schema"."t".
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.DropTable(fqn)
}
