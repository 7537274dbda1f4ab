// Package ddl renders SQL Server DDL for the generic ddl.TableDef model.
//
// Identifiers use bracket quoting: [schema].[table], [col].
package ddl

import (
	"strings"

	gddl "abprep/internal/ddl"
)

// Dialect is the SQL Server rendering of ddl.TableDef.
var Dialect = gddl.Dialect{
	Name:       "mssql ddl",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
}

// MapType maps a logical kind into a SQL Server column type. Unknown or empty
// kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, "integer", "bigint":
		return "BIGINT"
	case gddl.KindBool, "boolean":
		return "BIT"
	case gddl.KindFloat, "double":
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// QuoteIdent brackets a single identifier segment, escaping "]".
func QuoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// BuildCreateTableSQL returns CREATE TABLE [schema].[t] (...) for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.CreateTable(t)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS [schema].[t]
// (SQL Server 2016 and later).
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.DropTable(fqn)
}
