// Package ddl renders MySQL DDL for the generic ddl.TableDef model.
//
// Identifiers are backtick-quoted; booleans are TINYINT(1) and floats DOUBLE.
package ddl

import (
	"fmt"
	"strings"

	gddl "abprep/internal/ddl"
)

// Dialect is the MySQL rendering of ddl.TableDef.
var Dialect = gddl.Dialect{
	Name:       "mysql ddl",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
}

// MapType maps a logical kind into a MySQL column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, "integer", "bigint":
		return "BIGINT"
	case gddl.KindBool, "boolean":
		return "TINYINT(1)"
	case gddl.KindFloat, "double", "real":
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// BuildCreateTableSQL returns CREATE TABLE `t` (...) for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.CreateTable(t)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS `t`.
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.DropTable(fqn)
}

// BuildMultiInsertSQL returns one INSERT carrying n rows of ? placeholders.
func BuildMultiInsertSQL(fqn string, columns []string, n int) string {
	marks := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	tuples := make([]string, n)
	for i := range tuples {
		tuples[i] = marks
	}
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = QuoteIdent(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		Dialect.QuoteFQN(fqn), strings.Join(cols, ", "), strings.Join(tuples, ", "))
}

// BuildSwapSQL returns the statements that make staging the live table:
// create an empty target if none exists, atomically rename target to old and
// staging to target, then drop old.
func BuildSwapSQL(target, staging, old string) []string {
	t, s, o := Dialect.QuoteFQN(target), Dialect.QuoteFQN(staging), Dialect.QuoteFQN(old)
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s LIKE %s", t, s),
		fmt.Sprintf("RENAME TABLE %s TO %s, %s TO %s", t, o, s, t),
		"DROP TABLE IF EXISTS " + o,
	}
}

// WithSuffix appends suffix to the last segment of a dotted table name.
func WithSuffix(fqn, suffix string) string {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return ""
	}
	return fqn + suffix
}
