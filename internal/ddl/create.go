// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// renderer parameterized by a Dialect.
//
// The zero Dialect emits identifiers verbatim and requires an explicit SQLType
// on every column. Backend packages (internal/storage/<kind>/ddl) supply a
// Dialect with their quoting rules and logical type mapping.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures what differs between SQL backends when rendering DDL.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite ddl".
	Name string
	// QuoteIdent quotes one identifier segment. Nil emits it verbatim.
	QuoteIdent func(string) string
	// MapType resolves ColumnDef.Kind when SQLType is empty. Nil leaves
	// such columns unresolved, which is an error.
	MapType func(kind string) string
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE.
	IfNotExists bool
}

func (d Dialect) prefix() string {
	if d.Name == "" {
		return "ddl"
	}
	return d.Name
}

func (d Dialect) quote(s string) string {
	if d.QuoteIdent == nil {
		return s
	}
	return d.QuoteIdent(s)
}

// QuoteFQN quotes each dot-separated segment of a table name. Empty segments
// are dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	var parts []string
	for _, p := range strings.Split(fqn, ".") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, d.quote(p))
		}
	}
	return strings.Join(parts, ".")
}

// BuildCreateTableSQL renders a generic CREATE TABLE statement with the zero
// Dialect: names are emitted as-is and every column needs a SQLType.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Dialect{}.CreateTable(t)
}

// CreateTable renders:
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
func (d Dialect) CreateTable(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.prefix())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.prefix())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.prefix(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && d.MapType != nil && c.Kind != "" {
			typ = d.MapType(c.Kind)
		}
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.prefix(), name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

// DropTable renders DROP TABLE IF EXISTS for fqn.
func (d Dialect) DropTable(fqn string) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.prefix())
	}
	return "DROP TABLE IF EXISTS " + d.QuoteFQN(fqn), nil
}

// InsertSQL renders a single-row INSERT with placeholders produced by ph
// (1-based position). Nil ph uses "?".
func (d Dialect) InsertSQL(fqn string, columns []string, ph func(i int) string) string {
	if ph == nil {
		ph = func(int) string { return "?" }
	}
	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = d.quote(c)
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QuoteFQN(fqn), strings.Join(cols, ", "), strings.Join(marks, ", "))
}
