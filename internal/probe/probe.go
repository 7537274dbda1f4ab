// Package probe samples the head of a raw listings CSV and reports how its
// columns line up with the listing schema. It sniffs the delimiter, infers a
// coarse type per column and suggests header_map entries for headers that only
// match a canonical field after normalization.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"abprep/internal/config"
	"abprep/internal/datasource"
	"abprep/internal/schema"
	"abprep/internal/transformer/builtin"
)

// DefaultMaxBytes is the sample size used when Options.MaxBytes is unset.
const DefaultMaxBytes = 64 << 10

// maxRows caps the rows kept for type inference.
const maxRows = 2000

// Options control the sampling.
type Options struct {
	// MaxBytes to sample from the start of the source.
	MaxBytes int
	// Delimiter forces the field separator. Zero sniffs it from the sample.
	Delimiter rune
	// Mapping resolves headers. Nil selects schema.DefaultMapping().
	Mapping *schema.Mapping
}

// Column describes one sampled source column.
type Column struct {
	Header     string
	Normalized string
	// Field is the canonical column the header resolves to, or "".
	Field string
	// Suggested is true when Field was only found via the normalized name and
	// therefore needs a header_map entry.
	Suggested bool
	Type      string
	Empty     int
}

// Result is the outcome of one probe.
type Result struct {
	Delimiter rune
	Rows      int
	Columns   []Column
	// Missing lists mandatory canonical fields no column resolves to.
	Missing []string
}

// HeaderMap returns the overrides needed for the suggested columns.
func (r Result) HeaderMap() map[string]string {
	out := map[string]string{}
	for _, c := range r.Columns {
		if c.Suggested {
			out[c.Header] = c.Field
		}
	}
	return out
}

// Pipeline returns base with the parser options filled from the probe.
func (r Result) Pipeline(base config.Pipeline) config.Pipeline {
	p := base
	opts := config.Options{
		"comma":      string(r.Delimiter),
		"trim_space": true,
	}
	if hm := r.HeaderMap(); len(hm) > 0 {
		m := make(map[string]any, len(hm))
		for k, v := range hm {
			m[k] = v
		}
		opts["header_map"] = m
	}
	p.Parser = config.Parser{Kind: "csv", Options: opts}
	return p
}

// Probe reads at most opt.MaxBytes from src and describes its columns.
func Probe(ctx context.Context, src datasource.Source, opt Options) (Result, error) {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.Mapping == nil {
		opt.Mapping = schema.DefaultMapping()
	}

	sample, err := readSample(ctx, src, opt.MaxBytes)
	if err != nil {
		return Result{}, err
	}
	return ProbeBytes(sample, opt)
}

// readSample prefers a ranged Peek and falls back to a capped Open.
func readSample(ctx context.Context, src datasource.Source, n int) ([]byte, error) {
	if p, ok := src.(datasource.Peeker); ok {
		b, err := p.Peek(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
		return b, nil
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rc, int64(n))); err != nil {
		return nil, fmt.Errorf("probe: read sample: %w", err)
	}
	return buf.Bytes(), nil
}

// ProbeBytes describes an in-memory sample.
func ProbeBytes(sample []byte, opt Options) (Result, error) {
	if opt.Mapping == nil {
		opt.Mapping = schema.DefaultMapping()
	}
	// Cut sample at last newline to avoid a half-line record at the end.
	if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
		sample = sample[:i+1]
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = SniffDelimiter(sample)
	}
	headers, rows, err := readCSVSample(sample, delim)
	if err != nil {
		return Result{}, fmt.Errorf("probe: parse sample: %w", err)
	}
	if len(headers) == 0 {
		return Result{}, fmt.Errorf("probe: sample has no header row")
	}

	res := Result{Delimiter: delim, Rows: len(rows)}
	seen := map[string]bool{}
	for i, h := range headers {
		c := Column{Header: h, Normalized: normalizeFieldName(h)}
		if f, ok := opt.Mapping.Target(h); ok {
			c.Field = f.String()
		} else if f, ok := guessField(c.Normalized); ok && !seen[f.String()] {
			c.Field = f.String()
			c.Suggested = true
		}
		if c.Field != "" {
			seen[c.Field] = true
		}
		c.Type, c.Empty = inferColumn(rows, i)
		res.Columns = append(res.Columns, c)
	}
	for _, f := range schema.Mandatory() {
		if !seen[f.String()] {
			res.Missing = append(res.Missing, f.String())
		}
	}
	return res, nil
}

// SniffDelimiter picks the candidate separator that splits the first lines
// into the most consistent, widest rows. It falls back to ','.
func SniffDelimiter(sample []byte) rune {
	lines := strings.SplitN(string(sample), "\n", 11)
	if len(lines) > 10 {
		lines = lines[:10]
	}
	best, bestScore := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		width := -1
		score := 0
		for _, ln := range lines {
			ln = strings.TrimRight(ln, "\r")
			if ln == "" {
				continue
			}
			n := strings.Count(ln, string(d))
			if n == 0 {
				score = 0
				break
			}
			if width == -1 {
				width = n
			}
			if n == width {
				score += n
			}
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

// readCSVSample returns the header and every row whose width matches it.
// Malformed lines are skipped.
func readCSVSample(data []byte, delim rune) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil, nil, nil
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = stripUTF8BOM(rec)
		break
	}

	var rows [][]string
	for len(rows) < maxRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != len(headers) {
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows, nil
}

func stripUTF8BOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return headers
}

// inferColumn returns the narrowest type accepting every non-empty sampled
// value of column i, and the number of empty values.
func inferColumn(rows [][]string, i int) (string, int) {
	var (
		vals  []string
		empty int
	)
	for _, r := range rows {
		v := strings.TrimSpace(r[i])
		if v == "" {
			empty++
			continue
		}
		vals = append(vals, v)
	}
	switch {
	case len(vals) == 0:
		return "empty", empty
	case allMatch(vals, isBool):
		return "boolean", empty
	case allMatch(vals, isInt):
		return "integer", empty
	case allMatch(vals, isFloat):
		return "float", empty
	case allMatch(vals, isMoney):
		return "money", empty
	}
	return "text", empty
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "t", "f", "yes", "no":
		return true
	}
	return false
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isMoney(s string) bool {
	_, ok := builtin.ParseMoney(s)
	return ok
}

// normalizeFieldName lowercases s, strips accents and collapses separators
// into single underscores.
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose, remove nonspacing marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

// guessField resolves a normalized header to a canonical field, accepting the
// British "neighbour" spelling and a bare "ID" for the listing key.
func guessField(normalized string) (schema.Field, bool) {
	cands := []string{
		normalized,
		strings.ReplaceAll(normalized, "neighbour", "neighbor"),
	}
	if normalized == "id" {
		cands = append(cands, schema.ListingID.String())
	}
	for _, c := range cands {
		if f, ok := schema.Lookup(c); ok {
			return f, true
		}
	}
	return 0, false
}

// WriteTable renders r as a console table.
func WriteTable(w io.Writer, r Result) error {
	fmt.Fprintf(w, "Delimiter: %q  Rows sampled: %d\n\n", r.Delimiter, r.Rows)

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Header", "Normalized", "Field", "Type", "Empty"})
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	for _, c := range r.Columns {
		field := c.Field
		if c.Suggested {
			field += " (header_map)"
		}
		tw.Append([]string{c.Header, c.Normalized, field, c.Type, strconv.Itoa(c.Empty)})
	}
	tw.Render()

	if len(r.Missing) > 0 {
		_, err := fmt.Fprintf(w, "\nMissing mandatory columns: %s\n", strings.Join(r.Missing, ", "))
		return err
	}
	return nil
}

// WriteJSON writes the suggested pipeline configuration derived from base.
func WriteJSON(w io.Writer, r Result, base config.Pipeline) error {
	b, err := json.MarshalIndent(r.Pipeline(base), "", "  ")
	if err != nil {
		return fmt.Errorf("probe: marshal config: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
