// Package csv implements the listings CSV parser. It resolves the header
// through a schema.Mapping, so every emitted record is keyed by canonical
// column names and carries only the columns the pipeline consumes.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"abprep/internal/parser"
	"abprep/internal/schema"
	"abprep/pkg/records"
)

// Options configures the CSV parser. Zero values select defaults.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from each field value.
	TrimSpace bool

	// Encoding names a legacy single-byte input encoding ("windows-1252",
	// "iso-8859-1"). Empty or "utf-8" reads the bytes as-is.
	Encoding string

	// Mapping resolves source headers to canonical fields. Nil selects
	// schema.DefaultMapping().
	Mapping *schema.Mapping

	// LogLimit caps how many skipped rows are logged individually.
	LogLimit int
}

// Parser parses listings CSV input according to Options. It is safe to reuse
// across inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.Mapping == nil {
		opt.Mapping = schema.DefaultMapping()
	}
	if opt.LogLimit <= 0 {
		opt.LogLimit = 20
	}
	return &Parser{opt: opt}
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("csv: input has no header row")

// Parse reads the header, resolves it against the mapping and returns one
// record per well-formed data row. Rows with a field count different from the
// header, or that encoding/csv cannot read, are skipped and counted.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	dec, err := decoderFor(p.opt.Encoding)
	if err != nil {
		return nil, 0, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced per row below so a single ragged line is not fatal.
	cr.FieldsPerRecord = -1

	raw, err := cr.Read()
	if err == io.EOF {
		return nil, 0, ErrEmptyInput
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	header, err := p.opt.Mapping.Resolve(normalizeHeaders(raw))
	if err != nil {
		return nil, 0, err
	}

	var (
		out     []records.Record
		skipped int
	)
	// Line numbers are 1-based with the header on line 1.
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < p.opt.LogLimit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}
		if len(row) != len(header) {
			if skipped < p.opt.LogLimit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(header), len(row))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(schema.Fields()))
		for i, val := range row {
			key := header[i]
			if key == "" {
				continue
			}
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[key] = emptyToNil(val)
		}
		out = append(out, rec)
	}
	if skipped > p.opt.LogLimit {
		log.Printf("csv: %d more skipped rows not shown", skipped-p.opt.LogLimit)
	}

	return out, skipped, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders trims header cells and strips a UTF-8 BOM from the first.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		res[i] = strings.TrimSpace(col)
	}
	return StripHeaderBOM(res)
}

func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", name)
	}
}

// SupportedEncoding reports whether name is accepted by Options.Encoding.
func SupportedEncoding(name string) bool {
	_, err := decoderFor(name)
	return err == nil
}
