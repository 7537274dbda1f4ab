// Package export writes the cleaned listing snapshot to CSV and reads it back
// for reporting.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zeebo/xxh3"

	"abprep/internal/listing"
)

// Fingerprint identifies the exact bytes of a written file.
type Fingerprint struct {
	Path  string
	Rows  int
	Bytes int64
	XXH3  uint64
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s rows=%d bytes=%d xxh3=%016x", f.Path, f.Rows, f.Bytes, f.XXH3)
}

// WriteCSV writes a header of columns followed by one line per row. Missing
// values are empty, floats use the shortest representation that round-trips,
// and booleans are 1 or 0.
func WriteCSV(w io.Writer, columns []string, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	rec := make([]string, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("export: row %d has %d values, want %d", i, len(row), len(columns))
		}
		for j, v := range row {
			s, err := FormatValue(v)
			if err != nil {
				return fmt.Errorf("export: row %d column %s: %w", i, columns[j], err)
			}
			rec[j] = s
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// FormatValue renders one snapshot value as a CSV cell.
func FormatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", fmt.Errorf("non-finite value %v", t)
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int:
		return strconv.Itoa(t), nil
	case bool:
		if t {
			return "1", nil
		}
		return "0", nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

// WriteFile writes the CSV to path atomically. It is Stage followed by
// Commit.
func WriteFile(path string, columns []string, rows [][]any) (Fingerprint, error) {
	st, err := Stage(path, columns, rows)
	if err != nil {
		return Fingerprint{}, err
	}
	return st.Commit()
}

// Staged is a fully written and synced CSV that is not yet visible at its
// destination path.
type Staged struct {
	tmp string
	fp  Fingerprint
}

// Stage writes the CSV to a temp file in the directory of path. Nothing at
// path changes until Commit; Abort discards the temp file. The Fingerprint
// hashes exactly the bytes written.
func Stage(path string, columns []string, rows [][]any) (*Staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("export: create temp: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	h := xxh3.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	if err := WriteCSV(cw, columns, rows); err != nil {
		cleanup()
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, fmt.Errorf("export: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("export: close: %w", err)
	}
	return &Staged{
		tmp: tmp.Name(),
		fp:  Fingerprint{Path: path, Rows: len(rows), Bytes: cw.n, XXH3: h.Sum64()},
	}, nil
}

// Fingerprint describes the staged bytes.
func (s *Staged) Fingerprint() Fingerprint { return s.fp }

// Commit renames the temp file into place.
func (s *Staged) Commit() (Fingerprint, error) {
	if err := os.Rename(s.tmp, s.fp.Path); err != nil {
		_ = os.Remove(s.tmp)
		return Fingerprint{}, fmt.Errorf("export: rename: %w", err)
	}
	return s.fp, nil
}

// Abort removes the temp file. The destination is left untouched.
func (s *Staged) Abort() {
	_ = os.Remove(s.tmp)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ErrHeaderMismatch is returned by ReadCSV when a required column is absent.
var ErrHeaderMismatch = errors.New("export: header does not match listing columns")

// ReadCSV reads a file produced by WriteCSV back into listings. Columns may be
// in any order but all of listing.Columns() must be present.
func ReadCSV(r io.Reader) ([]*listing.Listing, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrHeaderMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("export: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, c := range listing.Columns() {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrHeaderMismatch, c)
		}
	}

	var out []*listing.Listing
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, err)
		}
		p := rowParser{rec: rec, idx: idx}
		l := &listing.Listing{
			ID:                p.asString(listing.ColListingID),
			HostID:            p.asString(listing.ColHostID),
			Name:              p.asString(listing.ColName),
			Neighborhood:      p.asString(listing.ColNeighborhood),
			NeighborhoodGroup: p.asString(listing.ColNeighborhoodGroup),
			RoomType:          p.asString(listing.ColRoomType),
			Price:             p.asFloat(listing.ColPrice),
			MinimumNights:     p.asInt(listing.ColMinimumNights),
			NumberOfReviews:   p.asInt(listing.ColNumberOfReviews),
			ReviewsPerMonth:   p.asFloat(listing.ColReviewsPerMonth),
			Availability365:   p.asInt(listing.ColAvailability365),
			InstantBookable:   p.asBool(listing.ColInstantBookable),
			PriceTier:         listing.PriceTier(p.asString(listing.ColPriceTier)),
			HasReviews:        p.asBool(listing.ColHasReviews),
			Group:             listing.Group(p.asString(listing.ColABGroup)),
			BookingRate:       p.asFloat(listing.ColBookingRate),
			Bookings:          p.asInt(listing.ColBookings),
			Revenue:           p.asFloat(listing.ColRevenue),
		}
		if p.err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, p.err)
		}
		out = append(out, l)
	}
	return out, nil
}

type rowParser struct {
	rec []string
	idx map[string]int
	err error
}

func (p *rowParser) asString(col string) string { return p.rec[p.idx[col]] }

func (p *rowParser) asFloat(col string) float64 {
	s := p.asString(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func (p *rowParser) asInt(col string) int {
	s := p.asString(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func (p *rowParser) asBool(col string) bool {
	s := p.asString(col)
	if s == "" || p.err != nil {
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}
