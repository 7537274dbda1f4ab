package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingColumns is returned when a mandatory column is absent from the
	// input header. It aborts the run.
	ErrMissingColumns = errors.New("schema: mandatory columns missing")

	// ErrDuplicateColumn is returned when two source headers resolve to the
	// same canonical field.
	ErrDuplicateColumn = errors.New("schema: duplicate column")

	// ErrUnknownField is returned when a mapping override targets a name that
	// is not a canonical field.
	ErrUnknownField = errors.New("schema: unknown field")
)

// Entry maps one source header onto a canonical field.
type Entry struct {
	Source string
	Target Field
}

// Mapping is the fixed rename table applied to raw headers. Canonical names
// always resolve to themselves, so already-normalized files pass unchanged.
type Mapping struct {
	entries map[string]Field
}

// DefaultMapping returns the rename table for the public listings export
// ("host id", "neighbourhood group", ...).
func DefaultMapping() *Mapping {
	m := &Mapping{entries: make(map[string]Field, 2*int(fieldCount))}
	for _, e := range []Entry{
		{"id", ListingID},
		{"NAME", Name},
		{"host id", HostID},
		{"neighbourhood", Neighborhood},
		{"neighbourhood group", NeighborhoodGroup},
		{"room type", RoomType},
		{"price", Price},
		{"minimum nights", MinimumNights},
		{"number of reviews", NumberOfReviews},
		{"reviews per month", ReviewsPerMonth},
		{"availability 365", Availability365},
		{"instant_bookable", InstantBookable},
	} {
		m.entries[e.Source] = e.Target
	}
	for _, f := range Fields() {
		m.entries[f.String()] = f
	}
	return m
}

// With returns a copy of m extended by overrides (source header -> canonical
// name). Unknown targets fail with ErrUnknownField.
func (m *Mapping) With(overrides map[string]string) (*Mapping, error) {
	out := &Mapping{entries: make(map[string]Field, len(m.entries)+len(overrides))}
	for k, v := range m.entries {
		out.entries[k] = v
	}
	// Sorted for a stable error message.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, src := range keys {
		f, ok := Lookup(overrides[src])
		if !ok {
			return nil, fmt.Errorf("%w: %q (from header %q)", ErrUnknownField, overrides[src], src)
		}
		out.entries[src] = f
	}
	return out, nil
}

// Target returns the canonical field for a source header.
func (m *Mapping) Target(header string) (Field, bool) {
	f, ok := m.entries[strings.TrimSpace(header)]
	return f, ok
}

// Header is a resolved input header: one slot per source column, holding the
// canonical name or "" for columns the pipeline does not consume.
type Header []string

// Has reports whether the canonical field is present.
func (h Header) Has(f Field) bool {
	name := f.String()
	for _, c := range h {
		if c == name {
			return true
		}
	}
	return false
}

// Resolve maps raw headers to canonical names and fails fast when the header
// cannot carry the listing schema: every mandatory field must appear, and no
// canonical field may appear twice.
func (m *Mapping) Resolve(headers []string) (Header, error) {
	out := make(Header, len(headers))
	seen := make(map[Field]string, len(headers))
	for i, h := range headers {
		f, ok := m.Target(h)
		if !ok {
			continue
		}
		if prev, dup := seen[f]; dup {
			return nil, fmt.Errorf("%w: %q and %q both map to %s", ErrDuplicateColumn, prev, h, f)
		}
		seen[f] = h
		out[i] = f.String()
	}

	var missing []string
	for _, f := range Mandatory() {
		if _, ok := seen[f]; !ok {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return out, nil
}
