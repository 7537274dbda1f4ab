// Package builtin contains the record transformers used by the cleaning
// stages: de-duplication, required-field filtering, text normalization,
// price coercion and the IQR outlier filter.
package builtin

import (
	"fmt"
	"strings"

	"abprep/pkg/records"
)

// DeDup keeps the first record of every key and drops later repeats.
// Survivors keep input order.
//
// A record's key is the concatenation of its Keys values as strings. Missing
// values (nil or "") all key to the same null marker, so rows without an id
// collapse into one, exactly like any other repeated key.
type DeDup struct {
	Keys []string
}

func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]records.Record, 0, len(in))
	for _, r := range in {
		key := d.keyOf(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (d DeDup) keyOf(r records.Record) string {
	var b strings.Builder
	for i, k := range d.Keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch t := r[k].(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			if t == "" {
				b.WriteByte('\x00')
			} else {
				b.WriteString(t)
			}
		default:
			b.WriteString(fmt.Sprint(t))
		}
	}
	return b.String()
}
