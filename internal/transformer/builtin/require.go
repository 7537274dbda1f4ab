package builtin

import "abprep/pkg/records"

// Require removes any record missing a value for one of the specified fields.
type Require struct {
	Fields []string
}

// Apply filters in place and returns the records that have every required
// field present, non-nil and, for strings, non-empty.
func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		ok := true
		for _, f := range r.Fields {
			if !rec.Has(f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out
}
