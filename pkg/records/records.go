// Package records defines the loosely-typed row shape shared by the parser and
// the record-level transformers. Keys are canonical column names; a nil value
// means the field is missing for that row.
package records

// Record is one parsed input row keyed by canonical column name.
type Record map[string]any

// Has reports whether key is present with a non-nil, non-empty value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

// String returns the value for key as a string when it is one.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}
