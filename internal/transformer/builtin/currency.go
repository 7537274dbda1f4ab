package builtin

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"abprep/pkg/records"
)

// Currency coerces a money column to float64 in place. String values are
// trimmed, stripped of leading currency symbols and thousands separators, then
// parsed. Anything that does not parse becomes nil (missing); numeric values
// are widened to float64.
type Currency struct {
	Field string
}

func (c Currency) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		v, ok := r[c.Field]
		if !ok || v == nil {
			continue
		}
		if f, ok := ParseMoney(v); ok {
			r[c.Field] = f
		} else {
			r[c.Field] = nil
		}
	}
	return in
}

// ParseMoney converts a raw money value ("$1,142", " 966 ", 12.5) to float64.
func ParseMoney(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
		})
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Positive keeps only records whose Field holds a finite float64 greater than
// zero. Missing values are dropped, never repaired.
type Positive struct {
	Field string
}

func (p Positive) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, r := range in {
		f, ok := r[p.Field].(float64)
		if !ok || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			continue
		}
		out = append(out, r)
	}
	return out
}
