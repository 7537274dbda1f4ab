package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"abprep/pkg/records"
)

const nbspace = "\u00a0"

// Normalize cleans every string value in place: NBSP becomes an ASCII space,
// edge whitespace is trimmed, and the text is composed to Unicode NFC. Strings
// that end up empty become nil (missing).
type Normalize struct{}

func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			s = normalizeText(s)
			if s == "" {
				r[k] = nil
				continue
			}
			r[k] = s
		}
	}
	return in
}

func normalizeText(s string) string {
	if strings.Contains(s, nbspace) {
		s = strings.ReplaceAll(s, nbspace, " ")
	}
	if HasEdgeSpace(s) {
		s = strings.TrimSpace(s)
	}
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	return s
}

// HasEdgeSpace reports whether s starts or ends with ASCII whitespace.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return isASCIISpace(s[0]) || isASCIISpace(s[len(s)-1])
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
