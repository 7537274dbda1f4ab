// Package parser defines the contract for turning raw input bytes into
// canonical records.
package parser

import (
	"io"

	"abprep/pkg/records"
)

// Parser reads every record from r. It returns the parsed records, the number
// of rows skipped as malformed, and a fatal error when the input cannot be
// interpreted at all (unreadable header, missing mandatory columns).
type Parser interface {
	Parse(r io.Reader) ([]records.Record, int, error)
}
