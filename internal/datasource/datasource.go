// Package datasource abstracts where the raw listings file comes from.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"abprep/internal/config"
	"abprep/internal/datasource/file"
	"abprep/internal/datasource/httpds"
)

// ErrUnsupportedKind is returned by New for unknown source kinds.
var ErrUnsupportedKind = errors.New("unsupported source.kind")

// Source opens the raw input for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Peeker is implemented by sources that can fetch a prefix more cheaply than
// a full Open, such as ranged HTTP requests.
type Peeker interface {
	Peek(ctx context.Context, n int) ([]byte, error)
}

// New returns the Source selected by s.Kind.
func New(s config.Source) (Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.NewSource(s.HTTP.URL, httpds.Config{
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			UserAgent:          "abprep",
		}), nil
	default:
		return nil, fmt.Errorf("%w=%s", ErrUnsupportedKind, s.Kind)
	}
}

// Describe returns the path or URL of s for log lines.
func Describe(s config.Source) string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}
