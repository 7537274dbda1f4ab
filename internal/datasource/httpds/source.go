package httpds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
)

// ErrStatus is returned when the server answers with a non-success status.
var ErrStatus = errors.New("httpds: unexpected status")

// Source downloads the raw listings export from a URL.
type Source struct {
	url    string
	client *Client
}

// NewSource returns a Source for url using a client built from cfg.
func NewSource(url string, cfg Config) *Source {
	return &Source{url: url, client: NewClient(cfg)}
}

// URL returns the configured URL.
func (s *Source) URL() string { return s.url }

// Open starts the download and returns the response body. 404 and 410 are
// reported as fs.ErrNotExist so callers treat a missing remote file like a
// missing local one.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, s.url, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Peek returns at most n bytes from the start of the resource. It asks for a
// byte range but caps the read itself, so servers that ignore Range still
// work.
func (s *Source) Peek(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("httpds: n must be > 0")
	}
	h := http.Header{}
	h.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := s.client.Get(ctx, s.url, h)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, s.url, http.StatusOK, http.StatusPartialContent); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, int64(n))); err != nil {
		return nil, fmt.Errorf("httpds: read %s: %w", s.url, err)
	}
	return buf.Bytes(), nil
}

// checkStatus closes the body and returns an error unless resp carries one
// of the accepted statuses.
func checkStatus(resp *http.Response, url string, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode == code {
			return nil
		}
	}
	_ = resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("httpds: GET %s: %w", url, fs.ErrNotExist)
	}
	return fmt.Errorf("%w %d from GET %s", ErrStatus, resp.StatusCode, url)
}
