package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRaw(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "airbnb_raw.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write raw export: %v", err)
	}
	return p
}

/*
TestLocalOpen_ReadsExport opens a small raw listings export and checks the
bytes come back unchanged, BOM included; stripping it is the parser's job.
*/
func TestLocalOpen_ReadsExport(t *testing.T) {
	t.Parallel()
	const body = "\ufeffid,price\n1,$50\n"
	p := writeRaw(t, body)

	src := NewLocal(p)
	if src.Path() != p {
		t.Fatalf("Path() = %q, want %q", src.Path(), p)
	}
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("content = %q, want %q", got, body)
	}
}

/*
TestLocalOpen_Failures checks the fatal cases the pipeline relies on: a
missing export must stay detectable with errors.Is(os.ErrNotExist), a
cancelled run must not touch the disk, and a directory path is refused.
*/
func TestLocalOpen_Failures(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name     string
		path     func(t *testing.T) string
		ctx      context.Context
		is       error
		contains string
	}{
		{
			name:     "missing_export",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
			ctx:      context.Background(),
			is:       os.ErrNotExist,
			contains: "file: open ",
		},
		{
			name: "cancelled_run",
			path: func(t *testing.T) string { return writeRaw(t, "id\n") },
			ctx:  cancelled,
			is:   context.Canceled,
		},
		{
			name:     "directory",
			path:     func(t *testing.T) string { return t.TempDir() },
			ctx:      context.Background(),
			contains: "is a directory",
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			rc, err := NewLocal(c.path(t)).Open(c.ctx)
			if err == nil {
				rc.Close()
				t.Fatalf("Open succeeded, want error")
			}
			if rc != nil {
				t.Fatalf("got reader alongside error %v", err)
			}
			if c.is != nil && !errors.Is(err, c.is) {
				t.Fatalf("errors.Is(%v, %v) = false", err, c.is)
			}
			if c.contains != "" && !strings.Contains(err.Error(), c.contains) {
				t.Fatalf("error %q missing %q", err, c.contains)
			}
		})
	}
}
