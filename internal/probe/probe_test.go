package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"abprep/internal/config"
	"abprep/internal/datasource/file"
	"abprep/internal/datasource/httpds"
	"abprep/internal/schema"
)

const semicolonSample = "" +
	"\ufeffID;NAME;Host ID;Neighbourhood;room type;price;instant_bookable\n" +
	"1;Cozy flat;h1;Harlem;Private room;$1,142;TRUE\n" +
	"2;Loft;h2;;Entire home/apt;$80;FALSE\n" +
	"3;bad;row\n" +
	"4;Studio;h3;Chelsea;Private room;$95;TRUE\n" +
	"5;trunc" // no trailing newline: cut from the sample

// TestSniffDelimiter checks the candidates and the comma fallback.
func TestSniffDelimiter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want rune
	}{
		{"a,b,c\n1,2,3\n", ','},
		{"a;b;c\n1;2,5;3\n", ';'},
		{"a\tb\n1\t2\n", '\t'},
		{"a|b|c\n1|2|3\n", '|'},
		{"single\nvalue\n", ','},
	}
	for _, tc := range cases {
		if got := SniffDelimiter([]byte(tc.in)); got != tc.want {
			t.Fatalf("SniffDelimiter(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

// TestProbeBytes_SuggestsHeaderMap verifies default-mapped headers resolve
// directly while normalized matches are flagged for header_map.
func TestProbeBytes_SuggestsHeaderMap(t *testing.T) {
	t.Parallel()

	res, err := ProbeBytes([]byte(semicolonSample), Options{})
	if err != nil {
		t.Fatalf("ProbeBytes: %v", err)
	}
	if res.Delimiter != ';' {
		t.Fatalf("delimiter = %q; want ';'", res.Delimiter)
	}
	if res.Rows != 3 {
		t.Fatalf("rows = %d; want 3 (short row skipped)", res.Rows)
	}
	if len(res.Missing) != 0 {
		t.Fatalf("missing = %v; want none", res.Missing)
	}

	wantMap := map[string]string{
		"ID":            "listing_id",
		"Host ID":       "host_id",
		"Neighbourhood": "neighborhood",
	}
	if got := res.HeaderMap(); !reflect.DeepEqual(got, wantMap) {
		t.Fatalf("HeaderMap = %v; want %v", got, wantMap)
	}

	byHeader := map[string]Column{}
	for _, c := range res.Columns {
		byHeader[c.Header] = c
	}
	if c := byHeader["price"]; c.Field != "price" || c.Suggested || c.Type != "money" {
		t.Fatalf("price column = %+v", c)
	}
	if c := byHeader["instant_bookable"]; c.Type != "boolean" {
		t.Fatalf("instant_bookable type = %q; want boolean", c.Type)
	}
	if c := byHeader["Neighbourhood"]; c.Empty != 1 || c.Normalized != "neighbourhood" {
		t.Fatalf("neighbourhood column = %+v", c)
	}
	if c := byHeader["ID"]; c.Type != "integer" {
		t.Fatalf("ID type = %q; want integer", c.Type)
	}

	// The suggestion is accepted by the mapping and resolves cleanly.
	m, err := schema.DefaultMapping().With(res.HeaderMap())
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	headers := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		headers[i] = c.Header
	}
	if _, err := m.Resolve(headers); err != nil {
		t.Fatalf("Resolve with suggested map: %v", err)
	}
}

// TestProbeBytes_Missing reports absent mandatory columns.
func TestProbeBytes_Missing(t *testing.T) {
	t.Parallel()

	res, err := ProbeBytes([]byte("id,room type\n1,Private room\n"), Options{})
	if err != nil {
		t.Fatalf("ProbeBytes: %v", err)
	}
	if !reflect.DeepEqual(res.Missing, []string{"price"}) {
		t.Fatalf("missing = %v; want [price]", res.Missing)
	}

	if _, err := ProbeBytes(nil, Options{}); err == nil {
		t.Fatalf("expected error for empty sample")
	}
}

// TestProbe_LocalFileRespectsMaxBytes reads only the sampled prefix.
func TestProbe_LocalFileRespectsMaxBytes(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("id,room type,price\n")
	for i := 0; i < 500; i++ {
		b.WriteString("1,Private room,50\n")
	}
	path := filepath.Join(t.TempDir(), "raw.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := Probe(context.Background(), file.NewLocal(path), Options{MaxBytes: 200})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Rows == 0 || res.Rows >= 500 {
		t.Fatalf("rows = %d; want a partial sample", res.Rows)
	}

	if _, err := Probe(context.Background(), file.NewLocal(filepath.Join(t.TempDir(), "nope.csv")), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// TestProbe_HTTPUsesRange samples a remote export with a ranged request.
func TestProbe_HTTPUsesRange(t *testing.T) {
	t.Parallel()

	var sawRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRange = r.Header.Get("Range")
		_, _ = io.WriteString(w, "id,room type,price\n1,Private room,$50\n2,Shared room,$30\n")
	}))
	defer srv.Close()

	res, err := Probe(context.Background(), httpds.NewSource(srv.URL, httpds.Config{}), Options{MaxBytes: 1024})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if sawRange != "bytes=0-1023" {
		t.Fatalf("Range = %q", sawRange)
	}
	if res.Rows != 2 || len(res.Missing) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

// TestWriteTableAndJSON checks both renderings.
func TestWriteTableAndJSON(t *testing.T) {
	t.Parallel()

	res, err := ProbeBytes([]byte(semicolonSample), Options{})
	if err != nil {
		t.Fatalf("ProbeBytes: %v", err)
	}

	var tbl bytes.Buffer
	if err := WriteTable(&tbl, res); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if !strings.Contains(tbl.String(), "host_id (header_map)") {
		t.Fatalf("table missing suggestion marker:\n%s", tbl.String())
	}

	var js bytes.Buffer
	if err := WriteJSON(&js, res, config.Defaults()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var p config.Pipeline
	if err := json.Unmarshal(js.Bytes(), &p); err != nil {
		t.Fatalf("decode suggested config: %v", err)
	}
	if got := p.Parser.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("comma = %q; want ';'", got)
	}
	if got := p.Parser.Options.StringMap("header_map")["Host ID"]; got != "host_id" {
		t.Fatalf("header_map[Host ID] = %q", got)
	}
	if p.Storage.DB.Table != "listings" {
		t.Fatalf("base config not preserved: %+v", p.Storage)
	}
}
