// Package config defines the configuration model for the abprep pipeline. A
// pipeline file is JSON or TOML (by extension) and maps onto Pipeline.
//
// Example (trimmed):
//
//	{
//	  "job":        "airbnb-ab",
//	  "source":     { "kind": "file", "file": { "path": "data/airbnb_raw.csv" } },
//	  "parser":     { "kind": "csv", "options": { "comma": ",", "header_map": { "listing id": "listing_id" } } },
//	  "experiment": { "seed": 42 },
//	  "storage":    { "kind": "sqlite", "db": { "dsn": "data/airbnb_ab_test.db", "table": "listings" } },
//	  "output":     { "csv": "data/airbnb_clean.csv", "report": "data/ab_report.xlsx" }
//	}
package config

import "encoding/json"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" toml:"job"`

	// Source describes where input data comes from (e.g., local file).
	Source Source `json:"source" toml:"source"`

	// Parser configures how raw bytes are turned into records (e.g., CSV).
	Parser Parser `json:"parser" toml:"parser"`

	Experiment Experiment `json:"experiment" toml:"experiment"`

	// Storage describes the relational sink the cleaned table is written to.
	Storage Storage `json:"storage" toml:"storage"`

	Output  Output  `json:"output" toml:"output"`
	Publish Publish `json:"publish" toml:"publish"`
	Metrics Metrics `json:"metrics" toml:"metrics"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind" toml:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file" toml:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http" toml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path" toml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL of the raw listings export.
	URL string `json:"url" toml:"url"`

	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int `json:"max_retries" toml:"max_retries"`

	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool `json:"insecure_skip_verify" toml:"insecure_skip_verify"`
}

// Parser selects how to parse the raw source into logical rows/columns.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" toml:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, recognized keys are:
	//   comma (string), trim_space (bool), encoding (string),
	//   header_map (object: source header -> canonical column)
	Options Options `json:"options" toml:"options"`
}

// Experiment carries the knobs of the simulation that are exposed to users.
type Experiment struct {
	// Seed drives group assignment and booking-rate draws.
	Seed uint64 `json:"seed" toml:"seed"`
}

// Storage selects the sink used to persist the cleaned table.
type Storage struct {
	// Kind selects the backend registered with the storage package:
	// "sqlite", "postgres" or "mssql".
	Kind string   `json:"kind" toml:"kind"`
	DB   DBConfig `json:"db" toml:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the backend connection string or, for sqlite, a file path.
	DSN string `json:"dsn" toml:"dsn"`

	// Table is the table name, optionally schema-qualified ("dbo.listings").
	// The table is dropped and recreated on every run.
	Table string `json:"table" toml:"table"`

	// BatchSize is the number of rows per insert batch. Zero uses the
	// backend default.
	BatchSize int `json:"batch_size" toml:"batch_size"`
}

// Output names the files a run writes.
type Output struct {
	// CSV is the cleaned dataset path. Required.
	CSV string `json:"csv" toml:"csv"`

	// Report is an optional .xlsx summary workbook path.
	Report string `json:"report" toml:"report"`

	// TopNeighborhoods caps the neighborhood section of the console report.
	TopNeighborhoods int `json:"top_neighborhoods" toml:"top_neighborhoods"`
}

// Publish configures optional uploads of the cleaned CSV.
type Publish struct {
	S3 S3 `json:"s3" toml:"s3"`
}

// S3 configures the S3 upload. An empty Bucket disables publishing.
type S3 struct {
	Bucket   string `json:"bucket" toml:"bucket"`
	Prefix   string `json:"prefix" toml:"prefix"`
	Region   string `json:"region" toml:"region"`
	Endpoint string `json:"endpoint" toml:"endpoint"`

	// ForcePathStyle is needed by most S3-compatible stores (MinIO).
	ForcePathStyle bool `json:"force_path_style" toml:"force_path_style"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none" (default), "prometheus" or "datadog".
	Backend        string `json:"backend" toml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" toml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" toml:"datadog_addr"`
}

// Options is a small helper to fetch typed values from free-form maps
// decoded from JSON or TOML. It performs only minimal type coercion and
// returns the provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and TOML integers as int64; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
