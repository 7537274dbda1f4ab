package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ABPREP_"

// Defaults returns the pipeline used when no file is given. Paths match the
// original data layout under data/.
func Defaults() Pipeline {
	return Pipeline{
		Job:        "airbnb-ab",
		Source:     Source{Kind: "file", File: SourceFile{Path: "data/airbnb_raw.csv"}},
		Parser:     Parser{Kind: "csv", Options: Options{"comma": ",", "trim_space": false}},
		Experiment: Experiment{Seed: 42},
		Storage: Storage{
			Kind: "sqlite",
			DB:   DBConfig{DSN: "data/airbnb_ab_test.db", Table: "listings"},
		},
		Output:  Output{CSV: "data/airbnb_clean.csv", TopNeighborhoods: 10},
		Metrics: Metrics{Backend: "none"},
	}
}

// Load builds a Pipeline from Defaults, the file at path (skipped when path is
// empty) and ABPREP_* environment variables, in that order of precedence.
// A .env file in the working directory is loaded first when present; it never
// overrides variables already set in the process environment.
func Load(path string) (Pipeline, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Pipeline{}, fmt.Errorf("config: load .env: %w", err)
	}

	p := Defaults()
	if path != "" {
		if err := decodeFile(path, &p); err != nil {
			return Pipeline{}, err
		}
	}
	if err := ApplyEnv(&p, os.LookupEnv); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// decodeFile decodes path over p, so keys absent from the file keep their
// current values. ".toml" files use TOML; everything else is JSON.
func decodeFile(path string, p *Pipeline) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(b), p)
		if err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			log.Printf("config: ignoring unknown keys in %s: %v", path, undec)
		}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(p); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides p with ABPREP_* variables returned by lookup. Empty
// values are ignored.
func ApplyEnv(p *Pipeline, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	strs := []struct {
		name string
		dst  *string
	}{
		{"JOB", &p.Job},
		{"SOURCE_KIND", &p.Source.Kind},
		{"SOURCE_PATH", &p.Source.File.Path},
		{"SOURCE_URL", &p.Source.HTTP.URL},
		{"OUTPUT_CSV", &p.Output.CSV},
		{"OUTPUT_REPORT", &p.Output.Report},
		{"STORAGE_KIND", &p.Storage.Kind},
		{"STORAGE_DSN", &p.Storage.DB.DSN},
		{"STORAGE_TABLE", &p.Storage.DB.Table},
		{"S3_BUCKET", &p.Publish.S3.Bucket},
		{"S3_PREFIX", &p.Publish.S3.Prefix},
		{"S3_REGION", &p.Publish.S3.Region},
		{"S3_ENDPOINT", &p.Publish.S3.Endpoint},
		{"METRICS_BACKEND", &p.Metrics.Backend},
		{"PUSHGATEWAY_URL", &p.Metrics.PushgatewayURL},
		{"DATADOG_ADDR", &p.Metrics.DatadogAddr},
	}
	for _, s := range strs {
		if v, ok := get(s.name); ok {
			*s.dst = v
		}
	}
	if v, ok := get("SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sSEED=%q: %w", EnvPrefix, v, err)
		}
		p.Experiment.Seed = seed
	}
	if v, ok := get("BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sBATCH_SIZE=%q: %w", EnvPrefix, v, err)
		}
		p.Storage.DB.BatchSize = n
	}
	return nil
}
