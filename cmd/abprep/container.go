// Package main wires the listings A/B preparation pipeline end-to-end. This
// file keeps the CLI layer thin: it depends only on storage-agnostic
// interfaces and never imports database drivers directly.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"abprep/internal/analysis"
	"abprep/internal/config"
	"abprep/internal/datasource"
	"abprep/internal/experiment"
	"abprep/internal/export"
	s3export "abprep/internal/export/s3"
	"abprep/internal/listing"
	"abprep/internal/metrics"
	"abprep/internal/parser"
	csvparser "abprep/internal/parser/csv"
	"abprep/internal/schema"
	"abprep/internal/stats"
	"abprep/internal/storage"
	"abprep/internal/transformer"
	"abprep/internal/transformer/builtin"
	"abprep/pkg/records"
)

// Repository is the storage contract used by runPipeline.
type Repository = storage.Repository

// publisher uploads run outputs. Satisfied by *s3export.Publisher.
type publisher interface {
	Publish(ctx context.Context, fp export.Fingerprint) (string, error)
	PublishReport(ctx context.Context, localPath string) (string, error)
}

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (Repository, error) {
		return storage.New(ctx, cfg)
	}

	openSourceFn = openSource

	newPublisherFn = func(ctx context.Context, cfg s3export.Config) (publisher, error) {
		return s3export.New(ctx, cfg)
	}
)

// runResult summarizes one run for logging and tests.
type runResult struct {
	RunID     string
	Parsed    int
	Malformed int
	Steps     []transformer.StepStat
	Bounds    stats.Bounds
	Groups    experiment.Counts
	Summary   analysis.Summary
	CSV       export.Fingerprint
	TableRows int64
	S3Key     string
	ReportKey string
}

// runPipeline executes ingest, cleaning, feature engineering, the simulated
// experiment, aggregation and persistence in strict sequence on one
// goroutine. The console report is written to out.
//
// Nothing is persisted unless every earlier stage succeeded. The output file
// is staged beside its destination and renamed into place only after the
// table replace commits; a failed replace discards it. The xlsx report is
// written after persistence and the optional publish runs last.
func runPipeline(ctx context.Context, spec config.Pipeline, out io.Writer) (runResult, error) {
	res := runResult{RunID: uuid.NewString()}
	job := spec.Job
	log.Printf("run: id=%s job=%s source=%s storage=%s table=%s",
		res.RunID, job, datasource.Describe(spec.Source), spec.Storage.Kind, spec.Storage.DB.Table)

	// 1) Ingest: read, decode and rename columns.
	var recs []records.Record
	err := timed(job, "ingest", func() error {
		var err error
		recs, res.Malformed, err = ingest(ctx, spec)
		return err
	})
	if err != nil {
		return res, err
	}
	res.Parsed = len(recs)
	metrics.RecordRow(job, "parsed", int64(res.Parsed))
	metrics.RecordRow(job, "malformed", int64(res.Malformed))
	log.Printf("ingest: parsed=%d malformed=%d", res.Parsed, res.Malformed)

	// 2) Normalize, de-duplicate, sanitize prices, drop outliers.
	_ = timed(job, "clean", func() error {
		recs, res.Steps = cleaningSteps(func(b stats.Bounds) { res.Bounds = b }).Run(recs)
		return nil
	})
	for _, st := range res.Steps {
		metrics.RecordRow(job, "dropped_"+st.Name, int64(st.Dropped()))
	}
	log.Printf("iqr: price bounds %s", res.Bounds)

	// 3) Impute and derive features.
	var ls []*listing.Listing
	_ = timed(job, "features", func() error {
		ls = listing.FromRecords(recs, listing.DefaultImputation())
		return nil
	})

	// 4) Assign groups and simulate the treatment.
	err = timed(job, "experiment", func() error {
		policy := experiment.DefaultPolicy()
		policy.Seed = spec.Experiment.Seed
		var err error
		res.Groups, err = experiment.NewSimulator(policy).Run(ls, experiment.NewSource(policy.Seed))
		return err
	})
	if err != nil {
		return res, fmt.Errorf("experiment: %w", err)
	}
	metrics.RecordGroupSize(job, string(listing.GroupA), res.Groups.A)
	metrics.RecordGroupSize(job, string(listing.GroupB), res.Groups.B)

	// 5) Aggregate and report.
	err = timed(job, "aggregate", func() error {
		res.Summary = analysis.Summarize(ls)
		return report(out, spec.Output.TopNeighborhoods, res.Summary)
	})
	if err != nil {
		return res, err
	}
	for _, m := range analysis.Metrics() {
		if lift, err := res.Summary.Lift(m); err == nil {
			metrics.RecordLift(job, m.String(), lift)
		}
	}

	// 6) Persist the same snapshot to the file and the table.
	err = timed(job, "persist", func() error {
		var err error
		res.CSV, res.TableRows, err = persist(ctx, spec, ls)
		return err
	})
	if err != nil {
		return res, err
	}
	metrics.RecordRow(job, "persisted", res.TableRows)
	log.Printf("persist: %s table=%s rows=%d", res.CSV, spec.Storage.DB.Table, res.TableRows)

	// 7) Optional workbook.
	if spec.Output.Report != "" {
		err = timed(job, "workbook", func() error {
			if err := analysis.WriteWorkbook(spec.Output.Report, res.Summary); err != nil {
				return fmt.Errorf("report: %w", err)
			}
			log.Printf("report: wrote %s", spec.Output.Report)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	// 8) Optional publish.
	if spec.Publish.S3.Bucket != "" {
		err = timed(job, "publish", func() error {
			var err error
			res.S3Key, res.ReportKey, err = publish(ctx, spec.Publish.S3, res.CSV, spec.Output.Report)
			return err
		})
		if err != nil {
			return res, err
		}
		log.Printf("publish: s3://%s/%s", spec.Publish.S3.Bucket, res.S3Key)
	}

	logRunSummary(res)
	return res, nil
}

// timed runs fn and records its duration and outcome under step.
func timed(job, step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, step, err, time.Since(start))
	return err
}

func openSource(ctx context.Context, spec config.Pipeline) (io.ReadCloser, error) {
	src, err := datasource.New(spec.Source)
	if err != nil {
		return nil, err
	}
	return src.Open(ctx)
}

// ingest opens the source and parses it into canonical records.
func ingest(ctx context.Context, spec config.Pipeline) ([]records.Record, int, error) {
	p, err := buildParser(spec.Parser)
	if err != nil {
		return nil, 0, err
	}
	rc, err := openSourceFn(ctx, spec)
	if err != nil {
		return nil, 0, fmt.Errorf("ingest: %w", err)
	}
	defer rc.Close()

	recs, malformed, err := p.Parse(rc)
	if errors.Is(err, csvparser.ErrEmptyInput) {
		log.Printf("ingest: %s has no header row, continuing with zero listings", datasource.Describe(spec.Source))
		return nil, 0, nil
	}
	if err != nil {
		return nil, malformed, fmt.Errorf("ingest: %w", err)
	}
	return recs, malformed, nil
}

// buildParser maps parser configuration into the CSV parser.
func buildParser(p config.Parser) (parser.Parser, error) {
	if p.Kind != "csv" {
		return nil, fmt.Errorf("unsupported parser.kind=%s", p.Kind)
	}
	mapping := schema.DefaultMapping()
	if hm := p.Options.StringMap("header_map"); len(hm) > 0 {
		var err error
		if mapping, err = mapping.With(hm); err != nil {
			return nil, fmt.Errorf("parser.options.header_map: %w", err)
		}
	}
	return csvparser.NewParser(csvparser.Options{
		Comma:     p.Options.Rune("comma", ','),
		TrimSpace: p.Options.Bool("trim_space", false),
		Encoding:  p.Options.String("encoding", ""),
		Mapping:   mapping,
	}), nil
}

// cleaningSteps returns the ordered schema and price stages. Normalization
// runs first so that ids differing only in whitespace de-duplicate together.
func cleaningSteps(reportBounds func(stats.Bounds)) transformer.Steps {
	id := schema.ListingID.String()
	price := schema.Price.String()

	required := make([]string, 0, len(schema.RequiredPerRow()))
	for _, f := range schema.RequiredPerRow() {
		required = append(required, f.String())
	}

	return transformer.Steps{
		{Name: "normalize", T: builtin.Normalize{}},
		{Name: "dedup", T: builtin.DeDup{Keys: []string{id}}},
		{Name: "require", T: builtin.Require{Fields: required}},
		{Name: "currency", T: builtin.Currency{Field: price}},
		{Name: "positive", T: builtin.Positive{Field: price}},
		{Name: "iqr", T: builtin.IQRFilter{Field: price, K: 1.5, Report: reportBounds}},
	}
}

// report prints the console summary and, when configured, the workbook.
func report(out io.Writer, topN int, s analysis.Summary) error {
	if topN <= 0 {
		topN = analysis.DefaultTopN
	}
	if out == nil {
		return nil
	}
	if err := analysis.WriteTable(out, s, topN); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// persist materializes the rows once, stages them as the output file, then
// replaces the table. The staged file is renamed into place only after the
// table commits and is discarded when the replace fails.
func persist(ctx context.Context, spec config.Pipeline, ls []*listing.Listing) (export.Fingerprint, int64, error) {
	columns := listing.Columns()
	rows := listing.Rows(ls)

	staged, err := export.Stage(spec.Output.CSV, columns, rows)
	if err != nil {
		return export.Fingerprint{}, 0, fmt.Errorf("persist: %w", err)
	}

	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:      spec.Storage.Kind,
		DSN:       spec.Storage.DB.DSN,
		Table:     spec.Storage.DB.Table,
		BatchSize: spec.Storage.DB.BatchSize,
	})
	if err != nil {
		staged.Abort()
		return export.Fingerprint{}, 0, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	inserted, err := repo.ReplaceTable(ctx, listing.TableDef(spec.Storage.DB.Table), rows)
	if err != nil {
		staged.Abort()
		return export.Fingerprint{}, 0, fmt.Errorf("persist: replace table %s: %w", spec.Storage.DB.Table, err)
	}

	// The table is committed; a failed rename leaves the previous file.
	fp, err := staged.Commit()
	if err != nil {
		return export.Fingerprint{}, inserted, fmt.Errorf("persist: %w", err)
	}
	return fp, inserted, nil
}

// publish uploads the committed CSV and, when one was written, the xlsx
// report. The two uploads are independent and run concurrently.
func publish(ctx context.Context, cfg config.S3, fp export.Fingerprint, reportPath string) (string, string, error) {
	pub, err := newPublisherFn(ctx, s3export.Config{
		Bucket:         cfg.Bucket,
		Prefix:         cfg.Prefix,
		Region:         cfg.Region,
		Endpoint:       cfg.Endpoint,
		ForcePathStyle: cfg.ForcePathStyle,
	})
	if err != nil {
		return "", "", fmt.Errorf("publish: %w", err)
	}

	var csvKey, reportKey string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		csvKey, err = pub.Publish(gctx, fp)
		return err
	})
	if reportPath != "" {
		g.Go(func() error {
			var err error
			reportKey, err = pub.PublishReport(gctx, reportPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", fmt.Errorf("publish: %w", err)
	}
	return csvKey, reportKey, nil
}

// logRunSummary prints the end-of-run figures.
func logRunSummary(r runResult) {
	s := r.Summary
	log.Printf("summary: run=%s listings=%d mean_price=%.2f mean_bookings=%.2f",
		r.RunID, s.Total, s.MeanPrice, s.MeanBookings)
	log.Printf("summary: booking_rate A=%.4f B=%.4f", s.A.MeanBookingRate, s.B.MeanBookingRate)
	for _, m := range analysis.Metrics() {
		lift, err := s.Lift(m)
		switch {
		case errors.Is(err, analysis.ErrUndefinedLift):
			log.Printf("summary: lift %s undefined", m)
		case err == nil:
			log.Printf("summary: lift %s=%.2f%%", m, lift)
		}
	}
	for _, rt := range s.RoomTypes {
		log.Printf("summary: room_type %q count=%d A=%d B=%d", rt.RoomType, rt.Count, rt.A, rt.B)
	}
}
