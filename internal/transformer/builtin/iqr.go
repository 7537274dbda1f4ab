package builtin

import (
	"log"

	"abprep/internal/stats"
	"abprep/pkg/records"
)

// IQRFilter drops records whose Field lies outside
// [Q1 - K*IQR, Q3 + K*IQR]. The quartiles are computed on the batch it is
// given, before any row is removed. Batches smaller than stats.MinIQRSample
// pass unchanged. Field is expected to hold float64 values (see Currency and
// Positive); records without one are dropped.
type IQRFilter struct {
	Field string
	K     float64 // default 1.5

	// Report, when set, receives the bounds that were applied.
	Report func(stats.Bounds)
}

func (f IQRFilter) Apply(in []records.Record) []records.Record {
	k := f.K
	if k <= 0 {
		k = 1.5
	}
	values := make([]float64, 0, len(in))
	for _, r := range in {
		if v, ok := r[f.Field].(float64); ok {
			values = append(values, v)
		}
	}
	b := stats.IQRBounds(values, k)
	if f.Report != nil {
		f.Report(b)
	}
	if !b.Applied {
		log.Printf("iqr: %s sample=%d below %d, filter skipped", f.Field, len(values), stats.MinIQRSample)
	}

	out := in[:0]
	for _, r := range in {
		v, ok := r[f.Field].(float64)
		if !ok || !b.Contains(v) {
			continue
		}
		out = append(out, r)
	}
	return out
}
