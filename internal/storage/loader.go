package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn inserts one batch of rows (aligned to columns) and returns the number
// of rows it reports as inserted. It runs inside the caller's transaction.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// InsertBatches splits rows into batches of batchSize and calls copyFn for
// each, stopping at the first error or cancellation. It returns the running
// total of inserted rows. A progress line is logged per batch.
func InsertBatches(
	ctx context.Context,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total   int64
		batches int
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))
		batchStart := time.Now()
		n, err := copyFn(ctx, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Printf("loader: batch failed after=%d total=%d err=%v", n, total, err)
			return total, err
		}
		batches++

		rps := float64(0)
		if d := time.Since(batchStart); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Printf("batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			batches, rps, n, total, time.Since(start).Truncate(time.Millisecond))
	}
	return total, nil
}
