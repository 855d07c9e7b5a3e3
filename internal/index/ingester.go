package index

import (
	"context"
	"sync"

	"github.com/esolog/logpipeline/internal/telemetry"
)

// IngestJobResult is one path's outcome from an Ingester run.
type IngestJobResult struct {
	Path   string
	Result Result
	Err    error
}

// Ingester runs Ingest over many log paths with a bounded pool of
// worker goroutines reading off one job channel (spec §5, "per-log
// ingestion goroutines are launched with a bounded worker pool"),
// grounded on the examples pack's worker-pool.go Pool: a fixed
// WorkerCount of goroutines draining a channel, wg.Wait at shutdown.
// Unlike that pool, jobs here aren't batched — each path is a full,
// independent Ingest call writing its own per-log SQLite store, so
// there's no shared batch to flush.
type Ingester struct {
	StoreRoot string
	Opts      IngestOptions
	Workers   int // <= 0 defaults to 4
}

// Run ingests every path in paths, at most ix.Workers at a time, and
// returns one IngestJobResult per path in the same order as paths
// (not completion order), so callers can report progress
// deterministically regardless of which worker finished first.
func (ix *Ingester) Run(ctx context.Context, paths []string) []IngestJobResult {
	results := make([]IngestJobResult, len(paths))
	if len(paths) == 0 {
		return results
	}

	workers := ix.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				jobCtx, span := telemetry.StartImport(ctx, paths[i])
				result, err := Ingest(jobCtx, ix.StoreRoot, paths[i], ix.Opts)
				telemetry.End(span, err)
				results[i] = IngestJobResult{Path: paths[i], Result: result, Err: err}
			}
		}()
	}

	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = IngestJobResult{Path: paths[i], Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
