package main

import (
	"errors"
	"fmt"

	"github.com/esolog/logpipeline/internal/index"
)

// Run ingests c.Paths through a bounded worker pool
// (internal/index.Ingester, spec §5), then prints one summary line per
// log path (with its session count), grounded on the teacher's runWorkflow printing one
// result line per step rather than a single final blob.
func (c *RunImportCmd) Run(app *App) error {
	storeRoot, err := app.Cfg.ResolvedLogStoreRoot()
	if err != nil {
		return err
	}

	ix := &index.Ingester{
		StoreRoot: storeRoot,
		Opts: index.IngestOptions{
			Store:             app.StoreOpts,
			MaxUnhandledRatio: app.Cfg.Import.MaxUnhandledLogRatio,
		},
		Workers: c.Workers,
	}
	jobResults := ix.Run(app.Ctx, c.Paths)

	var failed int
	for _, jr := range jobResults {
		if jr.Err != nil {
			if errors.Is(jr.Err, index.ErrTooManyUnhandled) {
				fmt.Fprintf(app.Stdout, "%s: rejected (%d/%d lines unhandled)\n", jr.Path, jr.Result.UnhandledCount, jr.Result.LineCount)
			} else {
				fmt.Fprintf(app.Stdout, "%s: %v\n", jr.Path, jr.Err)
			}
			failed++
			continue
		}
		fmt.Fprintf(app.Stdout, "%s -> %s (%d session(s), %d line(s), %d unhandled)\n",
			jr.Path, jr.Result.StorePath, len(jr.Result.Sessions), jr.Result.LineCount, jr.Result.UnhandledCount)
	}

	if err := app.Index.Refresh(app.Ctx); err != nil {
		return fmt.Errorf("refresh index after import: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d import(s) failed", failed, len(c.Paths))
	}
	return nil
}
