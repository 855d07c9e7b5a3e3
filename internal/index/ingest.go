package index

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/logsession"
	"github.com/esolog/logpipeline/internal/store"
)

// ErrTooManyUnhandled is returned by Ingest when the fraction of lines
// that produced no recognised record exceeds MaxUnhandledRatio
// (`[import] max_unhandled_log_ratio` in esoctl.toml). A log this noisy
// is more likely to be the wrong file format than a log with a few
// future record types sprinkled in, so the import is rejected rather
// than silently committed.
var ErrTooManyUnhandled = errors.New("index: unhandled line ratio exceeds configured threshold")

// IngestOptions configures one Ingest call.
type IngestOptions struct {
	Store              store.Options
	MaxUnhandledRatio   float64 // 0 disables the check
}

// Result summarises one completed import.
type Result struct {
	StorePath    string
	Sessions     []logmodel.Session
	LineCount    int
	UnhandledCount int
}

// Ingest reads logPath line by line, drives it through the session/fight
// state machine (internal/logsession), and writes the result to a fresh
// per-log store under storeRoot (spec's data-flow: "lines → framer →
// tokeniser → session builder → fight builder → store writer").
func Ingest(ctx context.Context, storeRoot, logPath string, opts IngestOptions) (Result, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return Result{}, fmt.Errorf("open log file %s: %w", logPath, err)
	}
	defer f.Close()

	b := logsession.NewBuilder()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		if lineCount%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("ingest cancelled: %w", err)
			}
		}
		b.Process(scanner.Text())
		lineCount++
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read log file %s: %w", logPath, err)
	}
	b.Finalize()

	sessions := b.Sessions()
	unhandled := 0
	for _, s := range sessions {
		for _, n := range s.UnhandledCounts {
			unhandled += n
		}
	}
	if opts.MaxUnhandledRatio > 0 && lineCount > 0 {
		if ratio := float64(unhandled) / float64(lineCount); ratio > opts.MaxUnhandledRatio {
			return Result{LineCount: lineCount, UnhandledCount: unhandled}, ErrTooManyUnhandled
		}
	}

	finalPath, err := store.Import(ctx, storeRoot, logPath, sessions, b.FightRecords(), opts.Store)
	if err != nil {
		return Result{}, err
	}

	return Result{
		StorePath:      finalPath,
		Sessions:       sessions,
		LineCount:      lineCount,
		UnhandledCount: unhandled,
	}, nil
}
