// Package transfer applies a copy or link operation to a resolved list of
// path pairs. Individual failures are recorded and counted, never fatal:
// every pair is always attempted, and the caller gets an aggregate report.
package transfer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/osulift/osulift/pkg/resolve"
)

// 🎛️ Mode selects how a file is materialized at its destination.
type Mode int

const (
	// ModeSymlink links the destination to the content store. The default.
	ModeSymlink Mode = iota
	// ModeCopy duplicates the file bytes into the destination.
	ModeCopy
)

// String returns a string representation of Mode
func (m Mode) String() string {
	if m == ModeCopy {
		return "copy"
	}
	return "symlink"
}

// ParseMode maps user input to a Mode. Only "copy" selects copying;
// everything else deliberately falls back to symlink so an unrecognized
// value never silently duplicates a multi-gigabyte library.
func ParseMode(s string) Mode {
	if s == "copy" {
		return ModeCopy
	}
	return ModeSymlink
}

// 📈 ProgressFunc receives coarse progress updates: pairs attempted so far
// (success or failure) out of the total.
type ProgressFunc func(completed, total int)

// ❗ Failure records one pair that could not be transferred.
type Failure struct {
	Source string
	Dest   string
	Err    error
}

// 📊 Report summarizes a run. Completed counts every attempted pair, so a
// finished run always has Completed == len(pairs) regardless of Errors.
type Report struct {
	Completed int
	Errors    int
	Failures  []Failure
}

// 🔧 Options configures an Executor.
type Options struct {
	// Mode selects copy or symlink. Zero value is ModeSymlink.
	Mode Mode
	// Workers bounds the worker pool. Values below 2 mean sequential.
	Workers int
	// Progress is notified every ProgressEvery pairs and once at the end.
	// May be nil.
	Progress ProgressFunc
	// ProgressEvery is the notification interval. Values below 1 default
	// to 25.
	ProgressEvery int
}

// 🏃 Executor runs the transfer phase over a materialized pair list.
type Executor struct {
	mode     Mode
	workers  int
	progress ProgressFunc
	every    int
}

// 🏭 New creates an Executor.
func New(opts Options) *Executor {
	every := opts.ProgressEvery
	if every < 1 {
		every = 25
	}
	return &Executor{
		mode:     opts.Mode,
		workers:  opts.Workers,
		progress: opts.Progress,
		every:    every,
	}
}

// Run applies the configured operation to every pair. Per-pair failures are
// logged with full context and collected in the report; the only error
// returned is context cancellation. Re-running over the same list is safe:
// an existing destination counts as already satisfied.
func (e *Executor) Run(ctx context.Context, pairs []resolve.Pair) (Report, error) {
	logger := zerolog.Ctx(ctx)
	total := len(pairs)

	var completed, errCount atomic.Int64
	var mu sync.Mutex
	var failures []Failure

	record := func(p resolve.Pair, err error) {
		if err != nil {
			errCount.Add(1)
			mu.Lock()
			failures = append(failures, Failure{Source: p.Source, Dest: p.Dest, Err: err})
			mu.Unlock()
			logger.Error().
				Str("source", p.Source).
				Str("dest", p.Dest).
				Err(err).
				Msg("transfer failed")
		}
		done := int(completed.Add(1))
		if e.progress != nil && (done%e.every == 0 || done == total) {
			e.progress(done, total)
		}
	}

	if e.workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for _, p := range pairs {
			p := p
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				record(p, e.transferOne(p))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return e.report(&completed, &errCount, failures), errors.Errorf("transfer interrupted: %w", err)
		}
	} else {
		for _, p := range pairs {
			if err := ctx.Err(); err != nil {
				return e.report(&completed, &errCount, failures), errors.Errorf("transfer interrupted: %w", err)
			}
			record(p, e.transferOne(p))
		}
	}

	return e.report(&completed, &errCount, failures), nil
}

func (e *Executor) report(completed, errCount *atomic.Int64, failures []Failure) Report {
	return Report{
		Completed: int(completed.Load()),
		Errors:    int(errCount.Load()),
		Failures:  failures,
	}
}

// transferOne ensures one destination file exists, via copy or link.
func (e *Executor) transferOne(p resolve.Pair) error {
	// MkdirAll is idempotent, so concurrent workers sharing a set folder
	// cannot trip over each other here.
	if err := os.MkdirAll(filepath.Dir(p.Dest), 0755); err != nil {
		return errors.Errorf("creating parent directory: %w", err)
	}

	// An existing destination means a prior run already materialized this
	// file. Lstat so dangling symlinks still count as present.
	if _, err := os.Lstat(p.Dest); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Errorf("checking destination: %w", err)
	}

	if e.mode == ModeCopy {
		return copyFile(p.Source, p.Dest)
	}
	return linkFile(p.Source, p.Dest)
}

// copyFile duplicates the source bytes at dst. A failed copy removes the
// partial destination: re-running the pipeline is the retry mechanism, and
// it would mistake a leftover truncated file for an already-migrated one.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Errorf("copying file content: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return errors.Errorf("closing destination file: %w", err)
	}

	return nil
}

// linkFile creates a symlink at dst pointing at src, falling back to a hard
// link when symlink creation is unavailable (e.g. unprivileged Windows).
// If neither primitive works the pair is a genuine error.
func linkFile(src, dst string) error {
	// The content store must actually hold the blob: a symlink to a
	// missing file would only defer the failure to the legacy client.
	if _, err := os.Stat(src); err != nil {
		return errors.Errorf("checking source file: %w", err)
	}

	symErr := os.Symlink(src, dst)
	if symErr == nil {
		return nil
	}
	if linkErr := os.Link(src, dst); linkErr != nil {
		return errors.Errorf("creating hard link: %w (symlink unavailable: %v)", linkErr, symErr)
	}
	return nil
}
