// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a conversion run across a batch of sources:
// per-source or merged output, progress and status reporting, cooperative
// cancellation, and exactly-once cleanup of temporary workspaces.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/comic-forge/internal/encode"
	"github.com/pdiddy/comic-forge/internal/source"
	"github.com/pdiddy/comic-forge/pkg/types"
)

// State is the terminal state of a run.
type State string

const (
	StateCompleted State = "completed"
	StateCanceled  State = "canceled"
	StateFailed    State = "failed"
)

// Reporter receives the run's outward signals: a human-readable status line
// and an integer progress percentage. Implementations must be cheap; they
// are called from the pipeline worker.
type Reporter interface {
	Status(msg string)
	Progress(pct int)
}

type nopReporter struct{}

func (nopReporter) Status(string) {}
func (nopReporter) Progress(int)  {}

// NopReporter discards all events.
func NopReporter() Reporter { return nopReporter{} }

// WriterReporter prints status lines to w and ignores progress.
func WriterReporter(w io.Writer) Reporter { return writerReporter{w} }

type writerReporter struct{ w io.Writer }

func (r writerReporter) Status(msg string) { fmt.Fprintln(r.w, msg) }
func (r writerReporter) Progress(int)      {}

// statusWriter adapts a Reporter into the io.Writer the resolver and
// encoder write their status lines to.
type statusWriter struct{ r Reporter }

func (s statusWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimRight(string(p), "\n"); msg != "" {
		s.r.Status(msg)
	}
	return len(p), nil
}

// RunResult summarizes one conversion run.
type RunResult struct {
	// Artifacts lists the produced output files in production order.
	Artifacts []types.Artifact

	// State is the run's terminal state.
	State State

	Converted int // sources (or the merged pool) encoded into an artifact
	Empty     int // sources that resolved to zero pages
	Failed    int // sources whose encode failed
}

// HasFailures reports whether any source failed to encode.
func (r RunResult) HasFailures() bool { return r.Failed > 0 }

// Runner executes conversion jobs. Exactly one run may be active at a time;
// the job snapshot is immutable for the run's duration.
type Runner struct {
	Resolver *source.Resolver
	Encoder  *encode.Encoder
	Reporter Reporter
}

// Run converts every source in the job. Individual source failures are
// reported and skipped; only run-level failures (invalid job, unusable
// destination) return an error, alongside whatever artifacts already exist.
// Temporary workspaces are removed on every exit path.
func (rn *Runner) Run(ctx context.Context, job types.Job) (RunResult, error) {
	rep := rn.Reporter
	if rep == nil {
		rep = NopReporter()
	}
	defer rn.Resolver.Workspaces.RemoveAll()

	if err := job.Validate(); err != nil {
		return RunResult{State: StateFailed}, fmt.Errorf("invalid job: %w", err)
	}
	if err := os.MkdirAll(job.DestDir, 0o755); err != nil {
		return RunResult{State: StateFailed}, fmt.Errorf("creating destination: %w", err)
	}

	sw := statusWriter{rep}
	total := len(job.Sources)
	var result RunResult
	var merged []string
	canceled := false

	for i, src := range job.Sources {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		rep.Status(fmt.Sprintf("source %d/%d: %s", i+1, total, src.Label))

		pages := rn.Resolver.Resolve(ctx, src, sw)

		if job.Merge {
			merged = append(merged, pages...)
			// Resolution covers the first half of the progress range;
			// the single final encode covers the rest.
			rep.Progress((i + 1) * 50 / total)
			continue
		}

		if len(pages) == 0 {
			rep.Status(fmt.Sprintf("no pages in %s", src.Label))
			result.Empty++
			rep.Progress((i + 1) * 100 / total)
			continue
		}

		dest := filepath.Join(job.DestDir, baseName(src.Label, i)+job.OutputFormat.Extension())
		path, err := rn.Encoder.Encode(ctx, pages, job.OutputFormat, dest, job.Quality, job.Grayscale, sw)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			canceled = true
		case err != nil:
			rep.Status(fmt.Sprintf("failed: %s (%v)", src.Label, err))
			result.Failed++
		case path != "":
			result.Artifacts = append(result.Artifacts, types.Artifact{Path: path})
			result.Converted++
			rep.Status(fmt.Sprintf("created: %s", path))
		}
		if canceled {
			break
		}
		rep.Progress((i + 1) * 100 / total)
	}
	if ctx.Err() != nil {
		canceled = true
	}

	// Merge mode materializes nothing on cancellation: partial pools are
	// discarded rather than encoded.
	if job.Merge && !canceled {
		if len(merged) == 0 {
			rep.Status("no pages in any source")
			result.Empty++
		} else {
			rep.Status(fmt.Sprintf("encoding %d merged pages", len(merged)))
			dest := filepath.Join(job.DestDir, job.OutputName+job.OutputFormat.Extension())
			path, err := rn.Encoder.Encode(ctx, merged, job.OutputFormat, dest, job.Quality, job.Grayscale, sw)
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				canceled = true
			case err != nil:
				rep.Status(fmt.Sprintf("failed: %s (%v)", job.OutputName, err))
				result.Failed++
			case path != "":
				result.Artifacts = append(result.Artifacts, types.Artifact{Path: path})
				result.Converted++
				rep.Status(fmt.Sprintf("created: %s", path))
			}
		}
	}

	if canceled {
		result.State = StateCanceled
		rep.Status("run canceled")
	} else {
		result.State = StateCompleted
		rep.Progress(100)
	}
	return result, nil
}

var digitRuns = regexp.MustCompile(`\d+`)

// baseName derives the per-source output name from the source label: the
// extension and digit runs are stripped, separators trimmed, falling back
// to source<N> when nothing is left.
func baseName(label string, index int) string {
	name := strings.TrimSuffix(label, filepath.Ext(label))
	name = digitRuns.ReplaceAllString(name, "")
	name = strings.Trim(name, "_- ")
	if name == "" {
		return fmt.Sprintf("source%d", index+1)
	}
	return name
}
