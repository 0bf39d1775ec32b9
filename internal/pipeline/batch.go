package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
)

// DefaultLimit bounds concurrent compiles when CompileAll is given no limit.
const DefaultLimit = 8

// Job is one program to compile.
type Job struct {
	Program *ir.Program
	Dialect *dialect.Descriptor
}

// Result is the outcome of one Job. Exactly one of Artifact and Err is set.
type Result struct {
	Job      Job
	Artifact *Artifact
	Err      error
}

// CompileAll compiles independent jobs concurrently, at most limit at a
// time. Results are in job order. A failing job does not stop the others;
// its error is recorded in its Result.
//
// Cancelling ctx prevents jobs that have not started from running: they get
// ctx.Err() as their error, and CompileAll returns ctx.Err().
func CompileAll(ctx context.Context, jobs []Job, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		results[i].Job = job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Artifact, results[i].Err = Compile(job.Program, job.Dialect)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	slog.Debug("batch compiled", "jobs", len(jobs), "failed", failed)

	return results, ctx.Err()
}
