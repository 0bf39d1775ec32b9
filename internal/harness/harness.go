package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/loader"
	"github.com/roach88/scriptc/internal/pipeline"
	"github.com/roach88/scriptc/internal/store"
	"github.com/roach88/scriptc/internal/testutil"
)

// Harness compiles scenarios against an isolated store.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialIDGenerator
	logger *slog.Logger
}

// New creates a harness with a fresh in-memory store. Pass nil to discard
// harness logs.
func New(logger *slog.Logger) (*Harness, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := testutil.NewDeterministicClock()
	ids := testutil.NewSequentialIDGenerator("build")
	st, err := store.Open(store.MemoryPath, store.WithClock(clock), store.WithIDGenerator(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	return &Harness{store: st, clock: clock, ids: ids, logger: logger}, nil
}

// Close releases the harness store.
func (h *Harness) Close() error {
	return h.store.Close()
}

// Run executes a scenario in a fresh harness and returns the result.
//
// Execution flow:
//  1. Load and statically validate the program
//  2. Compile it through the artifact store
//  3. Compile it again, once uncached and once through the store
//  4. Evaluate assertions
//
// A compile failure is an outcome, not an error: it is recorded in the
// result for fails_with to inspect. Run returns an error only when the
// scenario cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(nil)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.Run(context.Background(), scenario)
}

// Run executes a scenario against h's store.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	prog, err := loader.LoadFile(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	d, err := pipeline.DialectFor(prog, scenario.Dialect)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Program = prog.Name
	result.Dialect = d.Name
	result.Validation = loader.Validate(prog)
	result.Cycles = loader.AnalyzeCycles(prog)

	h.logger.Debug("running scenario",
		"scenario", scenario.Name,
		"program", prog.Name,
		"dialect", d.Name)

	art, _, err := pipeline.CompileCached(ctx, h.store, prog, d)
	if err != nil {
		var cacheErr *pipeline.CacheError
		if errors.As(err, &cacheErr) {
			return nil, err
		}
		result.Err = err
		result.Code = diag.CodeOf(err)
	} else {
		fresh, err := pipeline.Compile(prog, d)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: recompile: %w", scenario.Name, err)
		}
		// A hit from an earlier run carries bytes only.
		if art.Term == nil {
			art.Term, art.Resolved = fresh.Term, fresh.Resolved
		}
		result.Artifact = art
		result.Recompiled = fresh

		again, hit, err := pipeline.CompileCached(ctx, h.store, prog, d)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: recompile: %w", scenario.Name, err)
		}
		result.CacheHit = hit && bytes.Equal(again.Bytes, art.Bytes)
	}

	builds, err := h.store.Builds(ctx, prog.Name)
	if err != nil {
		return nil, err
	}
	result.Builds = builds

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))
	return result, nil
}
