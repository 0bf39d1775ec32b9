package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/store"
)

// Cache is the artifact store CompileCached reads and writes.
// *store.Store implements it.
type Cache interface {
	GetArtifact(ctx context.Context, programHash, dialect string) (store.Artifact, bool, error)
	PutArtifact(ctx context.Context, a store.Artifact) error
	RecordBuild(ctx context.Context, b store.Build) (store.Build, error)
}

// CacheError wraps a failure of the cache itself, as opposed to a failure
// of the program being compiled.
type CacheError struct {
	Err error
}

func (e *CacheError) Error() string { return "artifact cache: " + e.Err.Error() }

func (e *CacheError) Unwrap() error { return e.Err }

// CompileCached is Compile behind a cache keyed by ProgramHash and dialect.
// The boolean reports a cache hit; a hit carries Bytes and hashes but no
// Term or Resolved. Every attempt, failed ones included, is logged as a
// build.
func CompileCached(ctx context.Context, c Cache, p *ir.Program, d *dialect.Descriptor) (*Artifact, bool, error) {
	if p == nil || d == nil {
		a, err := Compile(p, d)
		return a, false, err
	}
	version := d.Version.String()
	programHash, err := ir.ProgramHash(p, version)
	if err != nil {
		return nil, false, fmt.Errorf("compile %s: %w", p.Name, err)
	}

	cached, ok, err := c.GetArtifact(ctx, programHash, version)
	if err != nil {
		return nil, false, &CacheError{Err: err}
	}
	if ok {
		slog.Debug("artifact cache hit", "program", p.Name, "dialect", version, "hash", cached.ScriptHash)
		if _, err := c.RecordBuild(ctx, store.Build{
			ProgramName: p.Name,
			ProgramHash: programHash,
			Dialect:     version,
			Status:      store.StatusCached,
			ScriptHash:  cached.ScriptHash,
		}); err != nil {
			return nil, false, &CacheError{Err: err}
		}
		return &Artifact{
			Program:     p.Name,
			Dialect:     d,
			Bytes:       cached.Bytes,
			Hash:        cached.ScriptHash,
			ProgramHash: programHash,
		}, true, nil
	}

	art, compileErr := Compile(p, d)
	build := store.Build{
		ProgramName: p.Name,
		ProgramHash: programHash,
		Dialect:     version,
		Status:      store.StatusCompiled,
	}
	if compileErr != nil {
		build.Status = store.StatusFailed
		build.ErrorCode = string(diag.CodeOf(compileErr))
	} else {
		build.ScriptHash = art.Hash
		if err := c.PutArtifact(ctx, store.Artifact{
			ProgramHash: programHash,
			Dialect:     version,
			ScriptHash:  art.Hash,
			Bytes:       art.Bytes,
			ProgramName: p.Name,
		}); err != nil {
			return nil, false, &CacheError{Err: err}
		}
	}
	if _, err := c.RecordBuild(ctx, build); err != nil {
		return nil, false, &CacheError{Err: err}
	}
	return art, false, compileErr
}
