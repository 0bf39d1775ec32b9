// Package pipeline drives a program through resolution, lowering and
// serialization.
//
// Each stage consumes the complete output of the previous one. The first
// error aborts the compile and is returned unchanged in meaning (wrapped
// with the stage name), so callers match on diag codes with diag.Is.
//
// Compile holds no state between calls. CompileCached puts an artifact
// cache keyed by ProgramHash in front of it.
package pipeline

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/flat"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/lower"
	"github.com/roach88/scriptc/internal/resolve"
	"github.com/roach88/scriptc/internal/term"
)

// ScriptHashSize is the byte width of an artifact script hash.
const ScriptHashSize = 28

// Artifact is the result of a successful compile.
type Artifact struct {
	// Program is the name of the compiled program.
	Program string

	// Dialect is the descriptor the artifact was produced for.
	Dialect *dialect.Descriptor

	// Bytes is the serialized artifact: header then term.
	Bytes []byte

	// Hash is the hex blake2b-224 digest of Bytes.
	Hash string

	// ProgramHash is the content identity of the input program for this
	// dialect. Two compiles with the same ProgramHash produce the same Bytes.
	ProgramHash string

	// Term is the lowered program before closing and serialization.
	Term *term.Program

	// Resolved is the annotated program the term was lowered from.
	Resolved *resolve.Resolved
}

// Compile resolves, lowers and serializes p for d.
func Compile(p *ir.Program, d *dialect.Descriptor) (*Artifact, error) {
	if p == nil {
		return nil, fmt.Errorf("compile: nil program")
	}
	if d == nil {
		return nil, fmt.Errorf("compile %s: no dialect", p.Name)
	}
	start := time.Now()

	programHash, err := ir.ProgramHash(p, d.Version.String())
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", p.Name, err)
	}

	res, err := resolve.Resolve(p)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", p.Name, err)
	}
	slog.Debug("program resolved",
		"program", p.Name,
		"instances", len(res.Instances),
		"data_types", len(res.DataReprs))

	lowered, err := lower.Lower(res, d)
	if err != nil {
		return nil, fmt.Errorf("lower %s: %w", p.Name, err)
	}

	out, err := flat.Encode(lowered.Close(), d)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", p.Name, err)
	}

	hash, err := ScriptHash(out)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", p.Name, err)
	}

	slog.Info("program compiled",
		"program", p.Name,
		"dialect", d.Version.String(),
		"bytes", len(out),
		"hash", hash,
		"elapsed", time.Since(start))

	return &Artifact{
		Program:     p.Name,
		Dialect:     d,
		Bytes:       out,
		Hash:        hash,
		ProgramHash: programHash,
		Term:        lowered,
		Resolved:    res,
	}, nil
}

// ScriptHash returns the hex blake2b-224 digest of an artifact.
func ScriptHash(artifact []byte) (string, error) {
	h, err := blake2b.New(ScriptHashSize, nil)
	if err != nil {
		return "", err
	}
	h.Write(artifact)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DialectFor picks the dialect for p. An explicit name wins over the
// program's own target; with neither, it is an error.
func DialectFor(p *ir.Program, explicit string) (*dialect.Descriptor, error) {
	name := explicit
	if name == "" {
		name = p.Target
	}
	if name == "" {
		return nil, fmt.Errorf("program %s names no target dialect", p.Name)
	}
	return dialect.Lookup(name)
}
