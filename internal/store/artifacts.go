package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Artifact is a cached compile result.
type Artifact struct {
	ProgramHash string
	Dialect     string
	ScriptHash  string
	Bytes       []byte
	ProgramName string
	CreatedSeq  int64
}

// PutArtifact caches an artifact under (ProgramHash, Dialect).
// Uses ON CONFLICT DO NOTHING: the key determines the bytes, so a second
// write of the same key carries nothing new. CreatedSeq is assigned here.
func (s *Store) PutArtifact(ctx context.Context, a Artifact) error {
	if a.ProgramHash == "" || a.Dialect == "" {
		return fmt.Errorf("put artifact: program hash and dialect are required")
	}
	if len(a.Bytes) == 0 {
		return fmt.Errorf("put artifact %s: empty artifact", a.ProgramName)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts
		(program_hash, dialect, script_hash, bytes, program_name, created_seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(program_hash, dialect) DO NOTHING
	`,
		a.ProgramHash,
		a.Dialect,
		a.ScriptHash,
		a.Bytes,
		a.ProgramName,
		s.clock.Next(),
	)
	if err != nil {
		return fmt.Errorf("put artifact %s: %w", a.ProgramName, err)
	}
	return nil
}

// GetArtifact returns the cached artifact for a program hash and dialect.
// The boolean is false when nothing is cached; that is not an error.
func (s *Store) GetArtifact(ctx context.Context, programHash, dialect string) (Artifact, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT program_hash, dialect, script_hash, bytes, program_name, created_seq
		FROM artifacts
		WHERE program_hash = ? AND dialect = ?
	`, programHash, dialect)

	var a Artifact
	err := row.Scan(&a.ProgramHash, &a.Dialect, &a.ScriptHash, &a.Bytes, &a.ProgramName, &a.CreatedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("get artifact: %w", err)
	}
	return a, true, nil
}

// Artifacts lists cached artifacts in the order they were stored.
// Returns an empty slice (not nil) for an empty cache.
func (s *Store) Artifacts(ctx context.Context) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT program_hash, dialect, script_hash, bytes, program_name, created_seq
		FROM artifacts
		ORDER BY created_seq ASC, program_hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []Artifact{}
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ProgramHash, &a.Dialect, &a.ScriptHash, &a.Bytes, &a.ProgramName, &a.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}
