package store

import (
	"context"
	"fmt"
)

// Build statuses.
const (
	StatusCompiled = "compiled"
	StatusCached   = "cached"
	StatusFailed   = "failed"
)

// Build is one compile attempt in the build log.
type Build struct {
	ID          string
	Seq         int64
	ProgramName string
	ProgramHash string
	Dialect     string
	Status      string
	ErrorCode   string
	ScriptHash  string
}

// RecordBuild appends b to the build log, assigning its ID and Seq.
// The stored record is returned.
func (s *Store) RecordBuild(ctx context.Context, b Build) (Build, error) {
	switch b.Status {
	case StatusCompiled, StatusCached, StatusFailed:
	default:
		return Build{}, fmt.Errorf("record build %s: unknown status %q", b.ProgramName, b.Status)
	}
	b.ID = s.ids.Generate()
	b.Seq = s.clock.Next()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, program_name, program_hash, dialect, status, error_code, script_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.Seq,
		b.ProgramName,
		b.ProgramHash,
		b.Dialect,
		b.Status,
		b.ErrorCode,
		b.ScriptHash,
	)
	if err != nil {
		return Build{}, fmt.Errorf("record build %s: %w", b.ProgramName, err)
	}
	return b, nil
}

// Builds returns the build log for one program, or for every program when
// programName is empty. Ordered by seq ASC, id ASC COLLATE BINARY.
func (s *Store) Builds(ctx context.Context, programName string) ([]Build, error) {
	query := `
		SELECT id, seq, program_name, program_hash, dialect, status, error_code, script_hash
		FROM builds
	`
	var args []any
	if programName != "" {
		query += ` WHERE program_name = ?`
		args = append(args, programName)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.Seq, &b.ProgramName, &b.ProgramHash, &b.Dialect, &b.Status, &b.ErrorCode, &b.ScriptHash); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// Stats summarizes the cache.
type Stats struct {
	Artifacts int   `json:"artifacts"`
	Bytes     int64 `json:"bytes"`
	Builds    int   `json:"builds"`
	Failed    int   `json:"failed"`
}

// Stats counts cached artifacts and logged builds.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(bytes)), 0) FROM artifacts
	`).Scan(&st.Artifacts, &st.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("count artifacts: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM builds
	`, StatusFailed).Scan(&st.Builds, &st.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("count builds: %w", err)
	}
	return st, nil
}

// Clear empties the cache and the build log in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"artifacts", "builds"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}
