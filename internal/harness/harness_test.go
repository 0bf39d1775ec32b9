package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/store"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join(scenariosDir, name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenariosDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGoldenSnapshots(t *testing.T) {
	for _, name := range []string{"action_v3", "leak", "partial"} {
		t.Run(name, func(t *testing.T) {
			_, err := RunWithGolden(t, loadScenario(t, name))
			require.NoError(t, err)
		})
	}
}

func TestRunRecordsBuilds(t *testing.T) {
	result, err := Run(loadScenario(t, "action_v3"))
	require.NoError(t, err)

	require.Len(t, result.Builds, 2)
	assert.Equal(t, "build-0001", result.Builds[0].ID)
	assert.Equal(t, store.StatusCompiled, result.Builds[0].Status)
	assert.Equal(t, "build-0002", result.Builds[1].ID)
	assert.Equal(t, store.StatusCached, result.Builds[1].Status)
	assert.Equal(t, result.Artifact.Hash, result.Builds[1].ScriptHash)
	assert.True(t, result.CacheHit)
	assert.Equal(t, "plutus-v3", result.Dialect)
}

func TestRunFailureIsAnOutcome(t *testing.T) {
	result, err := Run(loadScenario(t, "leak"))
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Nil(t, result.Artifact)
	assert.Equal(t, diag.CodeUnresolvedRepresentation, result.Code)
	require.Len(t, result.Builds, 1)
	assert.Equal(t, store.StatusFailed, result.Builds[0].Status)
}

func TestRunReportsFailedAssertions(t *testing.T) {
	s := loadScenario(t, "action_v3")
	s.Assertions = []Assertion{
		{Type: AssertFailsWith, Code: string(diag.CodeNonExhaustiveMatch)},
		{Type: AssertHeader, Tag: 1},
		{Type: AssertBranchOrder, Tags: []int64{1, 0}},
		{Type: AssertInstances, Keys: []string{"describe", "other"}},
		{Type: AssertMaxSize, MaxBytes: 4},
		{Type: AssertCompiles},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "compiled successfully")
	assert.Contains(t, result.Errors[1], "tag 3")
	assert.Contains(t, result.Errors[2], "[0 1]")
	assert.Contains(t, result.Errors[3], "[describe]")
	assert.Contains(t, result.Errors[4], "at most 4 bytes")
}

func TestArtifactAssertionsNeedACompile(t *testing.T) {
	s := loadScenario(t, "partial")
	s.Assertions = []Assertion{{Type: AssertRoundTrip}}

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "a successful compile")
}

func TestFailsWithAcceptsValidationCodes(t *testing.T) {
	r := NewResult()
	r.Validation = nil
	errs := EvaluateAssertions(r, []Assertion{{Type: AssertFailsWith, Code: "E110"}})
	require.Len(t, errs, 1)

	r.Validation = append(r.Validation, validationError("E110"))
	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertFailsWith, Code: "E110"}}))
}

func TestHarnessReuse(t *testing.T) {
	h, err := New(nil)
	require.NoError(t, err)
	defer h.Close()

	ctx := context.Background()
	first, err := h.Run(ctx, loadScenario(t, "box_v3"))
	require.NoError(t, err)
	second, err := h.Run(ctx, loadScenario(t, "box_v3"))
	require.NoError(t, err)

	assert.True(t, first.Pass)
	assert.True(t, second.Pass)
	// The shared store keeps the log of both runs.
	assert.Len(t, second.Builds, 4)
	assert.Equal(t, store.StatusCached, second.Builds[2].Status)
}
