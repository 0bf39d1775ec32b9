package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProgram(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestValidateValidProgram(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{program("action.cue")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ "+program("action.cue"))
}

func TestValidateReportsSelfRecursion(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{program("sumto.cue")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "info: ")
}

func TestValidateUnknownBuiltin(t *testing.T) {
	path := writeProgram(t, "bad.cue", `name: "bad"
target: "v3"
entry: {builtin: "keccak_512", type: "Integer", args: [{integer: 1}]}
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E120", resp.Error.Code)
}

func TestValidateLoadError(t *testing.T) {
	path := writeProgram(t, "noentry.cue", `name: "noentry"
target: "v3"
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Programs, 1)
	pv := resp.Data.Programs[0]
	assert.False(t, pv.Valid)
	require.Len(t, pv.Errors, 1)
	assert.Equal(t, ErrCodeLoadFailed, pv.Errors[0].Code)
	assert.Contains(t, pv.Errors[0].Message, "entry is required")
}

func TestValidateNonExistentPath(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
