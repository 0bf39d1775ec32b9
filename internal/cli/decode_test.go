package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compileToDir compiles one program into dir and returns the artifact path.
func compileToDir(t *testing.T, prog, dir string) string {
	t.Helper()
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{program(prog), "--output", dir})
	require.NoError(t, cmd.Execute())

	matches, err := filepath.Glob(filepath.Join(dir, "*.script"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestDecodeArtifact(t *testing.T) {
	path := compileToDir(t, "action.cue", t.TempDir())

	buf := &bytes.Buffer{}
	cmd := NewDecodeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "dialect:  plutus-v3 (language 1.1.0)")
	assert.Contains(t, output, "hash:     ")
}

func TestDecodeHexFromStdin(t *testing.T) {
	path := compileToDir(t, "sumto.cue", t.TempDir())
	hexOut := &bytes.Buffer{}
	compile := NewCompileCommand(&RootOptions{Format: "text"})
	compile.SetOut(hexOut)
	compile.SetArgs([]string{program("sumto.cue"), "-o", "-", "--hex"})
	require.NoError(t, compile.Execute())

	buf := &bytes.Buffer{}
	cmd := NewDecodeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(hexOut.String()))
	cmd.SetArgs([]string{"-"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string          `json:"status"`
		Data   DecodedArtifact `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "plutus-v1", resp.Data.Dialect)
	assert.Equal(t, "1.0.0", resp.Data.Language)
	assert.Positive(t, resp.Data.Nodes)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, len(raw), resp.Data.Size)
}

func TestDecodeMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.script")
	require.NoError(t, os.WriteFile(path, []byte{0x0f, 0x01, 0x00, 0x00}, 0o644))

	buf := &bytes.Buffer{}
	cmd := NewDecodeCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MALFORMED_ARTIFACT", resp.Error.Code)
}

func TestDecodeMissingFile(t *testing.T) {
	cmd := NewDecodeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.script")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestArtifactBytes(t *testing.T) {
	assert.Equal(t, []byte{0x03, 0x01}, artifactBytes([]byte("0301\n")))
	assert.Equal(t, []byte{0x03, 0x01, 0x01}, artifactBytes([]byte{0x03, 0x01, 0x01}))
	assert.Equal(t, []byte("zz"), artifactBytes([]byte("zz")))
}
