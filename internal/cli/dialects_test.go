package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectsList(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDialectsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "plutus-v1")
	assert.Contains(t, output, "plutus-v3")
	assert.NotContains(t, output, "builtins:")
}

func TestDialectsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDialectsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []DialectInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "v1", resp.Data[0].Version)
	assert.Equal(t, byte(0x03), resp.Data[2].Tag)
	assert.Equal(t, "1.1.0", resp.Data[2].LanguageVersion)
	assert.Greater(t, resp.Data[2].BuiltinCount, resp.Data[0].BuiltinCount)
	assert.Empty(t, resp.Data[0].Builtins)
}

func TestDialectsNamed(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewDialectsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"v1"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "plutus-v1 builtins:")
	assert.Contains(t, output, "addInteger")
	assert.NotContains(t, output, "plutus-v3")
}

func TestDialectsUnknown(t *testing.T) {
	cmd := NewDialectsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"v9"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
