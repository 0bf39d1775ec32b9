package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptc/internal/ir"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want Version
	}{
		{"v1", V1},
		{"V2", V2},
		{"3", V3},
		{"plutus-v3", V3},
		{" Plutus-V1 ", V1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Version)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("v9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v1, v2, v3")
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, byte(0x01), Get(V1).Tag)
	assert.Equal(t, byte(0x02), Get(V2).Tag)
	assert.Equal(t, byte(0x03), Get(V3).Tag)
	assert.Equal(t, "1.0.0", Get(V2).LanguageVersionString())
	assert.Equal(t, "1.1.0", Get(V3).LanguageVersionString())

	d, ok := ByTag(0x03)
	require.True(t, ok)
	assert.Equal(t, V3, d.Version)
	_, ok = ByTag(0x7f)
	assert.False(t, ok)
}

func TestKinds(t *testing.T) {
	assert.False(t, Get(V1).SupportsKind(ir.KindG1Element))
	assert.False(t, Get(V2).SupportsKind(ir.KindG2Element))
	assert.True(t, Get(V3).SupportsKind(ir.KindG1Element))
	assert.True(t, Get(V1).SupportsKind(ir.KindData))
	assert.Len(t, Get(V3).Kinds(), 10)

	k, bad := Get(V2).UnsupportedKind(ir.ListOf(ir.ConstType{Kind: ir.KindG1Element}))
	require.True(t, bad)
	assert.Equal(t, ir.KindG1Element, k)

	_, bad = Get(V1).UnsupportedKind(ir.PairOf(ir.DataConstType, ir.DataConstType))
	assert.False(t, bad)
}

func TestBuiltins_Additive(t *testing.T) {
	v1, v2, v3 := Get(V1), Get(V2), Get(V3)
	assert.Len(t, v1.Builtins(), 51)
	assert.Len(t, v2.Builtins(), 54)
	assert.Len(t, v3.Builtins(), 75)

	// Every earlier builtin keeps its code in later versions.
	for _, b := range v1.Builtins() {
		got, ok := v3.Builtin(b.Name)
		require.True(t, ok, b.Name)
		assert.Equal(t, b, got)
	}

	_, ok := v1.Builtin("serialiseData")
	assert.False(t, ok)
	_, ok = v2.Builtin("keccak_256")
	assert.False(t, ok)
	_, ok = v3.Builtin("keccak_256")
	assert.True(t, ok)
}

func TestBuiltins_OrderedByCode(t *testing.T) {
	for i, b := range Get(V3).Builtins() {
		assert.Equal(t, uint64(i), b.Code, b.Name)
	}
}

func TestBuiltin_Forces(t *testing.T) {
	d := Get(V1)
	tests := map[string]int{
		"ifThenElse":   1,
		"fstPair":      2,
		"sndPair":      2,
		"headList":     1,
		"chooseList":   2,
		"addInteger":   0,
		"unConstrData": 0,
	}
	for name, forces := range tests {
		b, ok := d.Builtin(name)
		require.True(t, ok, name)
		assert.Equal(t, forces, b.Forces, name)
	}

	b, ok := d.BuiltinByCode(36)
	require.True(t, ok)
	assert.Equal(t, "chooseData", b.Name)
	assert.Equal(t, 6, b.Arity)
}
