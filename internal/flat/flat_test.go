package flat

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/lower"
	"github.com/roach88/scriptc/internal/resolve"
	"github.com/roach88/scriptc/internal/term"
	tu "github.com/roach88/scriptc/internal/testutil"
)

var (
	v1Header = []byte{0x01, 1, 0, 0}
	v2Header = []byte{0x02, 1, 0, 0}
	v3Header = []byte{0x03, 1, 1, 0}
)

func withHeader(h []byte, body ...byte) []byte {
	out := append([]byte{}, h...)
	return append(out, body...)
}

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return n
}

func TestHeader(t *testing.T) {
	assert.Equal(t, v1Header, Header(dialect.Get(dialect.V1)))
	assert.Equal(t, v2Header, Header(dialect.Get(dialect.V2)))
	assert.Equal(t, v3Header, Header(dialect.Get(dialect.V3)))
}

func TestEncodeIdentity(t *testing.T) {
	out, err := Encode(&term.Lambda{Param: "x", Body: &term.Var{Name: "x"}}, dialect.Get(dialect.V3))
	require.NoError(t, err)
	assert.Equal(t, withHeader(v3Header, tagLambda, tagVar, 1), out)
}

func TestEncodeDeBruijn(t *testing.T) {
	// \x -> \y -> x
	tm := term.Lam(&term.Var{Name: "x"}, "x", "y")
	out, err := Encode(tm, dialect.Get(dialect.V1))
	require.NoError(t, err)
	assert.Equal(t, withHeader(v1Header, tagLambda, tagLambda, tagVar, 2), out)

	// Shadowing resolves to the innermost binder.
	tm = term.Lam(&term.Var{Name: "x"}, "x", "x")
	out, err = Encode(tm, dialect.Get(dialect.V1))
	require.NoError(t, err)
	assert.Equal(t, withHeader(v1Header, tagLambda, tagLambda, tagVar, 1), out)
}

func TestEncodeBuiltinAndForce(t *testing.T) {
	d := dialect.Get(dialect.V3)
	b, ok := d.Builtin("headList")
	require.True(t, ok)

	out, err := Encode(&term.Force{Body: &term.Builtin{Name: "headList"}}, d)
	require.NoError(t, err)
	assert.Equal(t, withHeader(v3Header, tagForce, tagBuiltin, byte(b.Code)), out)
}

func TestIntegerEncoding(t *testing.T) {
	tests := []struct {
		name string
		n    *big.Int
		want []byte
	}{
		{"zero", big.NewInt(0), []byte{0}},
		{"one", big.NewInt(1), []byte{1, 0x01}},
		{"minus one", big.NewInt(-1), []byte{1, 0xff}},
		{"127", big.NewInt(127), []byte{1, 0x7f}},
		{"128", big.NewInt(128), []byte{2, 0x00, 0x80}},
		{"255", big.NewInt(255), []byte{2, 0x00, 0xff}},
		{"256", big.NewInt(256), []byte{2, 0x01, 0x00}},
		{"-128", big.NewInt(-128), []byte{1, 0x80}},
		{"-129", big.NewInt(-129), []byte{2, 0xff, 0x7f}},
		{"-256", big.NewInt(-256), []byte{2, 0xff, 0x00}},
		{"-257", big.NewInt(-257), []byte{2, 0xfe, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendInteger(nil, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, minimalInteger(got[1:]))
			assert.Equal(t, 0, tt.n.Cmp(integerFromBytes(got[1:])))
		})
	}
}

func TestConstantRoundTrip(t *testing.T) {
	huge := bigInt(t, "115792089237316195423570985008687907853269984665640564039457584007913129639936")
	g1 := make([]byte, ir.G1CompressedSize)
	g1[0] = 0xc0
	g2 := make([]byte, ir.G2CompressedSize)
	g2[0] = 0xc0

	tests := []struct {
		name string
		c    ir.Constant
	}{
		{"zero", ir.NewInteger(0)},
		{"negative", ir.NewInteger(-42)},
		{"min int64", ir.NewInteger(-9223372036854775808)},
		{"2^256", ir.IntegerFromBig(huge)},
		{"-2^256", ir.IntegerFromBig(new(big.Int).Neg(huge))},
		{"empty bytes", ir.ByteStr{}},
		{"bytes", ir.ByteStr{0xca, 0xfe}},
		{"empty string", ir.String("")},
		{"string", ir.String("héllo")},
		{"true", ir.Bool(true)},
		{"false", ir.Bool(false)},
		{"unit", ir.Unit{}},
		{"data", ir.DataConst{Value: ir.Constr(1, ir.NewIntData(-7), ir.BytesData{0x01})}},
		{"data map", ir.DataConst{Value: ir.MapData{
			{Key: ir.BytesData("k"), Value: ir.ListData{ir.NewIntData(1), ir.NewIntData(2)}},
		}}},
		{"integer list", ir.ListConst{Elem: ir.IntegerConstType, Items: []ir.Constant{ir.NewInteger(1), ir.NewInteger(-1)}}},
		{"pair", ir.PairConst{First: ir.NewInteger(3), Second: ir.ByteStr{0x00}}},
		{"unit list", ir.ListConst{Elem: ir.UnitConstType, Items: []ir.Constant{ir.Unit{}, ir.Unit{}, ir.Unit{}}}},
		{"unit pair list", ir.ListConst{
			Elem:  ir.PairOf(ir.UnitConstType, ir.UnitConstType),
			Items: []ir.Constant{ir.PairConst{First: ir.Unit{}, Second: ir.Unit{}}},
		}},
		{"empty unit list", ir.ListConst{Elem: ir.UnitConstType}},
		{"g1", ir.G1Element(g1)},
		{"g2", ir.G2Element(g2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := EncodeConstant(tt.c)
			require.NoError(t, err)
			got, err := DecodeConstant(b)
			require.NoError(t, err)
			assert.True(t, ir.ConstantEqual(tt.c, got), "got %s", ir.FormatConstant(got))

			again, err := EncodeConstant(got)
			require.NoError(t, err)
			assert.Equal(t, b, again)
		})
	}
}

func TestZeroWidthListBound(t *testing.T) {
	units := func(n int) ir.ListConst {
		items := make([]ir.Constant, n)
		for i := range items {
			items[i] = ir.Unit{}
		}
		return ir.ListConst{Elem: ir.UnitConstType, Items: items}
	}

	b, err := EncodeConstant(units(maxZeroWidthItems))
	require.NoError(t, err)
	got, err := DecodeConstant(b)
	require.NoError(t, err)
	assert.Len(t, got.(ir.ListConst).Items, maxZeroWidthItems)

	_, err = EncodeConstant(units(maxZeroWidthItems + 1))
	assert.True(t, diag.Is(err, diag.CodeMalformedArtifact))

	// The empty list ends in its zero count; swap in one past the bound.
	empty, err := EncodeConstant(units(0))
	require.NoError(t, err)
	tooMany := binary.AppendUvarint(append([]byte{}, empty[:len(empty)-1]...), maxZeroWidthItems+1)
	_, err = DecodeConstant(tooMany)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestBoolBytes(t *testing.T) {
	b, err := EncodeConstant(ir.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, []byte{typeBool, 1}, b)

	b, err = EncodeConstant(ir.Bool(false))
	require.NoError(t, err)
	assert.Equal(t, []byte{typeBool, 0}, b)
}

func TestProgramRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    *ir.Program
		v    dialect.Version
	}{
		{"action", tu.ActionProgram(), dialect.V3},
		{"box", tu.BoxProgram(), dialect.V3},
		{"sum", tu.SumToProgram(), dialect.V1},
		{"point", tu.PointProgram(), dialect.V2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolve.Resolve(tt.p)
			require.NoError(t, err)
			d := dialect.Get(tt.v)
			prog, err := lower.Lower(res, d)
			require.NoError(t, err)
			closed := prog.Close()

			b, err := Encode(closed, d)
			require.NoError(t, err)
			assert.Equal(t, d.Tag, b[0])

			decoded, got, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, d, got)
			assert.True(t, term.AlphaEqual(closed, decoded))

			again, err := Encode(decoded, got)
			require.NoError(t, err)
			assert.Equal(t, b, again)
		})
	}
}

func TestDecodeNames(t *testing.T) {
	tm, _, err := Decode(withHeader(v3Header, tagLambda, tagLambda, tagVar, 2))
	require.NoError(t, err)
	assert.Equal(t, "(lam v1 (lam v2 v1))", term.String(tm))
}

func TestEncodeRejects(t *testing.T) {
	v1 := dialect.Get(dialect.V1)
	v3 := dialect.Get(dialect.V3)
	tests := []struct {
		name string
		t    term.Term
		d    *dialect.Descriptor
	}{
		{"unbound variable", &term.Var{Name: "x"}, v3},
		{"builtin outside dialect", &term.Builtin{Name: "bls12_381_G1_add"}, v1},
		{"kind outside dialect", &term.Const{Value: ir.G1Element(make([]byte, ir.G1CompressedSize))}, v1},
		{"short G1", &term.Const{Value: ir.G1Element{0x01}}, v3},
		{"invalid utf-8", &term.Const{Value: ir.String("\xff")}, v3},
		{"list item type", &term.Const{Value: ir.ListConst{
			Elem:  ir.IntegerConstType,
			Items: []ir.Constant{ir.ByteStr{0x01}},
		}}, v3},
		{"nil constant", &term.Const{}, v3},
		{"no dialect", &term.Error{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(tt.t, tt.d)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, diag.Is(err, diag.CodeMalformedArtifact), "got %v", err)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	g1 := append([]byte{tagConst, typeG1}, make([]byte, ir.G1CompressedSize)...)
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"unknown dialect tag", []byte{0x09, 1, 0, 0, tagError}},
		{"version mismatch", []byte{0x03, 1, 0, 0, tagError}},
		{"truncated header", []byte{0x03, 1}},
		{"missing term", withHeader(v3Header)},
		{"trailing bytes", withHeader(v3Header, tagError, 0x00)},
		{"unknown term tag", withHeader(v3Header, 8)},
		{"unbound index", withHeader(v3Header, tagLambda, tagVar, 2)},
		{"zero index", withHeader(v3Header, tagLambda, tagVar, 0)},
		{"non-minimal varint", withHeader(v3Header, tagLambda, tagVar, 0x81, 0x00)},
		{"non-minimal integer", withHeader(v3Header, tagConst, typeInteger, 2, 0x00, 0x01)},
		{"non-minimal zero", withHeader(v3Header, tagConst, typeInteger, 1, 0x00)},
		{"non-minimal negative", withHeader(v3Header, tagConst, typeInteger, 2, 0xff, 0xff)},
		{"invalid utf-8", withHeader(v3Header, tagConst, typeString, 1, 0xff)},
		{"bool byte", withHeader(v3Header, tagConst, typeBool, 2)},
		{"length past end", withHeader(v3Header, tagConst, typeByteString, 5, 0x01)},
		{"unknown type tag", withHeader(v3Header, tagConst, 7)},
		{"unknown data tag", withHeader(v3Header, tagConst, typeData, 9)},
		{"builtin outside dialect", withHeader(v1Header, tagBuiltin, 60)},
		{"kind outside dialect", withHeader(v2Header, g1...)},
		{"short G1", withHeader(v3Header, tagConst, typeG1, 0x01)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, d, err := Decode(tt.in)
			require.Error(t, err)
			assert.Nil(t, tm)
			assert.Nil(t, d)
			assert.True(t, diag.Is(err, diag.CodeMalformedArtifact), "got %v", err)
		})
	}
}

func TestDecodeConstantRejectsTrailing(t *testing.T) {
	_, err := DecodeConstant([]byte{typeUnit, 0x00})
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.CodeMalformedArtifact))
}
