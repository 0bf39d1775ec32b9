package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatConstant(t *testing.T) {
	huge, _ := new(big.Int).SetString("-340282366920938463463374607431768211456", 10)
	tests := []struct {
		name string
		c    Constant
		want string
	}{
		{"integer", NewInteger(42), "integer 42"},
		{"big integer", IntegerFromBig(huge), "integer -340282366920938463463374607431768211456"},
		{"nil integer is zero", Integer{}, "integer 0"},
		{"bytestring", ByteStr{0xca, 0xfe}, "bytestring #cafe"},
		{"empty bytestring", ByteStr{}, "bytestring #"},
		{"string", String("hi \"there\""), `string "hi \"there\""`},
		{"bool", Bool(true), "bool True"},
		{"unit", Unit{}, "unit ()"},
		{"data", DataConst{Value: Constr(1, NewIntData(7), BytesData{0x01})}, "data (Constr 1 [I 7, B #01])"},
		{"list", ListConst{Elem: IntegerConstType, Items: []Constant{NewInteger(1), NewInteger(2)}}, "(list integer) [1, 2]"},
		{"empty list", ListConst{Elem: DataConstType}, "(list data) []"},
		{"pair", PairConst{First: NewInteger(1), Second: ByteStr{0xff}}, "(pair integer bytestring) (1, #ff)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatConstant(tt.c))
		})
	}
}

func TestIntegerFromBigCopies(t *testing.T) {
	n := big.NewInt(5)
	c := IntegerFromBig(n)
	n.SetInt64(6)
	assert.Equal(t, int64(5), c.Big().Int64())
}

func TestConstantEqual(t *testing.T) {
	assert.True(t, ConstantEqual(NewInteger(3), IntegerFromBig(big.NewInt(3))))
	assert.True(t, ConstantEqual(Integer{}, NewInteger(0)))
	assert.False(t, ConstantEqual(NewInteger(3), ByteStr{3}))
	assert.True(t, ConstantEqual(
		ListConst{Elem: IntegerConstType, Items: []Constant{NewInteger(1)}},
		ListConst{Elem: IntegerConstType, Items: []Constant{NewInteger(1)}}))
	assert.False(t, ConstantEqual(
		ListConst{Elem: IntegerConstType},
		ListConst{Elem: ByteStringConstType}), "empty lists of different element types differ")
	assert.True(t, ConstantEqual(
		DataConst{Value: MapData{{Key: NewIntData(1), Value: ListData{}}}},
		DataConst{Value: MapData{{Key: NewIntData(1), Value: ListData{}}}}))
	assert.False(t, ConstantEqual(G1Element{1}, G2Element{1}))
}

func TestDataEqualPreservesMapOrder(t *testing.T) {
	a := MapData{{Key: NewIntData(1), Value: NewIntData(2)}, {Key: NewIntData(3), Value: NewIntData(4)}}
	b := MapData{{Key: NewIntData(3), Value: NewIntData(4)}, {Key: NewIntData(1), Value: NewIntData(2)}}
	assert.True(t, DataEqual(a, a))
	assert.False(t, DataEqual(a, b))
	assert.Equal(t, "Map [(I 1, I 2), (I 3, I 4)]", FormatData(a))
}

func TestConstTypeKinds(t *testing.T) {
	ct := ListOf(PairOf(IntegerConstType, DataConstType))
	assert.Equal(t, []PrimKind{KindList, KindPair, KindInteger, KindData}, ct.Kinds())
	assert.Equal(t, "(list (pair integer data))", ct.String())
	assert.True(t, ct.Equal(ListOf(PairOf(IntegerConstType, DataConstType))))
	assert.False(t, ct.Equal(ListOf(IntegerConstType)))
	assert.Equal(t, PairOf(IntegerConstType, ByteStringConstType), PairConst{First: NewInteger(1), Second: ByteStr{}}.Type())
}
