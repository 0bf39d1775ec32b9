package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{IntegerType, "Integer"},
		{G2, "G2"},
		{ListType{Elem: ByteString}, "List[ByteString]"},
		{PairType{First: IntegerType, Second: DataT}, "Pair[Integer, Data]"},
		{DataType{Name: "Box", Args: []Type{TypeVar{Name: "T"}}}, "Box[T]"},
		{Func(Boolean, IntegerType, IntegerType), "Integer -> Integer -> Bool"},
		{FuncType{Param: Func(IntegerType, IntegerType), Result: UnitType}, "(Integer -> Integer) -> Unit"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestPrimTypeByName(t *testing.T) {
	for _, name := range []string{"Integer", "ByteString", "String", "Bool", "Unit", "Data", "G1", "G2"} {
		pt, ok := PrimTypeByName(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, pt.String())
	}
	_, ok := PrimTypeByName("List")
	assert.False(t, ok)
}

func TestApplySubst(t *testing.T) {
	boxT := DataType{Name: "Box", Args: []Type{TypeVar{Name: "T"}}}
	s := NewSubst([]string{"T", "U"}, []Type{IntegerType})

	assert.Equal(t, DataType{Name: "Box", Args: []Type{IntegerType}}, s.Apply(boxT))
	assert.Equal(t, TypeVar{Name: "U"}, s.Apply(TypeVar{Name: "U"}), "unbound variables are kept")
	assert.Equal(t,
		Func(ListType{Elem: IntegerType}, PairType{First: IntegerType, Second: TypeVar{Name: "U"}}),
		s.Apply(Func(ListType{Elem: TypeVar{Name: "T"}}, PairType{First: TypeVar{Name: "T"}, Second: TypeVar{Name: "U"}})))
	assert.Nil(t, s.Apply(nil))
}

func TestFreeVars(t *testing.T) {
	typ := Func(
		PairType{First: TypeVar{Name: "B"}, Second: TypeVar{Name: "A"}},
		DataType{Name: "Box", Args: []Type{TypeVar{Name: "A"}}},
		TypeVar{Name: "B"},
	)
	assert.Equal(t, []string{"A", "B"}, FreeVars(typ))
	assert.False(t, IsClosed(typ))
	assert.True(t, IsClosed(Func(IntegerType, ListType{Elem: DataT})))
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, TypeEqual(Func(IntegerType, IntegerType), Func(IntegerType, IntegerType)))
	assert.True(t, TypeEqual(nil, nil))
	assert.False(t, TypeEqual(IntegerType, nil))
	assert.False(t, TypeEqual(IntegerType, ByteString))
	// Same text, different shape.
	assert.False(t, TypeEqual(TypeVar{Name: "Action"}, DataType{Name: "Action"}))
	assert.False(t, TypeEqual(
		ListType{Elem: TypeVar{Name: "T"}},
		ListType{Elem: DataType{Name: "T"}}))
}

func TestAdmits(t *testing.T) {
	reprs := map[string]Representation{"Action": DataEncoded}

	assert.True(t, Admits(IntegerType, BuiltinUnboxed, reprs))
	assert.False(t, Admits(IntegerType, DataEncoded, reprs))
	assert.True(t, Admits(DataT, DataEncoded, reprs))
	assert.False(t, Admits(DataT, BuiltinUnboxed, reprs))
	assert.True(t, Admits(ListType{Elem: IntegerType}, ListEncoded, reprs))
	assert.True(t, Admits(PairType{First: IntegerType, Second: IntegerType}, PairEncoded, reprs))
	assert.True(t, Admits(Func(IntegerType, IntegerType), FunctionRepresentation, reprs))
	assert.True(t, Admits(DataType{Name: "Action"}, DataEncoded, reprs))
	assert.False(t, Admits(DataType{Name: "Missing"}, DataEncoded, reprs))
	assert.False(t, Admits(TypeVar{Name: "T"}, DataEncoded, reprs), "type variables have no representation")
	assert.False(t, Admits(IntegerType, ReprUnresolved, reprs))
}

func TestRepresentationString(t *testing.T) {
	assert.Equal(t, "Unresolved", ReprUnresolved.String())
	assert.Equal(t, "DataEncoded", DataEncoded.String())
	assert.Equal(t, "Unknown", Representation(99).String())
	assert.Equal(t, "bls12_381_G1_element", KindG1Element.String())
	assert.Equal(t, "unknown", PrimKind(0).String())
	assert.Len(t, AllKinds(), 10)
}

func TestDataDeclFieldTypes(t *testing.T) {
	decl := DataDecl{
		Name:       "Pair2",
		TypeParams: []string{"A", "B"},
		Constructors: []Constructor{
			{Name: "Empty"},
			{Name: "Both", Fields: []Field{{Name: "a", Type: TypeVar{Name: "A"}}, {Name: "b", Type: ListType{Elem: TypeVar{Name: "B"}}}}},
		},
	}
	c, tag, ok := decl.Constructor("Both")
	assert.True(t, ok)
	assert.Equal(t, 1, tag)
	assert.Equal(t, []Type{IntegerType, ListType{Elem: ByteString}}, decl.FieldTypes(c, []Type{IntegerType, ByteString}))

	_, tag, ok = decl.Constructor("Neither")
	assert.False(t, ok)
	assert.Equal(t, -1, tag)
	assert.Equal(t, []string{"Empty", "Both"}, decl.ConstructorNames())
}
