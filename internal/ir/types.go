package ir

import (
	"slices"
	"strings"
)

// PrimKind enumerates the builtin primitive kinds of the target language.
// List and pair are included because constants of those shapes exist
// natively on chain.
type PrimKind uint8

const (
	KindInteger PrimKind = iota + 1
	KindByteString
	KindString
	KindBool
	KindUnit
	KindData
	KindList
	KindPair
	KindG1Element
	KindG2Element
)

var kindNames = map[PrimKind]string{
	KindInteger:    "integer",
	KindByteString: "bytestring",
	KindString:     "string",
	KindBool:       "bool",
	KindUnit:       "unit",
	KindData:       "data",
	KindList:       "list",
	KindPair:       "pair",
	KindG1Element:  "bls12_381_G1_element",
	KindG2Element:  "bls12_381_G2_element",
}

// String returns the kind name used in diagnostics and the textual term form.
func (k PrimKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// AllKinds returns every primitive kind in declaration order.
func AllKinds() []PrimKind {
	return []PrimKind{
		KindInteger, KindByteString, KindString, KindBool, KindUnit,
		KindData, KindList, KindPair, KindG1Element, KindG2Element,
	}
}

// Type is a sealed interface over the IR type tree.
// Only PrimType, ListType, PairType, DataType, TypeVar and FuncType implement it.
type Type interface {
	typeNode()
	String() string
}

// PrimType is an atomic builtin type (integer, bytestring, string, bool,
// unit, data, BLS group elements). Use ListType and PairType for the
// structured builtins.
type PrimType struct {
	Kind PrimKind
}

// ListType is the builtin list type. Elements are held in the data envelope.
type ListType struct {
	Elem Type
}

// PairType is the builtin pair type. Components are held in the data envelope.
type PairType struct {
	First  Type
	Second Type
}

// DataType references a user-declared algebraic data type.
type DataType struct {
	Name string
	Args []Type
}

// TypeVar is a type parameter bound by an enclosing generic declaration.
type TypeVar struct {
	Name string
}

// FuncType is the type of a single-argument function.
type FuncType struct {
	Param  Type
	Result Type
}

func (PrimType) typeNode() {}
func (ListType) typeNode() {}
func (PairType) typeNode() {}
func (DataType) typeNode() {}
func (TypeVar) typeNode()  {}
func (FuncType) typeNode() {}

var primNames = map[PrimKind]string{
	KindInteger:    "Integer",
	KindByteString: "ByteString",
	KindString:     "String",
	KindBool:       "Bool",
	KindUnit:       "Unit",
	KindData:       "Data",
	KindG1Element:  "G1",
	KindG2Element:  "G2",
}

// PrimTypeByName maps the surface name of a primitive type to its kind.
func PrimTypeByName(name string) (PrimType, bool) {
	for k, n := range primNames {
		if n == name {
			return PrimType{Kind: k}, true
		}
	}
	return PrimType{}, false
}

func (t PrimType) String() string {
	if name, ok := primNames[t.Kind]; ok {
		return name
	}
	return t.Kind.String()
}

func (t ListType) String() string {
	return "List[" + t.Elem.String() + "]"
}

func (t PairType) String() string {
	return "Pair[" + t.First.String() + ", " + t.Second.String() + "]"
}

func (t DataType) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "[" + strings.Join(args, ", ") + "]"
}

func (t TypeVar) String() string {
	return t.Name
}

func (t FuncType) String() string {
	param := t.Param.String()
	if _, ok := t.Param.(FuncType); ok {
		param = "(" + param + ")"
	}
	return param + " -> " + t.Result.String()
}

// Convenience constructors used throughout tests and the loader.
var (
	IntegerType Type = PrimType{Kind: KindInteger}
	ByteString  Type = PrimType{Kind: KindByteString}
	Str         Type = PrimType{Kind: KindString}
	Boolean     Type = PrimType{Kind: KindBool}
	UnitType    Type = PrimType{Kind: KindUnit}
	DataT       Type = PrimType{Kind: KindData}
	G1          Type = PrimType{Kind: KindG1Element}
	G2          Type = PrimType{Kind: KindG2Element}
)

// Func builds a curried function type from params to result.
func Func(result Type, params ...Type) Type {
	t := result
	for i := len(params) - 1; i >= 0; i-- {
		t = FuncType{Param: params[i], Result: t}
	}
	return t
}

// Subst maps type-variable names to the types they stand for.
type Subst map[string]Type

// NewSubst pairs type parameters with arguments positionally.
// Extra names or arguments are ignored; callers check arity first.
func NewSubst(params []string, args []Type) Subst {
	s := make(Subst, len(params))
	for i, p := range params {
		if i < len(args) {
			s[p] = args[i]
		}
	}
	return s
}

// Apply replaces every bound type variable in t. Unbound variables are kept.
func (s Subst) Apply(t Type) Type {
	if len(s) == 0 || t == nil {
		return t
	}
	switch t := t.(type) {
	case TypeVar:
		if r, ok := s[t.Name]; ok {
			return r
		}
		return t
	case ListType:
		return ListType{Elem: s.Apply(t.Elem)}
	case PairType:
		return PairType{First: s.Apply(t.First), Second: s.Apply(t.Second)}
	case DataType:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.Apply(a)
		}
		return DataType{Name: t.Name, Args: args}
	case FuncType:
		return FuncType{Param: s.Apply(t.Param), Result: s.Apply(t.Result)}
	default:
		return t
	}
}

// FreeVars returns the type-variable names occurring in t, in order of
// first occurrence, without duplicates.
func FreeVars(t Type) []string {
	var out []string
	var walk func(Type)
	walk = func(t Type) {
		switch t := t.(type) {
		case TypeVar:
			if !slices.Contains(out, t.Name) {
				out = append(out, t.Name)
			}
		case ListType:
			walk(t.Elem)
		case PairType:
			walk(t.First)
			walk(t.Second)
		case DataType:
			for _, a := range t.Args {
				walk(a)
			}
		case FuncType:
			walk(t.Param)
			walk(t.Result)
		}
	}
	walk(t)
	return out
}

// IsClosed reports whether t contains no type variables.
func IsClosed(t Type) bool {
	return len(FreeVars(t)) == 0
}

// TypeEqual reports structural equality of two types.
func TypeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String() && sameShape(a, b)
}

// sameShape guards against a type variable and a data type that happen to
// print identically.
func sameShape(a, b Type) bool {
	switch a := a.(type) {
	case TypeVar:
		_, ok := b.(TypeVar)
		return ok
	case DataType:
		bd, ok := b.(DataType)
		if !ok || len(a.Args) != len(bd.Args) {
			return false
		}
		for i := range a.Args {
			if !sameShape(a.Args[i], bd.Args[i]) {
				return false
			}
		}
		return true
	case ListType:
		bl, ok := b.(ListType)
		return ok && sameShape(a.Elem, bl.Elem)
	case PairType:
		bp, ok := b.(PairType)
		return ok && sameShape(a.First, bp.First) && sameShape(a.Second, bp.Second)
	case FuncType:
		bf, ok := b.(FuncType)
		return ok && sameShape(a.Param, bf.Param) && sameShape(a.Result, bf.Result)
	default:
		_, ok := b.(PrimType)
		return ok
	}
}
