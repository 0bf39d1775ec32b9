package ir

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
)

// Constant is a sealed interface over literal values.
// Only Integer, ByteStr, String, Bool, Unit, DataConst, ListConst, PairConst,
// G1Element and G2Element implement it.
type Constant interface {
	constant()
	// Type returns the constant's shape, including element types for lists
	// and pairs.
	Type() ConstType
}

// ConstType describes the shape of a constant. Args holds the element type
// for lists and both component types for pairs.
type ConstType struct {
	Kind PrimKind
	Args []ConstType
}

func (t ConstType) String() string {
	switch t.Kind {
	case KindList:
		if len(t.Args) == 1 {
			return "(list " + t.Args[0].String() + ")"
		}
	case KindPair:
		if len(t.Args) == 2 {
			return "(pair " + t.Args[0].String() + " " + t.Args[1].String() + ")"
		}
	}
	return t.Kind.String()
}

// Equal reports structural equality.
func (t ConstType) Equal(o ConstType) bool {
	if t.Kind != o.Kind || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Kinds returns every primitive kind mentioned by t, outermost first.
func (t ConstType) Kinds() []PrimKind {
	out := []PrimKind{t.Kind}
	for _, a := range t.Args {
		out = append(out, a.Kinds()...)
	}
	return out
}

// Simple constant types.
var (
	IntegerConstType    = ConstType{Kind: KindInteger}
	ByteStringConstType = ConstType{Kind: KindByteString}
	StringConstType     = ConstType{Kind: KindString}
	BoolConstType       = ConstType{Kind: KindBool}
	UnitConstType       = ConstType{Kind: KindUnit}
	DataConstType       = ConstType{Kind: KindData}
)

// ListOf returns the constant type of a list of elem.
func ListOf(elem ConstType) ConstType {
	return ConstType{Kind: KindList, Args: []ConstType{elem}}
}

// PairOf returns the constant type of a pair.
func PairOf(a, b ConstType) ConstType {
	return ConstType{Kind: KindPair, Args: []ConstType{a, b}}
}

// Integer is an arbitrary-precision integer constant.
// The wrapped value is never mutated after construction.
type Integer struct {
	Value *big.Int
}

// ByteStr is a raw byte sequence constant.
type ByteStr []byte

// String is a UTF-8 text constant.
type String string

// Bool is a boolean constant.
type Bool bool

// Unit is the unit constant.
type Unit struct{}

// DataConst wraps a data-envelope value as a constant.
type DataConst struct {
	Value Data
}

// ListConst is a homogeneous builtin list constant.
type ListConst struct {
	Elem  ConstType
	Items []Constant
}

// PairConst is a builtin pair constant.
type PairConst struct {
	First  Constant
	Second Constant
}

// G1Element is a compressed BLS12-381 G1 point (48 bytes).
type G1Element []byte

// G2Element is a compressed BLS12-381 G2 point (96 bytes).
type G2Element []byte

// Compressed point widths.
const (
	G1CompressedSize = 48
	G2CompressedSize = 96
)

func (Integer) constant()   {}
func (ByteStr) constant()   {}
func (String) constant()    {}
func (Bool) constant()      {}
func (Unit) constant()      {}
func (DataConst) constant() {}
func (ListConst) constant() {}
func (PairConst) constant() {}
func (G1Element) constant() {}
func (G2Element) constant() {}

func (Integer) Type() ConstType   { return IntegerConstType }
func (ByteStr) Type() ConstType   { return ByteStringConstType }
func (String) Type() ConstType    { return StringConstType }
func (Bool) Type() ConstType      { return BoolConstType }
func (Unit) Type() ConstType      { return UnitConstType }
func (DataConst) Type() ConstType { return DataConstType }
func (c ListConst) Type() ConstType {
	return ListOf(c.Elem)
}
func (c PairConst) Type() ConstType {
	return PairOf(c.First.Type(), c.Second.Type())
}
func (G1Element) Type() ConstType { return ConstType{Kind: KindG1Element} }
func (G2Element) Type() ConstType { return ConstType{Kind: KindG2Element} }

// NewInteger creates an Integer constant from an int64.
func NewInteger(n int64) Integer {
	return Integer{Value: big.NewInt(n)}
}

// IntegerFromBig creates an Integer constant holding a copy of n.
func IntegerFromBig(n *big.Int) Integer {
	return Integer{Value: new(big.Int).Set(n)}
}

// Big returns the integer value, treating a nil pointer as zero.
func (c Integer) Big() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// ConstantEqual reports whether two constants are the same logical value.
func ConstantEqual(a, b Constant) bool {
	switch a := a.(type) {
	case Integer:
		bi, ok := b.(Integer)
		return ok && a.Big().Cmp(bi.Big()) == 0
	case ByteStr:
		bb, ok := b.(ByteStr)
		return ok && bytes.Equal(a, bb)
	case String:
		bs, ok := b.(String)
		return ok && a == bs
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Unit:
		_, ok := b.(Unit)
		return ok
	case DataConst:
		bd, ok := b.(DataConst)
		return ok && DataEqual(a.Value, bd.Value)
	case ListConst:
		bl, ok := b.(ListConst)
		if !ok || !a.Elem.Equal(bl.Elem) || len(a.Items) != len(bl.Items) {
			return false
		}
		for i := range a.Items {
			if !ConstantEqual(a.Items[i], bl.Items[i]) {
				return false
			}
		}
		return true
	case PairConst:
		bp, ok := b.(PairConst)
		return ok && ConstantEqual(a.First, bp.First) && ConstantEqual(a.Second, bp.Second)
	case G1Element:
		bg, ok := b.(G1Element)
		return ok && bytes.Equal(a, bg)
	case G2Element:
		bg, ok := b.(G2Element)
		return ok && bytes.Equal(a, bg)
	default:
		return false
	}
}

// FormatConstant renders a constant in the textual term syntax, e.g.
// "integer 42" or "bytestring #cafe".
func FormatConstant(c Constant) string {
	if d, ok := c.(DataConst); ok {
		return "data (" + FormatData(d.Value) + ")"
	}
	return c.Type().String() + " " + formatConstantValue(c)
}

func formatConstantValue(c Constant) string {
	switch c := c.(type) {
	case Integer:
		return c.Big().String()
	case ByteStr:
		return fmt.Sprintf("#%x", []byte(c))
	case String:
		return fmt.Sprintf("%q", string(c))
	case Bool:
		if c {
			return "True"
		}
		return "False"
	case Unit:
		return "()"
	case DataConst:
		return FormatData(c.Value)
	case ListConst:
		items := make([]string, len(c.Items))
		for i, it := range c.Items {
			items[i] = formatConstantValue(it)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case PairConst:
		return "(" + formatConstantValue(c.First) + ", " + formatConstantValue(c.Second) + ")"
	case G1Element:
		return fmt.Sprintf("0x%x", []byte(c))
	case G2Element:
		return fmt.Sprintf("0x%x", []byte(c))
	default:
		return "?"
	}
}
