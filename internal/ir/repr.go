package ir

// Representation is the concrete runtime encoding chosen for a value in the
// untyped target. It is a closed enumeration; the zero value marks a node the
// resolver has not annotated yet.
type Representation uint8

const (
	// ReprUnresolved is carried by unannotated input only. Lowering never
	// accepts it.
	ReprUnresolved Representation = iota

	// BuiltinUnboxed is a native constant of a primitive kind.
	BuiltinUnboxed

	// DataEncoded is a sum-of-products value inside the generic tagged
	// constructor envelope.
	DataEncoded

	// PairEncoded is a builtin pair whose components are data-encoded.
	PairEncoded

	// ListEncoded is a builtin list whose elements are data-encoded.
	ListEncoded

	// FunctionRepresentation is a closure.
	FunctionRepresentation
)

var reprNames = map[Representation]string{
	ReprUnresolved:         "Unresolved",
	BuiltinUnboxed:         "BuiltinUnboxed",
	DataEncoded:            "DataEncoded",
	PairEncoded:            "PairEncoded",
	ListEncoded:            "ListEncoded",
	FunctionRepresentation: "FunctionRepresentation",
}

func (r Representation) String() string {
	if name, ok := reprNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Admits reports whether a value of type t may be realized with
// representation r. Data type representations come from dataReprs, which the
// resolver fills once per declaration.
func Admits(t Type, r Representation, dataReprs map[string]Representation) bool {
	switch t := t.(type) {
	case PrimType:
		if t.Kind == KindData {
			return r == DataEncoded
		}
		return r == BuiltinUnboxed
	case ListType:
		return r == ListEncoded
	case PairType:
		return r == PairEncoded
	case FuncType:
		return r == FunctionRepresentation
	case DataType:
		declared, ok := dataReprs[t.Name]
		return ok && declared == r
	default:
		return false
	}
}
