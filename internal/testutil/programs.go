package testutil

import (
	"github.com/roach88/scriptc/internal/ir"
)

// Fixture types.
var (
	// ActionType is Action = Pay { amount: Integer } | Refund { ref: ByteString }.
	ActionType = ir.DataType{Name: "Action"}

	// T is the type variable used by generic fixtures.
	T = ir.TypeVar{Name: "T"}
)

// BoxOf returns Box[arg].
func BoxOf(arg ir.Type) ir.DataType {
	return ir.DataType{Name: "Box", Args: []ir.Type{arg}}
}

// ActionDecl declares the two-variant Action sum type. Pay is tag 0.
func ActionDecl() ir.DataDecl {
	return ir.DataDecl{
		Name: "Action",
		Constructors: []ir.Constructor{
			{Name: "Pay", Fields: []ir.Field{{Name: "amount", Type: ir.IntegerType}}},
			{Name: "Refund", Fields: []ir.Field{{Name: "ref", Type: ir.ByteString}}},
		},
	}
}

// BoxDecl declares the single-field generic wrapper Box[T].
func BoxDecl() ir.DataDecl {
	return ir.DataDecl{
		Name:       "Box",
		TypeParams: []string{"T"},
		Constructors: []ir.Constructor{
			{Name: "Box", Fields: []ir.Field{{Name: "value", Type: T}}},
		},
	}
}

// PointDecl declares a two-field record, which resolves to PairEncoded.
func PointDecl() ir.DataDecl {
	return ir.DataDecl{
		Name: "Point",
		Constructors: []ir.Constructor{
			{Name: "Point", Fields: []ir.Field{{Name: "x", Type: ir.IntegerType}, {Name: "y", Type: ir.IntegerType}}},
		},
	}
}

// DescribeDef is describe : Action -> Integer, matching both variants in
// declaration order.
func DescribeDef() ir.Definition {
	return ir.Definition{
		Name: "describe",
		Type: ir.Func(ir.IntegerType, ActionType),
		Body: Lam("a", ActionType, Match(Var("a"),
			Alt("Pay", Var("amount"), "amount"),
			Alt("Refund", Builtin("lengthOfByteString", ir.IntegerType, Var("ref")), "ref"),
		)),
	}
}

// UnboxDef is unbox[T] : Box[T] -> T.
func UnboxDef() ir.Definition {
	return ir.Definition{
		Name:       "unbox",
		TypeParams: []string{"T"},
		Type:       ir.Func(T, BoxOf(T)),
		Body:       Lam("b", BoxOf(T), Match(Var("b"), Alt("Box", Var("v"), "v"))),
	}
}

// ActionProgram is the two-variant end-to-end program: describe (Pay 42).
func ActionProgram() *ir.Program {
	return &ir.Program{
		Name:      "action",
		Target:    "v3",
		DataDecls: []ir.DataDecl{ActionDecl()},
		Defs:      []ir.Definition{DescribeDef()},
		Entry:     Call(Var("describe"), Con(ActionType, "Pay", Int(42))),
	}
}

// BoxProgram exercises monomorphization: unbox is instantiated at Action and
// at Integer, and the unused definition is never instantiated.
func BoxProgram() *ir.Program {
	return &ir.Program{
		Name:      "box",
		Target:    "v3",
		DataDecls: []ir.DataDecl{ActionDecl(), BoxDecl()},
		Defs: []ir.Definition{
			UnboxDef(),
			DescribeDef(),
			{
				Name: "unused",
				Type: ir.IntegerType,
				Body: Int(0),
			},
		},
		Entry: Builtin("addInteger", ir.IntegerType,
			Call(Var("describe"),
				Call(Inst("unbox", ActionType), Con(BoxOf(ActionType), "Box", Con(ActionType, "Refund", Bytes(0xca, 0xfe))))),
			Call(Inst("unbox", ir.IntegerType), Con(BoxOf(ir.IntegerType), "Box", Int(7))),
		),
	}
}

// LeakProgram is the type-variable leak: a Box holding an Action is unwrapped
// through the generic accessor without type arguments, its result still typed
// T, and immediately matched.
func LeakProgram() *ir.Program {
	unwrapped := &ir.Apply{
		Meta: ir.Meta{Type: T},
		Fn:   Var("unbox"),
		Arg:  Con(BoxOf(ActionType), "Box", Con(ActionType, "Pay", Int(1))),
	}
	return &ir.Program{
		Name:      "leak",
		Target:    "v3",
		DataDecls: []ir.DataDecl{ActionDecl(), BoxDecl()},
		Defs:      []ir.Definition{UnboxDef()},
		Entry: Match(unwrapped,
			Alt("Pay", Var("n"), "n"),
			Alt("Refund", Int(0), "r"),
		),
	}
}

// SumToProgram is a self-recursive definition: sumTo n = n + sumTo (n - 1).
func SumToProgram() *ir.Program {
	n := Var("n")
	return &ir.Program{
		Name:   "sumto",
		Target: "v1",
		Defs: []ir.Definition{{
			Name: "sumTo",
			Type: ir.Func(ir.IntegerType, ir.IntegerType),
			Body: Lam("n", ir.IntegerType, &ir.If{
				Cond: Builtin("lessThanEqualsInteger", ir.Boolean, n, Int(0)),
				Then: Int(0),
				Else: Builtin("addInteger", ir.IntegerType, n,
					Call(Var("sumTo"), Builtin("subtractInteger", ir.IntegerType, n, Int(1)))),
			}),
		}},
		Entry: Call(Var("sumTo"), Int(10)),
	}
}

// PointProgram builds a PairEncoded record from a non-literal field and reads
// it back: case Point (1 + 2) 3 of Point x y -> x * y.
func PointProgram() *ir.Program {
	pt := ir.DataType{Name: "Point"}
	return &ir.Program{
		Name:      "point",
		Target:    "v2",
		DataDecls: []ir.DataDecl{PointDecl()},
		Entry: Match(
			Con(pt, "Point", Builtin("addInteger", ir.IntegerType, Int(1), Int(2)), Int(3)),
			Alt("Point", Builtin("multiplyInteger", ir.IntegerType, Var("x"), Var("y")), "x", "y"),
		),
	}
}
