package testutil

import (
	"github.com/roach88/scriptc/internal/ir"
)

// Expression builders. They keep fixtures readable; none of them set
// representations, which only the resolver writes.

// Var references a binder or a monomorphic definition.
func Var(name string) *ir.Var {
	return &ir.Var{Name: name}
}

// Int is an integer literal.
func Int(n int64) *ir.Lit {
	return &ir.Lit{Value: ir.NewInteger(n)}
}

// Bytes is a bytestring literal.
func Bytes(b ...byte) *ir.Lit {
	return &ir.Lit{Value: ir.ByteStr(b)}
}

// Str is a string literal.
func Str(s string) *ir.Lit {
	return &ir.Lit{Value: ir.String(s)}
}

// Bool is a boolean literal.
func Bool(b bool) *ir.Lit {
	return &ir.Lit{Value: ir.Bool(b)}
}

// Lam is a single-parameter lambda.
func Lam(param string, t ir.Type, body ir.Expr) *ir.Lambda {
	return &ir.Lambda{Param: param, ParamType: t, Body: body}
}

// Call applies fn to args left to right.
func Call(fn ir.Expr, args ...ir.Expr) ir.Expr {
	e := fn
	for _, a := range args {
		e = &ir.Apply{Fn: e, Arg: a}
	}
	return e
}

// Builtin is a saturated builtin call with the given result type.
func Builtin(name string, result ir.Type, args ...ir.Expr) *ir.Builtin {
	return &ir.Builtin{Meta: ir.Meta{Type: result}, Name: name, Args: args}
}

// Con constructs a value of data type t.
func Con(t ir.Type, ctor string, args ...ir.Expr) *ir.Construct {
	return &ir.Construct{Meta: ir.Meta{Type: t}, Constructor: ctor, Args: args}
}

// Inst instantiates a definition.
func Inst(def string, args ...ir.Type) *ir.Inst {
	return &ir.Inst{Def: def, TypeArgs: args}
}

// Alt is a case alternative.
func Alt(ctor string, body ir.Expr, binds ...string) ir.Alt {
	return ir.Alt{Constructor: ctor, Binds: binds, Body: body}
}

// Match is a case expression without a default.
func Match(scrut ir.Expr, alts ...ir.Alt) *ir.Case {
	return &ir.Case{Scrutinee: scrut, Alts: alts}
}
