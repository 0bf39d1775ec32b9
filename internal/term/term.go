// Package term is the untyped output language of the lowering engine.
//
// Terms carry no type or representation metadata. Every value is a native
// constant, a data envelope, a builtin pair or list, or a closure; which one
// was decided before lowering and is implicit in the shape of the code.
package term

import (
	"math/big"

	"github.com/roach88/scriptc/internal/ir"
)

// Term is a sealed interface over lowered term nodes.
// Only Var, Lambda, Apply, Delay, Force, Const, Builtin and Error implement it.
type Term interface {
	termNode()
}

// Var references the nearest enclosing Lambda binding Name.
type Var struct {
	Name string
}

// Lambda is a single-parameter abstraction.
type Lambda struct {
	Param string
	Body  Term
}

// Apply applies Fn to Arg.
type Apply struct {
	Fn  Term
	Arg Term
}

// Delay suspends evaluation of Body.
type Delay struct {
	Body Term
}

// Force evaluates a delayed term or instantiates a polymorphic builtin.
type Force struct {
	Body Term
}

// Const is a native constant.
type Const struct {
	Value ir.Constant
}

// Builtin references a builtin operator by name. Codes are assigned by the
// serializer from the dialect descriptor.
type Builtin struct {
	Name string
}

// Error aborts evaluation.
type Error struct{}

func (*Var) termNode()     {}
func (*Lambda) termNode()  {}
func (*Apply) termNode()   {}
func (*Delay) termNode()   {}
func (*Force) termNode()   {}
func (*Const) termNode()   {}
func (*Builtin) termNode() {}
func (*Error) termNode()   {}

// Binding is a named top-level term.
type Binding struct {
	Name string
	Term Term
}

// Program is a lowered program before closing: specialized definitions in
// dependency order followed by the entry body. Definitions may reference
// any earlier definition.
type Program struct {
	Defs []Binding
	Body Term
}

// Close nests the definitions around the body as immediately applied
// lambdas, producing a single closed term.
func (p *Program) Close() Term {
	body := p.Body
	for i := len(p.Defs) - 1; i >= 0; i-- {
		d := p.Defs[i]
		body = &Apply{Fn: &Lambda{Param: d.Name, Body: body}, Arg: d.Term}
	}
	return body
}

// DefNames returns the binding names in order.
func (p *Program) DefNames() []string {
	out := make([]string, len(p.Defs))
	for i, d := range p.Defs {
		out[i] = d.Name
	}
	return out
}

// App applies fn to args left to right.
func App(fn Term, args ...Term) Term {
	t := fn
	for _, a := range args {
		t = &Apply{Fn: t, Arg: a}
	}
	return t
}

// Lam abstracts body over params, outermost first.
func Lam(body Term, params ...string) Term {
	t := body
	for i := len(params) - 1; i >= 0; i-- {
		t = &Lambda{Param: params[i], Body: t}
	}
	return t
}

// ForceN wraps t in n Force nodes.
func ForceN(t Term, n int) Term {
	for range n {
		t = &Force{Body: t}
	}
	return t
}

// Int is shorthand for an integer constant.
func Int(n int64) Term {
	return &Const{Value: ir.Integer{Value: big.NewInt(n)}}
}

// Unit is shorthand for the unit constant.
func Unit() Term {
	return &Const{Value: ir.Unit{}}
}

// DataConst is shorthand for a data constant.
func DataConst(d ir.Data) Term {
	return &Const{Value: ir.DataConst{Value: d}}
}

// Let binds value to name within body as an immediately applied lambda.
func Let(name string, value, body Term) Term {
	return &Apply{Fn: &Lambda{Param: name, Body: body}, Arg: value}
}

// Walk visits t and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(t Term, fn func(Term) bool) {
	if t == nil || !fn(t) {
		return
	}
	switch t := t.(type) {
	case *Lambda:
		Walk(t.Body, fn)
	case *Apply:
		Walk(t.Fn, fn)
		Walk(t.Arg, fn)
	case *Delay:
		Walk(t.Body, fn)
	case *Force:
		Walk(t.Body, fn)
	}
}

// Size returns the number of nodes in t.
func Size(t Term) int {
	n := 0
	Walk(t, func(Term) bool {
		n++
		return true
	})
	return n
}

// FreeVars returns the names referenced by t that no enclosing Lambda
// binds, in order of first occurrence.
func FreeVars(t Term) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Term, map[string]int)
	walk = func(t Term, bound map[string]int) {
		switch t := t.(type) {
		case *Var:
			if bound[t.Name] == 0 && !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, t.Name)
			}
		case *Lambda:
			bound[t.Param]++
			walk(t.Body, bound)
			bound[t.Param]--
		case *Apply:
			walk(t.Fn, bound)
			walk(t.Arg, bound)
		case *Delay:
			walk(t.Body, bound)
		case *Force:
			walk(t.Body, bound)
		}
	}
	walk(t, map[string]int{})
	return out
}

// AlphaEqual reports whether a and b are the same term up to renaming of
// bound variables. Free variables compare by name.
func AlphaEqual(a, b Term) bool {
	return alphaEqual(a, b, nil, nil)
}

func alphaEqual(a, b Term, envA, envB []string) bool {
	switch a := a.(type) {
	case *Var:
		bv, ok := b.(*Var)
		if !ok {
			return false
		}
		ia, ib := lookup(envA, a.Name), lookup(envB, bv.Name)
		if ia == 0 && ib == 0 {
			return a.Name == bv.Name
		}
		return ia == ib
	case *Lambda:
		bl, ok := b.(*Lambda)
		return ok && alphaEqual(a.Body, bl.Body, append(envA, a.Param), append(envB, bl.Param))
	case *Apply:
		ba, ok := b.(*Apply)
		return ok && alphaEqual(a.Fn, ba.Fn, envA, envB) && alphaEqual(a.Arg, ba.Arg, envA, envB)
	case *Delay:
		bd, ok := b.(*Delay)
		return ok && alphaEqual(a.Body, bd.Body, envA, envB)
	case *Force:
		bf, ok := b.(*Force)
		return ok && alphaEqual(a.Body, bf.Body, envA, envB)
	case *Const:
		bc, ok := b.(*Const)
		return ok && ir.ConstantEqual(a.Value, bc.Value)
	case *Builtin:
		bb, ok := b.(*Builtin)
		return ok && a.Name == bb.Name
	case *Error:
		_, ok := b.(*Error)
		return ok
	default:
		return false
	}
}

// lookup returns the 1-based de Bruijn index of name in env, or 0 if unbound.
func lookup(env []string, name string) int {
	for i := len(env) - 1; i >= 0; i-- {
		if env[i] == name {
			return len(env) - i
		}
	}
	return 0
}

// Index returns the 1-based de Bruijn index of name given the enclosing
// binders (innermost last), or 0 if the name is unbound.
func Index(env []string, name string) int {
	return lookup(env, name)
}
