package lower

import (
	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/resolve"
	"github.com/roach88/scriptc/internal/term"
)

func (l *lowerer) expr(e ir.Expr) (term.Term, error) {
	if e == nil {
		return nil, diag.Malformed(l.decl, ir.Loc{}, "missing expression")
	}
	info := e.Info()
	if info.Repr == ir.ReprUnresolved {
		return nil, diag.Malformed(l.decl, info.Loc, "%s node has no representation; resolve the program first", ir.NodeKind(e))
	}
	if !ir.Admits(info.Type, info.Repr, l.res.DataReprs) {
		want, _ := l.res.ReprOf(info.Type)
		return nil, diag.Mismatch(typeName(info.Type), info.Repr, want, l.decl, info.Loc)
	}

	switch e := e.(type) {
	case *ir.Var:
		return &term.Var{Name: l.local(e.Name)}, nil
	case *ir.Inst:
		return &term.Var{Name: resolve.InstanceKey(e.Def, e.TypeArgs)}, nil
	case *ir.Lit:
		return l.literal(e.Value, e.Loc)
	case *ir.Lambda:
		param := l.bind(e.Param)
		body, err := l.expr(e.Body)
		l.unbind(e.Param)
		if err != nil {
			return nil, err
		}
		return &term.Lambda{Param: param, Body: body}, nil
	case *ir.Apply:
		fn, err := l.expr(e.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := l.expr(e.Arg)
		if err != nil {
			return nil, err
		}
		return &term.Apply{Fn: fn, Arg: arg}, nil
	case *ir.Let:
		value, err := l.expr(e.Value)
		if err != nil {
			return nil, err
		}
		name := l.bind(e.Name)
		body, err := l.expr(e.Body)
		l.unbind(e.Name)
		if err != nil {
			return nil, err
		}
		return term.Let(name, value, body), nil
	case *ir.If:
		cond, err := l.expr(e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := l.expr(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := l.expr(e.Else)
		if err != nil {
			return nil, err
		}
		return l.ite(cond, then, els, e.Loc)
	case *ir.Fail:
		if e.Message == "" {
			return &term.Error{}, nil
		}
		traced, err := l.call("trace", e.Loc, &term.Const{Value: ir.String(e.Message)}, &term.Delay{Body: &term.Error{}})
		if err != nil {
			return nil, err
		}
		return &term.Force{Body: traced}, nil
	case *ir.Builtin:
		return l.builtinCall(e)
	case *ir.Construct:
		return l.construct(e)
	case *ir.Case:
		return l.caseExpr(e)
	default:
		return nil, diag.Malformed(l.decl, info.Loc, "unsupported expression %T", e)
	}
}

func (l *lowerer) builtinCall(e *ir.Builtin) (term.Term, error) {
	b, ok := l.d.Builtin(e.Name)
	if !ok {
		return nil, diag.UnknownBuiltin(e.Name, l.d.Version.String(), l.decl, e.Loc)
	}
	if len(e.Args) != b.Arity {
		return nil, diag.Malformed(l.decl, e.Loc, "builtin %s takes %d arguments, got %d", e.Name, b.Arity, len(e.Args))
	}
	args := make([]term.Term, len(e.Args))
	for i, a := range e.Args {
		t, err := l.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return term.App(term.ForceN(&term.Builtin{Name: b.Name}, b.Forces), args...), nil
}

func typeName(t ir.Type) string {
	if t == nil {
		return "<untyped>"
	}
	return t.String()
}
