package resolve

import (
	"fmt"
	"slices"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
)

// scope is the state of one bottom-up walk: the entry, or one instance.
// Scopes share nothing but the resolver's instance table.
type scope struct {
	r      *resolver
	subst  ir.Subst
	decl   string
	chain  []string
	locals map[string][]ir.Type
	deps   map[string]bool

	self    string
	selfRef bool
}

func (r *resolver) newScope(subst ir.Subst, decl string, chain []string) *scope {
	return &scope{
		r:      r,
		subst:  subst,
		decl:   decl,
		chain:  chain,
		locals: make(map[string][]ir.Type),
		deps:   make(map[string]bool),
	}
}

func (s *scope) sortedDeps() []string {
	out := make([]string, 0, len(s.deps))
	for k := range s.deps {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// binder rejects source names from the compiler's namespace.
func (s *scope) binder(name string, loc ir.Loc) error {
	if ir.IsReserved(name) {
		return diag.Malformed(s.decl, loc, "binder %s uses the reserved prefix %q", name, ir.ReservedPrefix)
	}
	return nil
}

func (s *scope) push(name string, t ir.Type) {
	s.locals[name] = append(s.locals[name], t)
}

func (s *scope) pop(name string) {
	stack := s.locals[name]
	s.locals[name] = stack[:len(stack)-1]
}

func (s *scope) local(name string) (ir.Type, bool) {
	stack := s.locals[name]
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1], true
}

// closed substitutes t and rejects any surviving type variable.
func (s *scope) closed(t ir.Type, loc ir.Loc, what string) (ir.Type, error) {
	t = s.subst.Apply(t)
	if fv := ir.FreeVars(t); len(fv) > 0 {
		return nil, diag.Unresolved(fv[0], s.decl, s.chain, loc, what+" has type "+t.String())
	}
	return t, nil
}

// meta builds the annotation for a node of type t.
func (s *scope) meta(t ir.Type, loc ir.Loc, what string) (ir.Meta, error) {
	ct, err := s.closed(t, loc, what)
	if err != nil {
		return ir.Meta{}, err
	}
	repr, _, ok := reprOf(ct, s.r.reprs)
	if !ok {
		return ir.Meta{}, diag.Malformed(s.decl, loc, "%s has type %s, which names an undeclared data type", what, ct)
	}
	if dt, isData := ct.(ir.DataType); isData {
		decl, _ := s.r.prog.DataDecl(dt.Name)
		if len(dt.Args) != len(decl.TypeParams) {
			return ir.Meta{}, diag.Malformed(s.decl, loc,
				"%s takes %d type arguments, got %d", dt.Name, len(decl.TypeParams), len(dt.Args))
		}
	}
	return ir.Meta{Type: ct, Repr: repr, Loc: loc}, nil
}

// agree checks an explicit annotation against the inferred type. An
// annotation that still mentions a type variable after substitution is a
// leak and is rejected even when the inferred type is concrete.
func (s *scope) agree(given, inferred ir.Type, loc ir.Loc, what string) error {
	if given == nil {
		return nil
	}
	g, err := s.closed(given, loc, what)
	if err != nil {
		return err
	}
	if !ir.TypeEqual(g, inferred) {
		return diag.Malformed(s.decl, loc, "%s is annotated %s but has type %s", what, g, inferred)
	}
	return nil
}

func (s *scope) expr(e ir.Expr) (ir.Expr, error) {
	switch e := e.(type) {
	case *ir.Var:
		return s.variable(e)
	case *ir.Lit:
		return s.literal(e)
	case *ir.Lambda:
		return s.lambda(e)
	case *ir.Apply:
		return s.apply(e)
	case *ir.Let:
		return s.let(e)
	case *ir.Case:
		return s.caseExpr(e)
	case *ir.Construct:
		return s.construct(e)
	case *ir.Builtin:
		return s.builtin(e)
	case *ir.Inst:
		return s.inst(e)
	case *ir.If:
		return s.ifExpr(e)
	case *ir.Fail:
		if e.Type == nil {
			return nil, diag.Malformed(s.decl, e.Loc, "fail has no type")
		}
		m, err := s.meta(e.Type, e.Loc, "fail")
		if err != nil {
			return nil, err
		}
		return &ir.Fail{Meta: m, Message: e.Message}, nil
	case nil:
		return nil, diag.Malformed(s.decl, ir.Loc{}, "missing expression")
	default:
		return nil, diag.Malformed(s.decl, ir.Loc{}, "unsupported expression %T", e)
	}
}

func (s *scope) variable(e *ir.Var) (ir.Expr, error) {
	if t, ok := s.local(e.Name); ok {
		if err := s.agree(e.Type, t, e.Loc, "variable "+e.Name); err != nil {
			return nil, err
		}
		m, err := s.meta(t, e.Loc, "variable "+e.Name)
		if err != nil {
			return nil, err
		}
		return &ir.Var{Meta: m, Name: e.Name}, nil
	}

	def, ok := s.r.prog.Def(e.Name)
	if !ok {
		return nil, diag.Malformed(s.decl, e.Loc, "unbound variable %s", e.Name)
	}
	if def.IsGeneric() {
		return nil, diag.Unresolved(def.TypeParams[0], s.decl,
			append(slices.Clone(s.chain), chainLabel(def, nil)), e.Loc,
			fmt.Sprintf("generic definition %s is referenced without type arguments", def.Name))
	}
	return s.inst(&ir.Inst{Meta: e.Meta, Def: e.Name})
}

func (s *scope) inst(e *ir.Inst) (ir.Expr, error) {
	def, ok := s.r.prog.Def(e.Def)
	if !ok {
		return nil, diag.Malformed(s.decl, e.Loc, "instantiation of unknown definition %s", e.Def)
	}
	if len(e.TypeArgs) > len(def.TypeParams) {
		return nil, diag.Malformed(s.decl, e.Loc,
			"%s takes %d type arguments, got %d", def.Name, len(def.TypeParams), len(e.TypeArgs))
	}

	args := make([]ir.Type, len(e.TypeArgs))
	for i, a := range e.TypeArgs {
		args[i] = s.subst.Apply(a)
	}
	if len(args) < len(def.TypeParams) {
		return nil, diag.Unresolved(def.TypeParams[len(args)], s.decl,
			append(slices.Clone(s.chain), chainLabel(def, args)), e.Loc,
			fmt.Sprintf("%s is instantiated without an argument for %s", def.Name, def.TypeParams[len(args)]))
	}
	for _, a := range args {
		if fv := ir.FreeVars(a); len(fv) > 0 {
			return nil, diag.Unresolved(fv[0], s.decl,
				append(slices.Clone(s.chain), chainLabel(def, args)), e.Loc,
				fmt.Sprintf("%s is instantiated at %s", def.Name, a))
		}
	}

	inst, err := s.r.demand(def, args, s.chain)
	if err != nil {
		return nil, err
	}
	if inst.Key == s.self {
		s.selfRef = true
	} else {
		s.deps[inst.Key] = true
	}

	t := ir.NewSubst(def.TypeParams, args).Apply(def.Type)
	if err := s.agree(e.Type, t, e.Loc, "reference to "+inst.Key); err != nil {
		return nil, err
	}
	m, err := s.meta(t, e.Loc, "reference to "+inst.Key)
	if err != nil {
		return nil, err
	}
	return &ir.Inst{Meta: m, Def: def.Name, TypeArgs: args}, nil
}

func (s *scope) literal(e *ir.Lit) (ir.Expr, error) {
	if e.Value == nil {
		return nil, diag.Malformed(s.decl, e.Loc, "literal has no value")
	}
	t, ok := constType(e.Value.Type())
	if !ok {
		return nil, diag.Malformed(s.decl, e.Loc, "literal of shape %s has no IR type", e.Value.Type())
	}
	if err := s.agree(e.Type, t, e.Loc, "literal"); err != nil {
		return nil, err
	}
	m, err := s.meta(t, e.Loc, "literal")
	if err != nil {
		return nil, err
	}
	return &ir.Lit{Meta: m, Value: e.Value}, nil
}

// constType maps a constant's shape to the IR type it inhabits.
func constType(c ir.ConstType) (ir.Type, bool) {
	switch c.Kind {
	case ir.KindList:
		if len(c.Args) != 1 {
			return nil, false
		}
		elem, ok := constType(c.Args[0])
		return ir.ListType{Elem: elem}, ok
	case ir.KindPair:
		if len(c.Args) != 2 {
			return nil, false
		}
		a, okA := constType(c.Args[0])
		b, okB := constType(c.Args[1])
		return ir.PairType{First: a, Second: b}, okA && okB
	case 0:
		return nil, false
	default:
		return ir.PrimType{Kind: c.Kind}, true
	}
}

func (s *scope) lambda(e *ir.Lambda) (ir.Expr, error) {
	if err := s.binder(e.Param, e.Loc); err != nil {
		return nil, err
	}
	if e.ParamType == nil {
		return nil, diag.Malformed(s.decl, e.Loc, "parameter %s has no type", e.Param)
	}
	pt, err := s.closed(e.ParamType, e.Loc, "parameter "+e.Param)
	if err != nil {
		return nil, err
	}

	s.push(e.Param, pt)
	body, err := s.expr(e.Body)
	s.pop(e.Param)
	if err != nil {
		return nil, err
	}

	t := ir.FuncType{Param: pt, Result: body.Info().Type}
	if err := s.agree(e.Type, t, e.Loc, "lambda"); err != nil {
		return nil, err
	}
	m, err := s.meta(t, e.Loc, "lambda")
	if err != nil {
		return nil, err
	}
	return &ir.Lambda{Meta: m, Param: e.Param, ParamType: pt, Body: body}, nil
}

func (s *scope) apply(e *ir.Apply) (ir.Expr, error) {
	fn, err := s.expr(e.Fn)
	if err != nil {
		return nil, err
	}
	arg, err := s.expr(e.Arg)
	if err != nil {
		return nil, err
	}

	ft, ok := fn.Info().Type.(ir.FuncType)
	if !ok {
		return nil, diag.Malformed(s.decl, e.Loc, "applying a non-function of type %s", fn.Info().Type)
	}
	if !ir.TypeEqual(ft.Param, arg.Info().Type) {
		return nil, diag.Malformed(s.decl, e.Loc,
			"argument has type %s, function expects %s", arg.Info().Type, ft.Param)
	}
	if err := s.agree(e.Type, ft.Result, e.Loc, "application"); err != nil {
		return nil, err
	}
	m, err := s.meta(ft.Result, e.Loc, "application")
	if err != nil {
		return nil, err
	}
	return &ir.Apply{Meta: m, Fn: fn, Arg: arg}, nil
}

func (s *scope) let(e *ir.Let) (ir.Expr, error) {
	if err := s.binder(e.Name, e.Loc); err != nil {
		return nil, err
	}
	value, err := s.expr(e.Value)
	if err != nil {
		return nil, err
	}
	s.push(e.Name, value.Info().Type)
	body, err := s.expr(e.Body)
	s.pop(e.Name)
	if err != nil {
		return nil, err
	}

	t := body.Info().Type
	if err := s.agree(e.Type, t, e.Loc, "let "+e.Name); err != nil {
		return nil, err
	}
	m, err := s.meta(t, e.Loc, "let "+e.Name)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Meta: m, Name: e.Name, Value: value, Body: body}, nil
}

func (s *scope) ifExpr(e *ir.If) (ir.Expr, error) {
	cond, err := s.expr(e.Cond)
	if err != nil {
		return nil, err
	}
	if !ir.TypeEqual(cond.Info().Type, ir.Boolean) {
		return nil, diag.Malformed(s.decl, e.Loc, "condition has type %s, want Bool", cond.Info().Type)
	}
	then, err := s.expr(e.Then)
	if err != nil {
		return nil, err
	}
	els, err := s.expr(e.Else)
	if err != nil {
		return nil, err
	}
	t := then.Info().Type
	if !ir.TypeEqual(t, els.Info().Type) {
		return nil, diag.Malformed(s.decl, e.Loc, "branches disagree: %s and %s", t, els.Info().Type)
	}
	if err := s.agree(e.Type, t, e.Loc, "if"); err != nil {
		return nil, err
	}
	m, err := s.meta(t, e.Loc, "if")
	if err != nil {
		return nil, err
	}
	return &ir.If{Meta: m, Cond: cond, Then: then, Else: els}, nil
}

func (s *scope) builtin(e *ir.Builtin) (ir.Expr, error) {
	if e.Type == nil {
		return nil, diag.Malformed(s.decl, e.Loc, "builtin %s has no result type", e.Name)
	}
	args := make([]ir.Expr, len(e.Args))
	for i, a := range e.Args {
		ra, err := s.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = ra
	}
	m, err := s.meta(e.Type, e.Loc, "builtin "+e.Name)
	if err != nil {
		return nil, err
	}
	return &ir.Builtin{Meta: m, Name: e.Name, Args: args}, nil
}

// dataType returns the closed data type and declaration behind t.
func (s *scope) dataType(t ir.Type, loc ir.Loc, what string) (ir.DataType, *ir.DataDecl, error) {
	ct, err := s.closed(t, loc, what)
	if err != nil {
		return ir.DataType{}, nil, err
	}
	dt, ok := ct.(ir.DataType)
	if !ok {
		repr, _, _ := reprOf(ct, s.r.reprs)
		return ir.DataType{}, nil, diag.Mismatch(ct.String(), repr, ir.DataEncoded, s.decl, loc)
	}
	decl, ok := s.r.prog.DataDecl(dt.Name)
	if !ok {
		return ir.DataType{}, nil, diag.Malformed(s.decl, loc, "unknown data type %s", dt.Name)
	}
	if len(dt.Args) != len(decl.TypeParams) {
		return ir.DataType{}, nil, diag.Malformed(s.decl, loc,
			"%s takes %d type arguments, got %d", dt.Name, len(decl.TypeParams), len(dt.Args))
	}
	return dt, decl, nil
}

func (s *scope) construct(e *ir.Construct) (ir.Expr, error) {
	if e.Type == nil {
		return nil, diag.Malformed(s.decl, e.Loc, "constructor %s has no data type", e.Constructor)
	}
	dt, decl, err := s.dataType(e.Type, e.Loc, "constructor "+e.Constructor)
	if err != nil {
		return nil, err
	}
	ctor, _, ok := decl.Constructor(e.Constructor)
	if !ok {
		return nil, diag.Malformed(s.decl, e.Loc, "%s has no constructor %s", decl.Name, e.Constructor)
	}
	if len(e.Args) != len(ctor.Fields) {
		return nil, diag.Malformed(s.decl, e.Loc,
			"constructor %s takes %d fields, got %d", ctor.Name, len(ctor.Fields), len(e.Args))
	}

	fieldTypes := decl.FieldTypes(ctor, dt.Args)
	args := make([]ir.Expr, len(e.Args))
	for i, a := range e.Args {
		ra, err := s.expr(a)
		if err != nil {
			return nil, err
		}
		if !ir.TypeEqual(ra.Info().Type, fieldTypes[i]) {
			return nil, diag.Malformed(s.decl, e.Loc, "field %s.%s has type %s, got %s",
				ctor.Name, ctor.Fields[i].Name, fieldTypes[i], ra.Info().Type)
		}
		args[i] = ra
	}

	m, err := s.meta(dt, e.Loc, "constructor "+e.Constructor)
	if err != nil {
		return nil, err
	}
	return &ir.Construct{Meta: m, Constructor: e.Constructor, Args: args}, nil
}

func (s *scope) caseExpr(e *ir.Case) (ir.Expr, error) {
	scrut, err := s.expr(e.Scrutinee)
	if err != nil {
		return nil, err
	}
	dt, decl, err := s.dataType(scrut.Info().Type, e.Loc, "case scrutinee")
	if err != nil {
		return nil, err
	}

	var resultType ir.Type
	unify := func(body ir.Expr) error {
		bt := body.Info().Type
		if resultType == nil {
			resultType = bt
			return nil
		}
		if !ir.TypeEqual(resultType, bt) {
			return diag.Malformed(s.decl, e.Loc, "case alternatives disagree: %s and %s", resultType, bt)
		}
		return nil
	}

	seen := make(map[string]bool, len(e.Alts))
	alts := make([]ir.Alt, len(e.Alts))
	for i, a := range e.Alts {
		ctor, _, ok := decl.Constructor(a.Constructor)
		if !ok {
			return nil, diag.Malformed(s.decl, e.Loc, "%s has no constructor %s", decl.Name, a.Constructor)
		}
		if seen[a.Constructor] {
			return nil, diag.Malformed(s.decl, e.Loc, "constructor %s is matched twice", a.Constructor)
		}
		seen[a.Constructor] = true
		if len(a.Binds) != len(ctor.Fields) {
			return nil, diag.Malformed(s.decl, e.Loc,
				"pattern %s binds %d fields, constructor has %d", a.Constructor, len(a.Binds), len(ctor.Fields))
		}

		for _, b := range a.Binds {
			if err := s.binder(b, e.Loc); err != nil {
				return nil, err
			}
		}

		fieldTypes := decl.FieldTypes(ctor, dt.Args)
		for j, b := range a.Binds {
			s.push(b, fieldTypes[j])
		}
		body, err := s.expr(a.Body)
		for j := len(a.Binds) - 1; j >= 0; j-- {
			s.pop(a.Binds[j])
		}
		if err != nil {
			return nil, err
		}
		if err := unify(body); err != nil {
			return nil, err
		}
		alts[i] = ir.Alt{Constructor: a.Constructor, Binds: slices.Clone(a.Binds), Body: body}
	}

	var def ir.Expr
	if e.Default != nil {
		def, err = s.expr(e.Default)
		if err != nil {
			return nil, err
		}
		if err := unify(def); err != nil {
			return nil, err
		}
	}
	if resultType == nil {
		return nil, diag.Malformed(s.decl, e.Loc, "case over %s has no alternatives", dt)
	}

	if err := s.agree(e.Type, resultType, e.Loc, "case"); err != nil {
		return nil, err
	}
	m, err := s.meta(resultType, e.Loc, "case")
	if err != nil {
		return nil, err
	}
	return &ir.Case{Meta: m, Scrutinee: scrut, Alts: alts, Default: def}, nil
}
