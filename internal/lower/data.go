package lower

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/term"
)

// dataDecl returns the declaration behind a closed data type.
func (l *lowerer) dataDecl(t ir.Type, loc ir.Loc) (ir.DataType, *ir.DataDecl, error) {
	dt, ok := t.(ir.DataType)
	if !ok {
		return ir.DataType{}, nil, diag.Mismatch(typeName(t), ir.BuiltinUnboxed, ir.DataEncoded, l.decl, loc)
	}
	decl, ok := l.res.Program.DataDecl(dt.Name)
	if !ok {
		return ir.DataType{}, nil, diag.Malformed(l.decl, loc, "unknown data type %s", dt.Name)
	}
	return dt, decl, nil
}

// construct lowers a constructor application.
//
// DataEncoded: constrData tag [toData f0, ...], folded into a single data
// constant when every field is a literal. PairEncoded: mkPairData of the two
// converted fields, folded into a pair constant when both are literals.
func (l *lowerer) construct(e *ir.Construct) (term.Term, error) {
	dt, decl, err := l.dataDecl(e.Type, e.Loc)
	if err != nil {
		return nil, err
	}
	ctor, tag, ok := decl.Constructor(e.Constructor)
	if !ok {
		return nil, diag.Malformed(l.decl, e.Loc, "%s has no constructor %s", decl.Name, e.Constructor)
	}
	fieldTypes := decl.FieldTypes(ctor, dt.Args)

	if folded, ok, err := l.foldConstruct(e, tag); ok || err != nil {
		return folded, err
	}

	fields := make([]term.Term, len(e.Args))
	for i, a := range e.Args {
		if lit, ok := a.(*ir.Lit); ok {
			if err := l.checkKinds(lit.Value, lit.Loc); err != nil {
				return nil, err
			}
			fields[i] = term.DataConst(toDataConst(lit.Value))
			continue
		}
		v, err := l.expr(a)
		if err != nil {
			return nil, err
		}
		fields[i], err = l.toData(v, fieldTypes[i], a.Info().Loc)
		if err != nil {
			return nil, err
		}
	}

	if e.Repr == ir.PairEncoded {
		return l.call("mkPairData", e.Loc, fields[0], fields[1])
	}

	nilData, err := l.call("mkNilData", e.Loc, term.Unit())
	if err != nil {
		return nil, err
	}
	list := nilData
	for i := len(fields) - 1; i >= 0; i-- {
		list, err = l.call("mkCons", e.Loc, fields[i], list)
		if err != nil {
			return nil, err
		}
	}
	return l.call("constrData", e.Loc, term.Int(int64(tag)), list)
}

// foldConstruct evaluates a constructor whose fields are all literals.
func (l *lowerer) foldConstruct(e *ir.Construct, tag int) (term.Term, bool, error) {
	fields := make([]ir.Data, len(e.Args))
	for i, a := range e.Args {
		lit, ok := a.(*ir.Lit)
		if !ok {
			return nil, false, nil
		}
		if err := l.checkKinds(lit.Value, lit.Loc); err != nil {
			return nil, false, err
		}
		fields[i] = toDataConst(lit.Value)
	}
	if e.Repr == ir.PairEncoded {
		return &term.Const{Value: ir.PairConst{
			First:  ir.DataConst{Value: fields[0]},
			Second: ir.DataConst{Value: fields[1]},
		}}, true, nil
	}
	return term.DataConst(ir.Constr(uint64(tag), fields...)), true, nil
}

// caseExpr lowers a case analysis. Exhaustiveness is checked first: a
// constructor that has neither an alternative nor a default fails the case.
func (l *lowerer) caseExpr(e *ir.Case) (term.Term, error) {
	dt, decl, err := l.dataDecl(e.Scrutinee.Info().Type, e.Loc)
	if err != nil {
		return nil, err
	}

	declared := set.From(decl.ConstructorNames())
	covered := set.New[string](len(e.Alts))
	alts := make(map[string]ir.Alt, len(e.Alts))
	for _, a := range e.Alts {
		if !declared.Contains(a.Constructor) {
			return nil, diag.Malformed(l.decl, e.Loc, "%s has no constructor %s", decl.Name, a.Constructor)
		}
		if covered.Contains(a.Constructor) {
			return nil, diag.Malformed(l.decl, e.Loc, "constructor %s is matched twice", a.Constructor)
		}
		covered.Insert(a.Constructor)
		alts[a.Constructor] = a
	}

	var missing []string
	for _, name := range decl.ConstructorNames() {
		if !covered.Contains(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 && e.Default == nil {
		return nil, diag.NonExhaustive(dt.String(), missing, l.decl, e.Loc)
	}

	scrut, err := l.expr(e.Scrutinee)
	if err != nil {
		return nil, err
	}

	// A default covering several constructors is bound once as a thunk.
	var fallback func() term.Term
	var wrap func(term.Term) term.Term
	if len(missing) > 0 {
		def, err := l.expr(e.Default)
		if err != nil {
			return nil, err
		}
		if len(missing) == 1 {
			fallback = func() term.Term { return def }
			wrap = func(t term.Term) term.Term { return t }
		} else {
			thunk := l.name("default")
			fallback = func() term.Term { return &term.Force{Body: &term.Var{Name: thunk}} }
			wrap = func(t term.Term) term.Term { return term.Let(thunk, &term.Delay{Body: def}, t) }
		}
	}

	var body term.Term
	if l.res.DataReprs[decl.Name] == ir.PairEncoded {
		body, err = l.pairCase(e, decl, dt, alts, fallback, scrut)
	} else {
		body, err = l.dataCase(e, decl, dt, alts, fallback, scrut)
	}
	if err != nil {
		return nil, err
	}
	if wrap != nil {
		body = wrap(body)
	}
	return body, nil
}

// dataCase emits
//
//	[(\p -> [(\tag -> [(\fs -> chain) (sndPair p)]) (fstPair p)]) (unConstrData scrut)]
//
// where chain tests equalsInteger tag i for each constructor in declaration
// order and ends in error.
func (l *lowerer) dataCase(e *ir.Case, decl *ir.DataDecl, dt ir.DataType, alts map[string]ir.Alt,
	fallback func() term.Term, scrut term.Term) (term.Term, error) {
	p, tag, fs := l.name("p"), l.name("tag"), l.name("fs")

	var chain term.Term = &term.Error{}
	for i := len(decl.Constructors) - 1; i >= 0; i-- {
		ctor := &decl.Constructors[i]
		var branch term.Term
		if a, ok := alts[ctor.Name]; ok {
			binds := l.bindAll(a.Binds)
			body, err := l.expr(a.Body)
			l.unbind(a.Binds...)
			if err != nil {
				return nil, err
			}
			branch, err = l.bindFields(body, binds, decl.FieldTypes(ctor, dt.Args), fs, e.Loc)
			if err != nil {
				return nil, err
			}
		} else {
			branch = fallback()
		}

		test, err := l.call("equalsInteger", e.Loc, &term.Var{Name: tag}, term.Int(int64(i)))
		if err != nil {
			return nil, err
		}
		chain, err = l.ite(test, branch, chain, e.Loc)
		if err != nil {
			return nil, err
		}
	}

	fields, err := l.call("sndPair", e.Loc, &term.Var{Name: p})
	if err != nil {
		return nil, err
	}
	tagOf, err := l.call("fstPair", e.Loc, &term.Var{Name: p})
	if err != nil {
		return nil, err
	}
	unpacked, err := l.call("unConstrData", e.Loc, scrut)
	if err != nil {
		return nil, err
	}
	return term.Let(p, unpacked, term.Let(tag, tagOf, term.Let(fs, fields, chain))), nil
}

// bindFields binds each named field to fromData (headList (tailList^j fs)).
// Fields bound to "_" are skipped.
func (l *lowerer) bindFields(body term.Term, binds []string, types []ir.Type, fs string, loc ir.Loc) (term.Term, error) {
	for j := len(binds) - 1; j >= 0; j-- {
		if binds[j] == "_" {
			continue
		}
		var cursor term.Term = &term.Var{Name: fs}
		for range j {
			var err error
			cursor, err = l.call("tailList", loc, cursor)
			if err != nil {
				return nil, err
			}
		}
		head, err := l.call("headList", loc, cursor)
		if err != nil {
			return nil, err
		}
		value, err := l.fromData(head, types[j], loc)
		if err != nil {
			return nil, err
		}
		body = term.Let(binds[j], value, body)
	}
	return body, nil
}

// pairCase binds the two fields of a PairEncoded record by fstPair/sndPair.
// There is a single constructor, so there is no tag dispatch.
func (l *lowerer) pairCase(e *ir.Case, decl *ir.DataDecl, dt ir.DataType, alts map[string]ir.Alt,
	fallback func() term.Term, scrut term.Term) (term.Term, error) {
	ctor := &decl.Constructors[0]
	a, ok := alts[ctor.Name]
	if !ok {
		return term.Let(l.name("p"), scrut, fallback()), nil
	}

	binds := l.bindAll(a.Binds)
	body, err := l.expr(a.Body)
	l.unbind(a.Binds...)
	if err != nil {
		return nil, err
	}
	p := l.name("p")
	types := decl.FieldTypes(ctor, dt.Args)
	projections := []string{"fstPair", "sndPair"}
	for j := len(binds) - 1; j >= 0; j-- {
		if binds[j] == "_" {
			continue
		}
		component, err := l.call(projections[j], e.Loc, &term.Var{Name: p})
		if err != nil {
			return nil, err
		}
		value, err := l.fromData(component, types[j], e.Loc)
		if err != nil {
			return nil, err
		}
		body = term.Let(binds[j], value, body)
	}
	return term.Let(p, scrut, body), nil
}
