// Package lower turns a resolved program into an untyped term for one
// dialect.
//
// Every generic definition is specialized once per instance key the entry
// demands; definitions nothing demands are dropped. User data values become
// data envelopes (constrData/unConstrData) or builtin pairs, and builtins are
// checked against the dialect descriptor and wrapped in the Force nodes
// their instantiation count requires.
//
// Lowering is pure: the same resolved program and descriptor always produce
// the same term, including the generated binder names.
package lower

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/resolve"
	"github.com/roach88/scriptc/internal/term"
)

// Lower produces the term program for res under dialect d. Specialized
// definitions come first, each after every definition it references.
func Lower(res *resolve.Resolved, d *dialect.Descriptor) (*term.Program, error) {
	if res == nil || d == nil {
		return nil, diag.Malformed(ir.EntryDeclName, ir.Loc{}, "nothing to lower")
	}

	order, err := Order(res)
	if err != nil {
		return nil, err
	}

	l := &lowerer{res: res, d: d}
	out := &term.Program{}
	for _, key := range order {
		inst := res.Instances[key]
		l.decl = key
		body, err := l.expr(inst.Body)
		if err != nil {
			return nil, err
		}
		if inst.SelfRecursive {
			if _, ok := inst.Type.(ir.FuncType); !ok {
				return nil, diag.Malformed(key, inst.Def.Loc,
					"recursive definition %s must be a function, has type %s", key, inst.Type)
			}
			body = term.App(l.fix(), &term.Lambda{Param: key, Body: body})
		}
		out.Defs = append(out.Defs, term.Binding{Name: key, Term: body})
	}

	l.decl = ir.EntryDeclName
	out.Body, err = l.expr(res.Entry)
	if err != nil {
		return nil, err
	}

	slog.Debug("program lowered",
		"program", res.Program.Name,
		"dialect", d.Version.String(),
		"definitions", len(out.Defs),
		"fresh_names", l.fresh)
	return out, nil
}

// Order returns the instance keys reachable from the entry in post-order:
// every key appears after the keys it depends on. Self references are not
// dependencies. A cycle between distinct definitions is rejected.
func Order(res *resolve.Resolved) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(res.Instances))
	var stack, out []string

	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, k := range stack {
				if k == key {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), key)
			inst := res.Instances[key]
			return diag.Malformed(key, inst.Def.Loc,
				"mutually recursive definitions are not supported: %s", strings.Join(cycle, " -> "))
		}
		inst, ok := res.Instances[key]
		if !ok {
			return diag.Malformed(key, ir.Loc{}, "reference to unresolved instance %s", key)
		}

		state[key] = visiting
		stack = append(stack, key)
		for _, dep := range inst.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[key] = done
		out = append(out, key)
		return nil
	}

	for _, key := range res.EntryDeps {
		if err := visit(key); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type lowerer struct {
	res   *resolve.Resolved
	d     *dialect.Descriptor
	decl  string
	fresh int

	// binders maps each source binder in scope to its term binder.
	binders map[string][]string
}

// bind enters a source binder. A binder that would shadow a definition
// binder gets a fresh name so references to the definition inside its
// scope still reach the definition.
func (l *lowerer) bind(name string) string {
	target := name
	if _, ok := l.res.Instances[name]; ok {
		target = l.name(name)
	}
	if l.binders == nil {
		l.binders = make(map[string][]string)
	}
	l.binders[name] = append(l.binders[name], target)
	return target
}

// bindAll enters names left to right and returns their term binders.
func (l *lowerer) bindAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = l.bind(n)
	}
	return out
}

func (l *lowerer) unbind(names ...string) {
	for i := len(names) - 1; i >= 0; i-- {
		stack := l.binders[names[i]]
		l.binders[names[i]] = stack[:len(stack)-1]
	}
}

// local returns the term binder a source variable refers to.
func (l *lowerer) local(name string) string {
	if stack := l.binders[name]; len(stack) > 0 {
		return stack[len(stack)-1]
	}
	return name
}

// name returns a binder name no IR identifier can collide with.
func (l *lowerer) name(hint string) string {
	l.fresh++
	return fmt.Sprintf("%s%s%d", ir.ReservedPrefix, hint, l.fresh)
}

// builtin returns a reference to a builtin with its Force wrappers applied.
func (l *lowerer) builtin(name string, loc ir.Loc) (term.Term, error) {
	b, ok := l.d.Builtin(name)
	if !ok {
		return nil, diag.UnknownBuiltin(name, l.d.Version.String(), l.decl, loc)
	}
	return term.ForceN(&term.Builtin{Name: b.Name}, b.Forces), nil
}

// call applies a builtin to args.
func (l *lowerer) call(name string, loc ir.Loc, args ...term.Term) (term.Term, error) {
	fn, err := l.builtin(name, loc)
	if err != nil {
		return nil, err
	}
	return term.App(fn, args...), nil
}

// ite is force [(force ifThenElse) c (delay t) (delay e)].
func (l *lowerer) ite(cond, then, els term.Term, loc ir.Loc) (term.Term, error) {
	choice, err := l.call("ifThenElse", loc, cond, &term.Delay{Body: then}, &term.Delay{Body: els})
	if err != nil {
		return nil, err
	}
	return &term.Force{Body: choice}, nil
}

// fix is the strict fixpoint combinator
// \f -> (\x -> f (\v -> x x v)) (\x -> f (\v -> x x v)).
func (l *lowerer) fix() term.Term {
	f, x, v := l.name("f"), l.name("x"), l.name("v")
	half := func() term.Term {
		return term.Lam(term.App(&term.Var{Name: f},
			term.Lam(term.App(&term.Var{Name: x}, &term.Var{Name: x}, &term.Var{Name: v}), v)), x)
	}
	return term.Lam(term.App(half(), half()), f)
}
