// Package resolve assigns a concrete Representation to every value position
// of a program.
//
// Resolution runs in two phases. Phase one fixes one representation per data
// declaration. Phase two walks the entry expression, then every definition
// instantiation the entry transitively demands, each under its own type
// substitution. The result is an annotated copy; the input program is never
// mutated.
//
// A type variable that survives substitution is an error, never a default.
package resolve

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
)

// DefaultMaxInstances bounds the number of distinct definition
// instantiations. Polymorphic recursion that keeps generating new type
// arguments hits this limit instead of looping.
const DefaultMaxInstances = 4096

// Option configures a single Resolve call.
type Option func(*resolver)

// WithMaxInstances replaces DefaultMaxInstances. Values below one keep the
// default.
func WithMaxInstances(n int) Option {
	return func(r *resolver) {
		if n > 0 {
			r.maxInstances = n
		}
	}
}

// EntryChain is the first element of every instantiation chain.
const EntryChain = "<entry>"

// Resolved is the annotated program handed to the lowering engine.
type Resolved struct {
	// Program is the original input, read-only.
	Program *ir.Program

	// DataReprs holds the representation fixed for each data declaration.
	DataReprs map[string]ir.Representation

	// Entry is the annotated copy of the entry expression.
	Entry ir.Expr

	// EntryDeps lists the instance keys the entry references directly,
	// sorted.
	EntryDeps []string

	// Instances maps instance keys to resolved instantiations.
	Instances map[string]*Instance
}

// Instance is one definition specialized at concrete type arguments.
type Instance struct {
	Key      string
	Def      *ir.Definition
	TypeArgs []ir.Type

	// Type is the definition's type under the substitution.
	Type ir.Type

	// Body is the annotated copy of the definition body.
	Body ir.Expr

	// Deps lists the other instance keys the body references, sorted.
	Deps []string

	// SelfRecursive is set when the body references its own key.
	SelfRecursive bool

	// Chain is the instantiation path from the entry to this instance.
	Chain []string
}

// InstanceKeys returns every instance key in sorted order.
func (r *Resolved) InstanceKeys() []string {
	keys := make([]string, 0, len(r.Instances))
	for k := range r.Instances {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ReprOf returns the representation of a closed type.
func (r *Resolved) ReprOf(t ir.Type) (ir.Representation, bool) {
	repr, _, ok := reprOf(t, r.DataReprs)
	return repr, ok
}

// InstanceKey names the specialization of def at args. A monomorphic
// definition's key is its name.
func InstanceKey(def string, args []ir.Type) string {
	if len(args) == 0 {
		return def
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return def + "[" + strings.Join(parts, ", ") + "]"
}

// chainLabel renders an instantiation for diagnostics, e.g.
// "unwrap[T:=Action]". Missing arguments render as "?".
func chainLabel(def *ir.Definition, args []ir.Type) string {
	if len(def.TypeParams) == 0 {
		return def.Name
	}
	parts := make([]string, len(def.TypeParams))
	for i, p := range def.TypeParams {
		arg := "?"
		if i < len(args) && args[i] != nil {
			arg = args[i].String()
		}
		parts[i] = p + ":=" + arg
	}
	return def.Name + "[" + strings.Join(parts, ", ") + "]"
}

// Resolve runs both phases over p.
func Resolve(p *ir.Program, opts ...Option) (*Resolved, error) {
	if p == nil || p.Entry == nil {
		return nil, diag.Malformed(ir.EntryDeclName, ir.Loc{}, "program has no entry expression")
	}

	reprs, err := DataRepresentations(p)
	if err != nil {
		return nil, err
	}
	if err := checkDefs(p); err != nil {
		return nil, err
	}

	r := &resolver{
		prog:         p,
		reprs:        reprs,
		instances:    make(map[string]*Instance),
		maxInstances: DefaultMaxInstances,
	}
	for _, opt := range opts {
		opt(r)
	}

	entryScope := r.newScope(nil, ir.EntryDeclName, []string{EntryChain})
	entry, err := entryScope.expr(p.Entry)
	if err != nil {
		return nil, err
	}

	for len(r.queue) > 0 {
		inst := r.queue[0]
		r.queue = r.queue[1:]
		if err := r.resolveInstance(inst); err != nil {
			return nil, err
		}
	}

	slog.Debug("program resolved",
		"program", p.Name,
		"data_decls", len(reprs),
		"instances", len(r.instances))

	return &Resolved{
		Program:   p,
		DataReprs: reprs,
		Entry:     entry,
		EntryDeps: entryScope.sortedDeps(),
		Instances: r.instances,
	}, nil
}

// DataRepresentations is phase one: one representation per declaration.
//
// Sum types (two or more constructors) are DataEncoded. A single-constructor
// product with exactly two fields is PairEncoded. Every other product is
// DataEncoded. A declaration without constructors is malformed.
func DataRepresentations(p *ir.Program) (map[string]ir.Representation, error) {
	reprs := make(map[string]ir.Representation, len(p.DataDecls))
	for _, d := range p.DataDecls {
		if _, dup := reprs[d.Name]; dup {
			return nil, diag.Malformed(d.Name, d.Loc, "duplicate data declaration %s", d.Name)
		}
		if err := checkDataDecl(d); err != nil {
			return nil, err
		}
		switch {
		case len(d.Constructors) >= 2:
			reprs[d.Name] = ir.DataEncoded
		case len(d.Constructors[0].Fields) == 2:
			reprs[d.Name] = ir.PairEncoded
		default:
			reprs[d.Name] = ir.DataEncoded
		}
	}
	return reprs, nil
}

func checkDataDecl(d ir.DataDecl) error {
	if len(d.Constructors) == 0 {
		return diag.Malformed(d.Name, d.Loc, "data type %s declares no constructors", d.Name)
	}
	seen := make(map[string]bool, len(d.Constructors))
	for _, c := range d.Constructors {
		if seen[c.Name] {
			return diag.Malformed(d.Name, d.Loc, "data type %s declares constructor %s twice", d.Name, c.Name)
		}
		seen[c.Name] = true
		for _, f := range c.Fields {
			if f.Type == nil {
				return diag.Malformed(d.Name, d.Loc, "field %s.%s has no type", c.Name, f.Name)
			}
			for _, v := range ir.FreeVars(f.Type) {
				if !slices.Contains(d.TypeParams, v) {
					return diag.Unresolved(v, d.Name, nil, d.Loc,
						fmt.Sprintf("field %s.%s mentions a type variable %s does not declare", c.Name, f.Name, d.Name))
				}
			}
		}
	}
	return nil
}

func checkDefs(p *ir.Program) error {
	seen := make(map[string]bool, len(p.Defs))
	for _, d := range p.Defs {
		if seen[d.Name] {
			return diag.Malformed(d.Name, d.Loc, "duplicate definition %s", d.Name)
		}
		seen[d.Name] = true
		if ir.IsReserved(d.Name) {
			return diag.Malformed(d.Name, d.Loc, "definition name %s uses the reserved prefix %q", d.Name, ir.ReservedPrefix)
		}
		if d.Type == nil {
			return diag.Malformed(d.Name, d.Loc, "definition %s has no declared type", d.Name)
		}
		if d.Body == nil {
			return diag.Malformed(d.Name, d.Loc, "definition %s has no body", d.Name)
		}
	}
	return nil
}

// reprOf maps a type to its representation. When the type is not closed the
// first free variable is returned with ok=false.
func reprOf(t ir.Type, reprs map[string]ir.Representation) (ir.Representation, string, bool) {
	if fv := ir.FreeVars(t); len(fv) > 0 {
		return ir.ReprUnresolved, fv[0], false
	}
	switch t := t.(type) {
	case ir.PrimType:
		if t.Kind == ir.KindData {
			return ir.DataEncoded, "", true
		}
		return ir.BuiltinUnboxed, "", true
	case ir.ListType:
		return ir.ListEncoded, "", true
	case ir.PairType:
		return ir.PairEncoded, "", true
	case ir.FuncType:
		return ir.FunctionRepresentation, "", true
	case ir.DataType:
		repr, ok := reprs[t.Name]
		return repr, "", ok
	default:
		return ir.ReprUnresolved, "", false
	}
}

type resolver struct {
	prog         *ir.Program
	reprs        map[string]ir.Representation
	instances    map[string]*Instance
	queue        []*Instance
	maxInstances int
}

// demand registers an instantiation, queueing it on first sight.
func (r *resolver) demand(def *ir.Definition, args []ir.Type, chain []string) (*Instance, error) {
	key := InstanceKey(def.Name, args)
	if inst, ok := r.instances[key]; ok {
		return inst, nil
	}
	if len(r.instances) >= r.maxInstances {
		return nil, diag.Malformed(def.Name, def.Loc,
			"more than %d instantiations; %s is polymorphically recursive", r.maxInstances, def.Name)
	}
	inst := &Instance{
		Key:      key,
		Def:      def,
		TypeArgs: args,
		Chain:    append(slices.Clone(chain), chainLabel(def, args)),
	}
	r.instances[key] = inst
	r.queue = append(r.queue, inst)
	return inst, nil
}

func (r *resolver) resolveInstance(inst *Instance) error {
	def := inst.Def
	subst := ir.NewSubst(def.TypeParams, inst.TypeArgs)

	inst.Type = subst.Apply(def.Type)
	if fv := ir.FreeVars(inst.Type); len(fv) > 0 {
		return diag.Unresolved(fv[0], def.Name, inst.Chain, def.Loc,
			"declared type "+inst.Type.String()+" mentions a variable that is not a type parameter")
	}

	s := r.newScope(subst, def.Name, inst.Chain)
	s.self = inst.Key
	body, err := s.expr(def.Body)
	if err != nil {
		return err
	}
	if !ir.TypeEqual(body.Info().Type, inst.Type) {
		return diag.Malformed(def.Name, def.Loc,
			"body has type %s but %s is declared as %s", body.Info().Type, def.Name, inst.Type)
	}

	inst.Body = body
	inst.Deps = s.sortedDeps()
	inst.SelfRecursive = s.selfRef
	return nil
}
