package ir

import "strings"

// ReservedPrefix starts every binder name the compiler generates. Source
// binders and definitions may not use it.
const ReservedPrefix = "$"

// IsReserved reports whether name is taken from the compiler's namespace.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// Program is a closed top-level expression plus its declarations.
// Constructed by the front end and consumed read-only by every pass.
type Program struct {
	// Name identifies the program in diagnostics and artifacts.
	Name string

	// Target selects the dialect by name ("v1", "v2", "v3", ...).
	Target string

	// DataDecls are user algebraic data types. Constructor order is
	// significant: it fixes the tag indices.
	DataDecls []DataDecl

	// Defs are top-level definitions, optionally generic and optionally
	// self-recursive.
	Defs []Definition

	// Entry is the program's closed entry expression.
	Entry Expr
}

// DataDecl declares a user algebraic data type.
type DataDecl struct {
	Name         string
	TypeParams   []string
	Constructors []Constructor
	Loc          Loc
}

// Constructor is one variant of a DataDecl.
type Constructor struct {
	Name   string
	Fields []Field
}

// Field is a named, typed constructor field. Field types may mention the
// declaration's type parameters.
type Field struct {
	Name string
	Type Type
}

// Definition is a top-level binding. Type may mention TypeParams; such a
// definition is generic and can only be referenced through Inst.
type Definition struct {
	Name       string
	TypeParams []string
	Type       Type
	Body       Expr
	Loc        Loc
}

// EntryDeclName is the declaration name reported for diagnostics raised in
// a program's entry expression.
const EntryDeclName = "<entry>"

// DataDecl looks up a data declaration by name.
func (p *Program) DataDecl(name string) (*DataDecl, bool) {
	for i := range p.DataDecls {
		if p.DataDecls[i].Name == name {
			return &p.DataDecls[i], true
		}
	}
	return nil, false
}

// Def looks up a top-level definition by name.
func (p *Program) Def(name string) (*Definition, bool) {
	for i := range p.Defs {
		if p.Defs[i].Name == name {
			return &p.Defs[i], true
		}
	}
	return nil, false
}

// IsGeneric reports whether the definition takes type parameters.
func (d *Definition) IsGeneric() bool {
	return len(d.TypeParams) > 0
}

// Constructor returns the constructor with the given name and its tag index.
func (d *DataDecl) Constructor(name string) (*Constructor, int, bool) {
	for i := range d.Constructors {
		if d.Constructors[i].Name == name {
			return &d.Constructors[i], i, true
		}
	}
	return nil, -1, false
}

// ConstructorNames returns the constructor names in declaration order.
func (d *DataDecl) ConstructorNames() []string {
	names := make([]string, len(d.Constructors))
	for i, c := range d.Constructors {
		names[i] = c.Name
	}
	return names
}

// FieldTypes returns the constructor's field types instantiated at args.
func (d *DataDecl) FieldTypes(c *Constructor, args []Type) []Type {
	s := NewSubst(d.TypeParams, args)
	out := make([]Type, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = s.Apply(f.Type)
	}
	return out
}
