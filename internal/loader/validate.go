package loader

import (
	"fmt"

	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Declarations (E100-E109)
	ErrDuplicateData        = "E101" // data type declared twice
	ErrNoConstructors       = "E102" // data type without constructors
	ErrDuplicateConstructor = "E103" // constructor declared twice in one type
	ErrDuplicateField       = "E104" // field declared twice in one constructor
	ErrDuplicateDef         = "E105" // definition declared twice
	ErrMissingDefType       = "E106" // definition without a type
	ErrMissingEntry         = "E107" // program without an entry expression

	// Types (E110-E119)
	ErrUnknownType = "E110" // reference to an undeclared data type
	ErrTypeArity   = "E111" // data type applied to the wrong number of arguments

	// Expressions (E120-E129)
	ErrUnknownBuiltin     = "E120" // builtin not known to any dialect
	ErrUnknownDef         = "E121" // Inst of an undeclared definition
	ErrInstArity          = "E122" // Inst with the wrong number of type arguments
	ErrUnknownConstructor = "E123" // Construct of a constructor its type lacks
	ErrConstructorArity   = "E124" // Construct or Alt with the wrong field count
	ErrUnknownTarget      = "E125" // target names no dialect
	ErrReservedName       = "E126" // binder or definition named with the reserved prefix
)

// ValidationError is one static problem found in a program.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a loaded program for static problems the resolver would
// otherwise report one at a time. It returns every problem found.
//
// Validation is advisory: the resolver and lowering engine re-check
// everything they rely on.
func Validate(p *ir.Program) []ValidationError {
	v := &validator{p: p, decls: make(map[string]*ir.DataDecl)}
	v.program()
	return v.errs
}

type validator struct {
	p     *ir.Program
	decls map[string]*ir.DataDecl
	errs  []ValidationError
}

func (v *validator) add(field, code string, loc ir.Loc, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Line:    loc.Line,
	})
}

func (v *validator) program() {
	if v.p.Target != "" {
		if _, err := dialect.Lookup(v.p.Target); err != nil {
			v.add("target", ErrUnknownTarget, ir.Loc{}, "%v", err)
		}
	}

	for i := range v.p.DataDecls {
		d := &v.p.DataDecls[i]
		if _, dup := v.decls[d.Name]; dup {
			v.add("data."+d.Name, ErrDuplicateData, d.Loc, "data type %s is declared twice", d.Name)
			continue
		}
		v.decls[d.Name] = d
	}
	for i := range v.p.DataDecls {
		v.dataDecl(&v.p.DataDecls[i])
	}

	defs := make(map[string]bool, len(v.p.Defs))
	for _, d := range v.p.Defs {
		field := "defs." + d.Name
		if defs[d.Name] {
			v.add(field, ErrDuplicateDef, d.Loc, "definition %s is declared twice", d.Name)
		}
		defs[d.Name] = true
		v.binder(field, d.Name, d.Loc)
		if d.Type == nil {
			v.add(field, ErrMissingDefType, d.Loc, "definition %s has no type", d.Name)
		} else {
			v.typ(field+".type", d.Type, d.Loc)
		}
		if d.Body != nil {
			v.expr(field, d.Body)
		}
	}

	if v.p.Entry == nil {
		v.add("entry", ErrMissingEntry, ir.Loc{}, "program has no entry expression")
		return
	}
	v.expr("entry", v.p.Entry)
}

func (v *validator) dataDecl(d *ir.DataDecl) {
	field := "data." + d.Name
	if len(d.Constructors) == 0 {
		v.add(field, ErrNoConstructors, d.Loc, "data type %s has no constructors", d.Name)
	}
	ctors := make(map[string]bool, len(d.Constructors))
	for _, c := range d.Constructors {
		if ctors[c.Name] {
			v.add(field, ErrDuplicateConstructor, d.Loc, "constructor %s is declared twice", c.Name)
		}
		ctors[c.Name] = true
		fields := make(map[string]bool, len(c.Fields))
		for _, f := range c.Fields {
			if f.Name != "" && fields[f.Name] {
				v.add(field+"."+c.Name, ErrDuplicateField, d.Loc, "field %s is declared twice", f.Name)
			}
			fields[f.Name] = true
			v.typ(field+"."+c.Name+"."+f.Name, f.Type, d.Loc)
		}
	}
}

// typ checks that every data type mentioned by t is declared with the right
// number of arguments.
func (v *validator) typ(field string, t ir.Type, loc ir.Loc) {
	switch t := t.(type) {
	case ir.DataType:
		d, ok := v.decls[t.Name]
		if !ok {
			v.add(field, ErrUnknownType, loc, "unknown type %s", t.Name)
		} else if len(t.Args) != len(d.TypeParams) {
			v.add(field, ErrTypeArity, loc, "%s takes %d type arguments, got %d", t.Name, len(d.TypeParams), len(t.Args))
		}
		for _, a := range t.Args {
			v.typ(field, a, loc)
		}
	case ir.ListType:
		v.typ(field, t.Elem, loc)
	case ir.PairType:
		v.typ(field, t.First, loc)
		v.typ(field, t.Second, loc)
	case ir.FuncType:
		v.typ(field, t.Param, loc)
		v.typ(field, t.Result, loc)
	}
}

func (v *validator) binder(field, name string, loc ir.Loc) {
	if ir.IsReserved(name) {
		v.add(field, ErrReservedName, loc, "name %s uses the reserved prefix %q", name, ir.ReservedPrefix)
	}
}

func knownBuiltin(name string) bool {
	for _, d := range dialect.All() {
		if _, ok := d.Builtin(name); ok {
			return true
		}
	}
	return false
}

func (v *validator) expr(field string, root ir.Expr) {
	ir.Walk(root, func(e ir.Expr) bool {
		info := e.Info()
		if info.Type != nil {
			v.typ(field, info.Type, info.Loc)
		}
		switch e := e.(type) {
		case *ir.Lambda:
			v.binder(field, e.Param, e.Loc)
			if e.ParamType != nil {
				v.typ(field, e.ParamType, e.Loc)
			}
		case *ir.Let:
			v.binder(field, e.Name, e.Loc)
		case *ir.Builtin:
			if !knownBuiltin(e.Name) {
				v.add(field, ErrUnknownBuiltin, e.Loc, "unknown builtin %s", e.Name)
			}
		case *ir.Inst:
			def, ok := v.p.Def(e.Def)
			if !ok {
				v.add(field, ErrUnknownDef, e.Loc, "unknown definition %s", e.Def)
				break
			}
			if len(e.TypeArgs) != len(def.TypeParams) {
				v.add(field, ErrInstArity, e.Loc, "%s takes %d type arguments, got %d", e.Def, len(def.TypeParams), len(e.TypeArgs))
			}
			for _, a := range e.TypeArgs {
				v.typ(field, a, e.Loc)
			}
		case *ir.Construct:
			v.construct(field, e)
		case *ir.Case:
			for _, a := range e.Alts {
				for _, b := range a.Binds {
					v.binder(field, b, e.Loc)
				}
			}
			v.caseAlts(field, e)
		}
		return true
	})
}

func (v *validator) construct(field string, e *ir.Construct) {
	dt, ok := e.Type.(ir.DataType)
	if !ok {
		return
	}
	d, ok := v.decls[dt.Name]
	if !ok {
		return
	}
	c, _, ok := d.Constructor(e.Constructor)
	if !ok {
		v.add(field, ErrUnknownConstructor, e.Loc, "%s has no constructor %s", d.Name, e.Constructor)
		return
	}
	if len(e.Args) != len(c.Fields) {
		v.add(field, ErrConstructorArity, e.Loc, "%s takes %d fields, got %d", c.Name, len(c.Fields), len(e.Args))
	}
}

// caseAlts checks alternatives against the scrutinee's declared type when
// the front end annotated it.
func (v *validator) caseAlts(field string, e *ir.Case) {
	dt, ok := e.Scrutinee.Info().Type.(ir.DataType)
	if !ok {
		return
	}
	d, ok := v.decls[dt.Name]
	if !ok {
		return
	}
	for _, a := range e.Alts {
		c, _, ok := d.Constructor(a.Constructor)
		if !ok {
			v.add(field, ErrUnknownConstructor, e.Loc, "%s has no constructor %s", d.Name, a.Constructor)
			continue
		}
		if len(a.Binds) != len(c.Fields) {
			v.add(field, ErrConstructorArity, e.Loc, "%s binds %d fields, has %d", c.Name, len(a.Binds), len(c.Fields))
		}
	}
}
