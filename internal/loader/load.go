package loader

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scriptc/internal/ir"
)

// LoadError is a loading failure with the CUE position it refers to.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads and converts a CUE program document.
func LoadFile(path string) (*ir.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return LoadBytes(path, src)
}

// LoadBytes converts CUE source into a program. filename is used for
// positions only.
func LoadBytes(filename string, src []byte) (*ir.Program, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v)
}

// Compile converts a CUE value holding a program document.
func Compile(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	p := &ir.Program{}

	name, err := optionalString(v, "name")
	if err != nil {
		return nil, err
	}
	p.Name = name
	if p.Target, err = optionalString(v, "target"); err != nil {
		return nil, err
	}

	if p.DataDecls, err = parseDataDecls(v); err != nil {
		return nil, err
	}
	if p.Defs, err = parseDefs(v); err != nil {
		return nil, err
	}

	entryVal := v.LookupPath(lookupPath("entry"))
	if !entryVal.Exists() {
		return nil, &LoadError{Field: "entry", Message: "entry is required", Pos: v.Pos()}
	}
	if p.Entry, err = parseExpr(entryVal, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func lookupPath(name string) cue.Path {
	return cue.MakePath(cue.Str(name))
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(lookupPath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func locOf(v cue.Value) ir.Loc {
	pos := v.Pos()
	if !pos.IsValid() {
		return ir.Loc{}
	}
	return ir.Loc{File: pos.Filename(), Line: pos.Line(), Col: pos.Column()}
}

func typeAt(v cue.Value, field string, params []string) (ir.Type, error) {
	s, err := v.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	t, err := ParseType(s, params)
	if err != nil {
		return nil, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return t, nil
}

// parseDataDecls reads
//
//	data: Name: {params: [...], constructors: {Ctor: {field: "Type", ...}, ...}}
//
// Constructor and field order follow the document.
func parseDataDecls(v cue.Value) ([]ir.DataDecl, error) {
	dataVal := v.LookupPath(lookupPath("data"))
	if !dataVal.Exists() {
		return nil, nil
	}
	iter, err := dataVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []ir.DataDecl
	for iter.Next() {
		declVal := iter.Value()
		decl := ir.DataDecl{Name: iter.Label(), Loc: locOf(declVal)}

		if pv := declVal.LookupPath(lookupPath("params")); pv.Exists() {
			if decl.TypeParams, err = stringList(pv); err != nil {
				return nil, err
			}
		}

		ctorsVal := declVal.LookupPath(lookupPath("constructors"))
		if !ctorsVal.Exists() {
			return nil, &LoadError{
				Field:   fmt.Sprintf("data.%s.constructors", decl.Name),
				Message: "constructors are required",
				Pos:     declVal.Pos(),
			}
		}
		ctorIter, err := ctorsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for ctorIter.Next() {
			ctor := ir.Constructor{Name: ctorIter.Label()}
			fieldIter, err := ctorIter.Value().Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for fieldIter.Next() {
				path := fmt.Sprintf("data.%s.%s.%s", decl.Name, ctor.Name, fieldIter.Label())
				ft, err := typeAt(fieldIter.Value(), path, decl.TypeParams)
				if err != nil {
					return nil, err
				}
				ctor.Fields = append(ctor.Fields, ir.Field{Name: fieldIter.Label(), Type: ft})
			}
			decl.Constructors = append(decl.Constructors, ctor)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// parseDefs reads defs: name: {params: [...], type: "...", body: expr}.
func parseDefs(v cue.Value) ([]ir.Definition, error) {
	defsVal := v.LookupPath(lookupPath("defs"))
	if !defsVal.Exists() {
		return nil, nil
	}
	iter, err := defsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []ir.Definition
	for iter.Next() {
		defVal := iter.Value()
		def := ir.Definition{Name: iter.Label(), Loc: locOf(defVal)}

		if pv := defVal.LookupPath(lookupPath("params")); pv.Exists() {
			if def.TypeParams, err = stringList(pv); err != nil {
				return nil, err
			}
		}

		tv := defVal.LookupPath(lookupPath("type"))
		if !tv.Exists() {
			return nil, &LoadError{
				Field:   fmt.Sprintf("defs.%s.type", def.Name),
				Message: "type is required",
				Pos:     defVal.Pos(),
			}
		}
		if def.Type, err = typeAt(tv, fmt.Sprintf("defs.%s.type", def.Name), def.TypeParams); err != nil {
			return nil, err
		}

		bv := defVal.LookupPath(lookupPath("body"))
		if !bv.Exists() {
			return nil, &LoadError{
				Field:   fmt.Sprintf("defs.%s.body", def.Name),
				Message: "body is required",
				Pos:     defVal.Pos(),
			}
		}
		if def.Body, err = parseExpr(bv, def.TypeParams); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// exprKinds are the keys that select an expression form. Exactly one must
// be present in every expression object.
var exprKinds = []string{
	"var", "integer", "bytestring", "text", "boolean", "unit", "g1", "g2",
	"lam", "apply", "bind", "case", "con", "builtin", "inst", "cond", "fail",
}

func parseExpr(v cue.Value, params []string) (ir.Expr, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, &LoadError{Field: "expr", Message: "expression must be an object", Pos: v.Pos()}
	}
	var kind string
	for _, k := range exprKinds {
		if v.LookupPath(lookupPath(k)).Exists() {
			if kind != "" {
				return nil, &LoadError{
					Field:   "expr",
					Message: fmt.Sprintf("ambiguous expression: both %q and %q", kind, k),
					Pos:     v.Pos(),
				}
			}
			kind = k
		}
	}
	if kind == "" {
		return nil, &LoadError{
			Field:   "expr",
			Message: "expression needs one of: " + strings.Join(exprKinds, ", "),
			Pos:     v.Pos(),
		}
	}

	meta := ir.Meta{Loc: locOf(v)}
	if tv := v.LookupPath(lookupPath("type")); tv.Exists() {
		t, err := typeAt(tv, kind+".type", params)
		if err != nil {
			return nil, err
		}
		meta.Type = t
	}

	x := exprReader{v: v, params: params, kind: kind}
	return x.read(meta)
}

type exprReader struct {
	v      cue.Value
	params []string
	kind   string
}

func (x exprReader) field(name string) cue.Value {
	return x.v.LookupPath(lookupPath(name))
}

func (x exprReader) required(name string) (cue.Value, error) {
	f := x.field(name)
	if !f.Exists() {
		return f, &LoadError{
			Field:   x.kind + "." + name,
			Message: name + " is required",
			Pos:     x.v.Pos(),
		}
	}
	return f, nil
}

func (x exprReader) str(name string) (string, error) {
	f, err := x.required(name)
	if err != nil {
		return "", err
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func (x exprReader) sub(name string) (ir.Expr, error) {
	f, err := x.required(name)
	if err != nil {
		return nil, err
	}
	return parseExpr(f, x.params)
}

func (x exprReader) list(name string) ([]ir.Expr, error) {
	f := x.field(name)
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Expr
	for iter.Next() {
		e, err := parseExpr(iter.Value(), x.params)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (x exprReader) hexBytes(name string) ([]byte, error) {
	s, err := x.str(name)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil {
		return nil, &LoadError{Field: x.kind, Message: "invalid hex: " + err.Error(), Pos: x.field(name).Pos()}
	}
	return b, nil
}

func (x exprReader) read(meta ir.Meta) (ir.Expr, error) {
	switch x.kind {
	case "var":
		name, err := x.str("var")
		if err != nil {
			return nil, err
		}
		return &ir.Var{Meta: meta, Name: name}, nil

	case "integer":
		n, err := x.field("integer").Int(nil)
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ir.Lit{Meta: meta, Value: ir.Integer{Value: n}}, nil

	case "bytestring":
		b, err := x.hexBytes("bytestring")
		if err != nil {
			return nil, err
		}
		return &ir.Lit{Meta: meta, Value: ir.ByteStr(b)}, nil

	case "text":
		s, err := x.str("text")
		if err != nil {
			return nil, err
		}
		return &ir.Lit{Meta: meta, Value: ir.String(s)}, nil

	case "boolean":
		b, err := x.field("boolean").Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ir.Lit{Meta: meta, Value: ir.Bool(b)}, nil

	case "unit":
		return &ir.Lit{Meta: meta, Value: ir.Unit{}}, nil

	case "g1", "g2":
		b, err := x.hexBytes(x.kind)
		if err != nil {
			return nil, err
		}
		if x.kind == "g1" {
			return &ir.Lit{Meta: meta, Value: ir.G1Element(b)}, nil
		}
		return &ir.Lit{Meta: meta, Value: ir.G2Element(b)}, nil

	case "lam":
		param, err := x.str("lam")
		if err != nil {
			return nil, err
		}
		pv, err := x.required("param")
		if err != nil {
			return nil, err
		}
		pt, err := typeAt(pv, "lam.param", x.params)
		if err != nil {
			return nil, err
		}
		body, err := x.sub("body")
		if err != nil {
			return nil, err
		}
		return &ir.Lambda{Meta: meta, Param: param, ParamType: pt, Body: body}, nil

	case "apply":
		fn, err := x.sub("apply")
		if err != nil {
			return nil, err
		}
		args, err := x.list("args")
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, &LoadError{Field: "apply.args", Message: "at least one argument is required", Pos: x.v.Pos()}
		}
		// Curried; only the outermost application carries the annotation.
		for _, a := range args[:len(args)-1] {
			fn = &ir.Apply{Meta: ir.Meta{Loc: meta.Loc}, Fn: fn, Arg: a}
		}
		return &ir.Apply{Meta: meta, Fn: fn, Arg: args[len(args)-1]}, nil

	case "bind":
		name, err := x.str("bind")
		if err != nil {
			return nil, err
		}
		value, err := x.sub("value")
		if err != nil {
			return nil, err
		}
		body, err := x.sub("body")
		if err != nil {
			return nil, err
		}
		return &ir.Let{Meta: meta, Name: name, Value: value, Body: body}, nil

	case "case":
		return x.caseExpr(meta)

	case "con":
		ctor, err := x.str("con")
		if err != nil {
			return nil, err
		}
		args, err := x.list("args")
		if err != nil {
			return nil, err
		}
		return &ir.Construct{Meta: meta, Constructor: ctor, Args: args}, nil

	case "builtin":
		name, err := x.str("builtin")
		if err != nil {
			return nil, err
		}
		args, err := x.list("args")
		if err != nil {
			return nil, err
		}
		return &ir.Builtin{Meta: meta, Name: name, Args: args}, nil

	case "inst":
		def, err := x.str("inst")
		if err != nil {
			return nil, err
		}
		var args []ir.Type
		if tv := x.field("types"); tv.Exists() {
			names, err := stringList(tv)
			if err != nil {
				return nil, err
			}
			for _, s := range names {
				t, err := ParseType(s, x.params)
				if err != nil {
					return nil, &LoadError{Field: "inst.types", Message: err.Error(), Pos: tv.Pos()}
				}
				args = append(args, t)
			}
		}
		return &ir.Inst{Meta: meta, Def: def, TypeArgs: args}, nil

	case "cond":
		cond, err := x.sub("cond")
		if err != nil {
			return nil, err
		}
		then, err := x.sub("then")
		if err != nil {
			return nil, err
		}
		els, err := x.sub("else")
		if err != nil {
			return nil, err
		}
		return &ir.If{Meta: meta, Cond: cond, Then: then, Else: els}, nil

	case "fail":
		msg, err := x.str("fail")
		if err != nil {
			return nil, err
		}
		return &ir.Fail{Meta: meta, Message: msg}, nil
	}
	return nil, &LoadError{Field: "expr", Message: "unknown expression " + x.kind, Pos: x.v.Pos()}
}

// caseExpr reads {case: expr, alts: [{con: "Pay", binds: [...], body: expr}], default: expr}.
func (x exprReader) caseExpr(meta ir.Meta) (ir.Expr, error) {
	scrut, err := x.sub("case")
	if err != nil {
		return nil, err
	}
	c := &ir.Case{Meta: meta, Scrutinee: scrut}

	if av := x.field("alts"); av.Exists() {
		iter, err := av.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			alt := exprReader{v: iter.Value(), params: x.params, kind: "alt"}
			ctor, err := alt.str("con")
			if err != nil {
				return nil, err
			}
			var binds []string
			if bv := alt.field("binds"); bv.Exists() {
				if binds, err = stringList(bv); err != nil {
					return nil, err
				}
			}
			body, err := alt.sub("body")
			if err != nil {
				return nil, err
			}
			c.Alts = append(c.Alts, ir.Alt{Constructor: ctor, Binds: binds, Body: body})
		}
	}

	if x.field("default").Exists() {
		if c.Default, err = x.sub("default"); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
