package ir

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Document converts a program into the canonical document model. The result
// feeds MarshalCanonical for content-addressed identity; it is not a wire
// format and has no decoder.
func (p *Program) Document() (DocObject, error) {
	decls := make(DocArray, len(p.DataDecls))
	for i, d := range p.DataDecls {
		decls[i] = dataDeclDocument(d)
	}

	defs := make(DocArray, len(p.Defs))
	for i, d := range p.Defs {
		body, err := ExprDocument(d.Body)
		if err != nil {
			return nil, fmt.Errorf("def %s: %w", d.Name, err)
		}
		defs[i] = DocObject{
			"name":   textDoc(d.Name),
			"params": stringsDoc(d.TypeParams),
			"type":   typeDoc(d.Type),
			"body":   body,
		}
	}

	entry, err := ExprDocument(p.Entry)
	if err != nil {
		return nil, fmt.Errorf("entry: %w", err)
	}

	return DocObject{
		"name":   textDoc(p.Name),
		"target": textDoc(p.Target),
		"data":   decls,
		"defs":   defs,
		"entry":  entry,
	}, nil
}

func dataDeclDocument(d DataDecl) DocObject {
	ctors := make(DocArray, len(d.Constructors))
	for i, c := range d.Constructors {
		fields := make(DocArray, len(c.Fields))
		for j, f := range c.Fields {
			fields[j] = DocObject{"name": textDoc(f.Name), "type": typeDoc(f.Type)}
		}
		ctors[i] = DocObject{"name": textDoc(c.Name), "fields": fields}
	}
	return DocObject{
		"name":         textDoc(d.Name),
		"params":       stringsDoc(d.TypeParams),
		"constructors": ctors,
	}
}

// ExprDocument converts an expression tree into the document model. The
// representation is included once the resolver has written it.
func ExprDocument(e Expr) (DocValue, error) {
	if e == nil {
		return nil, fmt.Errorf("missing expression")
	}
	info := e.Info()
	obj := DocObject{
		"kind": DocString(NodeKind(e)),
		"type": typeDoc(info.Type),
	}
	if info.Repr != ReprUnresolved {
		obj["repr"] = DocString(info.Repr.String())
	}

	sub := func(key string, child Expr) error {
		d, err := ExprDocument(child)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		obj[key] = d
		return nil
	}
	list := func(key string, children []Expr) error {
		arr := make(DocArray, len(children))
		for i, c := range children {
			d, err := ExprDocument(c)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			arr[i] = d
		}
		obj[key] = arr
		return nil
	}

	switch e := e.(type) {
	case *Var:
		obj["name"] = textDoc(e.Name)
	case *Lit:
		obj["value"] = ConstantDocument(e.Value)
	case *Lambda:
		obj["param"] = textDoc(e.Param)
		obj["param_type"] = typeDoc(e.ParamType)
		return obj, sub("body", e.Body)
	case *Apply:
		if err := sub("fn", e.Fn); err != nil {
			return nil, err
		}
		return obj, sub("arg", e.Arg)
	case *Let:
		obj["name"] = textDoc(e.Name)
		if err := sub("value", e.Value); err != nil {
			return nil, err
		}
		return obj, sub("body", e.Body)
	case *Case:
		if err := sub("scrutinee", e.Scrutinee); err != nil {
			return nil, err
		}
		alts := make(DocArray, len(e.Alts))
		for i, a := range e.Alts {
			body, err := ExprDocument(a.Body)
			if err != nil {
				return nil, fmt.Errorf("alt %s: %w", a.Constructor, err)
			}
			alts[i] = DocObject{
				"constructor": textDoc(a.Constructor),
				"binds":       stringsDoc(a.Binds),
				"body":        body,
			}
		}
		obj["alts"] = alts
		if e.Default != nil {
			return obj, sub("default", e.Default)
		}
	case *Construct:
		obj["constructor"] = textDoc(e.Constructor)
		return obj, list("args", e.Args)
	case *Builtin:
		obj["name"] = textDoc(e.Name)
		return obj, list("args", e.Args)
	case *Inst:
		obj["def"] = textDoc(e.Def)
		args := make(DocArray, len(e.TypeArgs))
		for i, t := range e.TypeArgs {
			args[i] = typeDoc(t)
		}
		obj["type_args"] = args
	case *If:
		if err := sub("cond", e.Cond); err != nil {
			return nil, err
		}
		if err := sub("then", e.Then); err != nil {
			return nil, err
		}
		return obj, sub("else", e.Else)
	case *Fail:
		obj["message"] = textDoc(e.Message)
	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
	return obj, nil
}

// ConstantDocument converts a constant into the document model.
// Integers are carried as decimal strings to keep arbitrary precision.
func ConstantDocument(c Constant) DocValue {
	obj := DocObject{"type": DocString(c.Type().String())}
	switch c := c.(type) {
	case Integer:
		obj["value"] = DocString(c.Big().String())
	case ByteStr:
		obj["value"] = DocString(hex.EncodeToString(c))
	case String:
		obj["value"] = textDoc(string(c))
	case Bool:
		obj["value"] = DocBool(bool(c))
	case Unit:
		obj["value"] = DocString("()")
	case DataConst:
		obj["value"] = DocString(FormatData(c.Value))
	case ListConst:
		items := make(DocArray, len(c.Items))
		for i, it := range c.Items {
			items[i] = ConstantDocument(it)
		}
		obj["value"] = items
	case PairConst:
		obj["value"] = DocArray{ConstantDocument(c.First), ConstantDocument(c.Second)}
	case G1Element:
		obj["value"] = DocString(hex.EncodeToString(c))
	case G2Element:
		obj["value"] = DocString(hex.EncodeToString(c))
	}
	return obj
}

// typeDoc renders a type structurally so that distinct types never share a
// document, even when their String forms agree.
func typeDoc(t Type) DocValue {
	switch t := t.(type) {
	case nil:
		return DocString("")
	case PrimType:
		return DocObject{"prim": DocString(t.Kind.String())}
	case TypeVar:
		return DocObject{"var": textDoc(t.Name)}
	case DataType:
		args := make(DocArray, len(t.Args))
		for i, a := range t.Args {
			args[i] = typeDoc(a)
		}
		return DocObject{"data": textDoc(t.Name), "args": args}
	case ListType:
		return DocObject{"list": typeDoc(t.Elem)}
	case PairType:
		return DocObject{"pair": DocArray{typeDoc(t.First), typeDoc(t.Second)}}
	case FuncType:
		return DocObject{"func": DocArray{typeDoc(t.Param), typeDoc(t.Result)}}
	default:
		return DocString(t.String())
	}
}

// textDoc carries a source string. Canonical marshaling NFC-normalizes
// strings, so a string that normalization would change, or that is not
// valid UTF-8, is carried as the hex of its bytes instead.
func textDoc(s string) DocValue {
	if utf8.ValidString(s) && norm.NFC.IsNormalString(s) {
		return DocString(s)
	}
	return DocObject{"utf8_hex": DocString(hex.EncodeToString([]byte(s)))}
}

func stringsDoc(ss []string) DocArray {
	out := make(DocArray, len(ss))
	for i, s := range ss {
		out[i] = textDoc(s)
	}
	return out
}
