package flat

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/term"
)

// Encode serializes a closed term for dialect d.
//
// The encoder re-validates what the lowering engine already checked: every
// builtin and constant kind must exist in d, and every variable must be
// bound. A violation is a MalformedArtifact error and no bytes are returned.
func Encode(t term.Term, d *dialect.Descriptor) ([]byte, error) {
	if d == nil {
		return nil, diag.MalformedArtifact("no dialect descriptor")
	}
	e := &encoder{d: d}
	e.header()
	if err := e.term(t, nil); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Header returns the artifact header for d.
func Header(d *dialect.Descriptor) []byte {
	e := &encoder{d: d}
	e.header()
	return e.buf
}

// EncodeConstant serializes a single constant (type then payload) without
// a header or dialect check.
func EncodeConstant(c ir.Constant) ([]byte, error) {
	e := &encoder{}
	if err := e.constant(c); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
	d   *dialect.Descriptor
}

func (e *encoder) header() {
	e.buf = append(e.buf, e.d.Tag)
	for _, v := range e.d.LanguageVersion {
		e.uvarint(v)
	}
}

func (e *encoder) uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) bytes(b []byte) {
	e.uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) term(t term.Term, env []string) error {
	switch t := t.(type) {
	case *term.Var:
		idx := term.Index(env, t.Name)
		if idx == 0 {
			return diag.MalformedArtifact("unbound variable %s", t.Name)
		}
		e.buf = append(e.buf, tagVar)
		e.uvarint(uint64(idx))
	case *term.Delay:
		e.buf = append(e.buf, tagDelay)
		return e.term(t.Body, env)
	case *term.Lambda:
		e.buf = append(e.buf, tagLambda)
		return e.term(t.Body, append(env, t.Param))
	case *term.Apply:
		e.buf = append(e.buf, tagApply)
		if err := e.term(t.Fn, env); err != nil {
			return err
		}
		return e.term(t.Arg, env)
	case *term.Force:
		e.buf = append(e.buf, tagForce)
		return e.term(t.Body, env)
	case *term.Error:
		e.buf = append(e.buf, tagError)
	case *term.Builtin:
		b, ok := e.d.Builtin(t.Name)
		if !ok {
			return diag.MalformedArtifact("builtin %s is not available in dialect %s", t.Name, e.d.Version)
		}
		e.buf = append(e.buf, tagBuiltin)
		e.uvarint(b.Code)
	case *term.Const:
		if t.Value == nil {
			return diag.MalformedArtifact("constant without a value")
		}
		if k, bad := e.d.UnsupportedKind(t.Value.Type()); bad {
			return diag.MalformedArtifact("constant kind %s is not supported by dialect %s", k, e.d.Version)
		}
		e.buf = append(e.buf, tagConst)
		return e.constant(t.Value)
	default:
		return diag.MalformedArtifact("unsupported term %T", t)
	}
	return nil
}

func (e *encoder) constant(c ir.Constant) error {
	if err := e.constType(c.Type()); err != nil {
		return err
	}
	return e.payload(c, c.Type())
}

func (e *encoder) constType(t ir.ConstType) error {
	switch t.Kind {
	case ir.KindInteger:
		e.buf = append(e.buf, typeInteger)
	case ir.KindByteString:
		e.buf = append(e.buf, typeByteString)
	case ir.KindString:
		e.buf = append(e.buf, typeString)
	case ir.KindUnit:
		e.buf = append(e.buf, typeUnit)
	case ir.KindBool:
		e.buf = append(e.buf, typeBool)
	case ir.KindData:
		e.buf = append(e.buf, typeData)
	case ir.KindG1Element:
		e.buf = append(e.buf, typeG1)
	case ir.KindG2Element:
		e.buf = append(e.buf, typeG2)
	case ir.KindList:
		if len(t.Args) != 1 {
			return diag.MalformedArtifact("list type without element type")
		}
		e.buf = append(e.buf, typeList)
		return e.constType(t.Args[0])
	case ir.KindPair:
		if len(t.Args) != 2 {
			return diag.MalformedArtifact("pair type without component types")
		}
		e.buf = append(e.buf, typePair)
		if err := e.constType(t.Args[0]); err != nil {
			return err
		}
		return e.constType(t.Args[1])
	default:
		return diag.MalformedArtifact("unknown constant kind %d", t.Kind)
	}
	return nil
}

// payload writes the value of c, which must have type t.
func (e *encoder) payload(c ir.Constant, t ir.ConstType) error {
	if !c.Type().Equal(t) {
		return diag.MalformedArtifact("constant of type %s where %s is expected", c.Type(), t)
	}
	switch c := c.(type) {
	case ir.Integer:
		e.buf = appendInteger(e.buf, c.Big())
	case ir.ByteStr:
		e.bytes(c)
	case ir.String:
		if !utf8.ValidString(string(c)) {
			return diag.MalformedArtifact("string constant is not valid UTF-8")
		}
		e.bytes([]byte(c))
	case ir.Unit:
	case ir.Bool:
		if c {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case ir.DataConst:
		return e.data(c.Value)
	case ir.G1Element:
		if len(c) != ir.G1CompressedSize {
			return diag.MalformedArtifact("G1 element has %d bytes, want %d", len(c), ir.G1CompressedSize)
		}
		e.buf = append(e.buf, c...)
	case ir.G2Element:
		if len(c) != ir.G2CompressedSize {
			return diag.MalformedArtifact("G2 element has %d bytes, want %d", len(c), ir.G2CompressedSize)
		}
		e.buf = append(e.buf, c...)
	case ir.ListConst:
		if zeroWidth(c.Elem) && len(c.Items) > maxZeroWidthItems {
			return diag.MalformedArtifact("list of %d %s items exceeds %d", len(c.Items), c.Elem, maxZeroWidthItems)
		}
		e.uvarint(uint64(len(c.Items)))
		for _, it := range c.Items {
			if err := e.payload(it, c.Elem); err != nil {
				return err
			}
		}
	case ir.PairConst:
		if err := e.payload(c.First, t.Args[0]); err != nil {
			return err
		}
		return e.payload(c.Second, t.Args[1])
	default:
		return diag.MalformedArtifact("unsupported constant %T", c)
	}
	return nil
}

func (e *encoder) data(d ir.Data) error {
	switch d := d.(type) {
	case ir.ConstrData:
		e.buf = append(e.buf, dataConstr)
		e.uvarint(d.Tag)
		e.uvarint(uint64(len(d.Fields)))
		for _, f := range d.Fields {
			if err := e.data(f); err != nil {
				return err
			}
		}
	case ir.MapData:
		e.buf = append(e.buf, dataMap)
		e.uvarint(uint64(len(d)))
		for _, kv := range d {
			if err := e.data(kv.Key); err != nil {
				return err
			}
			if err := e.data(kv.Value); err != nil {
				return err
			}
		}
	case ir.ListData:
		e.buf = append(e.buf, dataList)
		e.uvarint(uint64(len(d)))
		for _, it := range d {
			if err := e.data(it); err != nil {
				return err
			}
		}
	case ir.IntData:
		e.buf = append(e.buf, dataInt)
		e.buf = appendInteger(e.buf, d.Big())
	case ir.BytesData:
		e.buf = append(e.buf, dataBytes)
		e.bytes(d)
	default:
		return diag.MalformedArtifact("unsupported data value %T", d)
	}
	return nil
}
