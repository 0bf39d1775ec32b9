package flat

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/term"
)

// maxDepth bounds term and data nesting while decoding.
const maxDepth = 1 << 14

// Decode parses an artifact. It returns the term and the dialect named by
// the header. Binders are named v1, v2, ... by lambda depth.
//
// Decoding is strict: trailing bytes, non-minimal integers or varints,
// invalid UTF-8, unbound indices and anything the header's dialect does
// not support are MalformedArtifact errors.
func Decode(b []byte) (term.Term, *dialect.Descriptor, error) {
	dec := &decoder{buf: b}
	d, err := dec.header()
	if err != nil {
		return nil, nil, err
	}
	dec.d = d
	t, err := dec.term(0, 0)
	if err != nil {
		return nil, nil, err
	}
	if dec.pos != len(dec.buf) {
		return nil, nil, diag.MalformedArtifact("%d trailing bytes at offset %d", len(dec.buf)-dec.pos, dec.pos)
	}
	return t, d, nil
}

// DecodeConstant parses the output of EncodeConstant.
func DecodeConstant(b []byte) (ir.Constant, error) {
	dec := &decoder{buf: b}
	t, err := dec.constType(0)
	if err != nil {
		return nil, err
	}
	c, err := dec.payload(t, 0)
	if err != nil {
		return nil, err
	}
	if dec.pos != len(dec.buf) {
		return nil, diag.MalformedArtifact("%d trailing bytes at offset %d", len(dec.buf)-dec.pos, dec.pos)
	}
	return c, nil
}

type decoder struct {
	buf []byte
	pos int
	d   *dialect.Descriptor
}

func (dec *decoder) errorf(format string, args ...any) error {
	return diag.MalformedArtifact("%s at offset %d", fmt.Sprintf(format, args...), dec.pos)
}

func (dec *decoder) byte() (byte, error) {
	if dec.pos >= len(dec.buf) {
		return 0, dec.errorf("unexpected end of input")
	}
	b := dec.buf[dec.pos]
	dec.pos++
	return b, nil
}

func (dec *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(dec.buf[dec.pos:])
	switch {
	case n == 0:
		return 0, dec.errorf("unexpected end of input")
	case n < 0:
		return 0, dec.errorf("varint overflows 64 bits")
	case n != len(binary.AppendUvarint(nil, v)):
		return 0, dec.errorf("non-minimal varint")
	}
	dec.pos += n
	return v, nil
}

func (dec *decoder) length() (int, error) {
	n, err := dec.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(len(dec.buf)-dec.pos) {
		return 0, dec.errorf("length %d exceeds remaining input", n)
	}
	return int(n), nil
}

// maxZeroWidthItems bounds lists whose items occupy no bytes, since the
// remaining input cannot bound them.
const maxZeroWidthItems = 1 << 16

// zeroWidth reports whether a payload of type t is encoded in no bytes.
func zeroWidth(t ir.ConstType) bool {
	switch t.Kind {
	case ir.KindUnit:
		return true
	case ir.KindPair:
		return len(t.Args) == 2 && zeroWidth(t.Args[0]) && zeroWidth(t.Args[1])
	}
	return false
}

// count reads the item count of a constant list of elem.
func (dec *decoder) count(elem ir.ConstType) (int, error) {
	if !zeroWidth(elem) {
		return dec.length()
	}
	n, err := dec.uvarint()
	if err != nil {
		return 0, err
	}
	if n > maxZeroWidthItems {
		return 0, dec.errorf("list of %d %s items exceeds %d", n, elem, maxZeroWidthItems)
	}
	return int(n), nil
}

func (dec *decoder) bytes() ([]byte, error) {
	n, err := dec.length()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, dec.buf[dec.pos:dec.pos+n])
	dec.pos += n
	return out, nil
}

func (dec *decoder) fixed(n int) ([]byte, error) {
	if n > len(dec.buf)-dec.pos {
		return nil, dec.errorf("unexpected end of input")
	}
	out := make([]byte, n)
	copy(out, dec.buf[dec.pos:dec.pos+n])
	dec.pos += n
	return out, nil
}

func (dec *decoder) header() (*dialect.Descriptor, error) {
	tag, err := dec.byte()
	if err != nil {
		return nil, err
	}
	d, ok := dialect.ByTag(tag)
	if !ok {
		return nil, diag.MalformedArtifact("unknown dialect tag 0x%02x", tag)
	}
	var lang [3]uint64
	for i := range lang {
		if lang[i], err = dec.uvarint(); err != nil {
			return nil, err
		}
	}
	if lang != d.LanguageVersion {
		return nil, diag.MalformedArtifact("language version %d.%d.%d does not match dialect %s (%s)",
			lang[0], lang[1], lang[2], d.Version, d.LanguageVersionString())
	}
	return d, nil
}

func (dec *decoder) term(depth, nesting int) (term.Term, error) {
	if nesting > maxDepth {
		return nil, dec.errorf("term nesting exceeds %d", maxDepth)
	}
	tag, err := dec.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagVar:
		idx, err := dec.uvarint()
		if err != nil {
			return nil, err
		}
		if idx == 0 || idx > uint64(depth) {
			return nil, dec.errorf("unbound variable index %d at depth %d", idx, depth)
		}
		return &term.Var{Name: binder(depth - int(idx) + 1)}, nil
	case tagDelay:
		body, err := dec.term(depth, nesting+1)
		if err != nil {
			return nil, err
		}
		return &term.Delay{Body: body}, nil
	case tagLambda:
		body, err := dec.term(depth+1, nesting+1)
		if err != nil {
			return nil, err
		}
		return &term.Lambda{Param: binder(depth + 1), Body: body}, nil
	case tagApply:
		fn, err := dec.term(depth, nesting+1)
		if err != nil {
			return nil, err
		}
		arg, err := dec.term(depth, nesting+1)
		if err != nil {
			return nil, err
		}
		return &term.Apply{Fn: fn, Arg: arg}, nil
	case tagConst:
		t, err := dec.constType(0)
		if err != nil {
			return nil, err
		}
		if k, bad := dec.d.UnsupportedKind(t); bad {
			return nil, dec.errorf("constant kind %s is not supported by dialect %s", k, dec.d.Version)
		}
		c, err := dec.payload(t, nesting)
		if err != nil {
			return nil, err
		}
		return &term.Const{Value: c}, nil
	case tagForce:
		body, err := dec.term(depth, nesting+1)
		if err != nil {
			return nil, err
		}
		return &term.Force{Body: body}, nil
	case tagError:
		return &term.Error{}, nil
	case tagBuiltin:
		code, err := dec.uvarint()
		if err != nil {
			return nil, err
		}
		b, ok := dec.d.BuiltinByCode(code)
		if !ok {
			return nil, dec.errorf("unknown builtin code %d for dialect %s", code, dec.d.Version)
		}
		return &term.Builtin{Name: b.Name}, nil
	default:
		return nil, dec.errorf("unknown term tag %d", tag)
	}
}

func binder(level int) string {
	return fmt.Sprintf("v%d", level)
}

func (dec *decoder) constType(nesting int) (ir.ConstType, error) {
	if nesting > maxDepth {
		return ir.ConstType{}, dec.errorf("type nesting exceeds %d", maxDepth)
	}
	tag, err := dec.byte()
	if err != nil {
		return ir.ConstType{}, err
	}
	switch tag {
	case typeInteger:
		return ir.IntegerConstType, nil
	case typeByteString:
		return ir.ByteStringConstType, nil
	case typeString:
		return ir.StringConstType, nil
	case typeUnit:
		return ir.UnitConstType, nil
	case typeBool:
		return ir.BoolConstType, nil
	case typeData:
		return ir.DataConstType, nil
	case typeG1:
		return ir.ConstType{Kind: ir.KindG1Element}, nil
	case typeG2:
		return ir.ConstType{Kind: ir.KindG2Element}, nil
	case typeList:
		elem, err := dec.constType(nesting + 1)
		if err != nil {
			return ir.ConstType{}, err
		}
		return ir.ListOf(elem), nil
	case typePair:
		a, err := dec.constType(nesting + 1)
		if err != nil {
			return ir.ConstType{}, err
		}
		b, err := dec.constType(nesting + 1)
		if err != nil {
			return ir.ConstType{}, err
		}
		return ir.PairOf(a, b), nil
	default:
		return ir.ConstType{}, dec.errorf("unknown constant type tag %d", tag)
	}
}

func (dec *decoder) integer() (ir.Integer, error) {
	raw, err := dec.bytes()
	if err != nil {
		return ir.Integer{}, err
	}
	if !minimalInteger(raw) {
		return ir.Integer{}, dec.errorf("non-minimal integer")
	}
	return ir.IntegerFromBig(integerFromBytes(raw)), nil
}

func (dec *decoder) payload(t ir.ConstType, nesting int) (ir.Constant, error) {
	if nesting > maxDepth {
		return nil, dec.errorf("constant nesting exceeds %d", maxDepth)
	}
	switch t.Kind {
	case ir.KindInteger:
		return dec.integer()
	case ir.KindByteString:
		b, err := dec.bytes()
		if err != nil {
			return nil, err
		}
		return ir.ByteStr(b), nil
	case ir.KindString:
		b, err := dec.bytes()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, dec.errorf("string constant is not valid UTF-8")
		}
		return ir.String(b), nil
	case ir.KindUnit:
		return ir.Unit{}, nil
	case ir.KindBool:
		b, err := dec.byte()
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, dec.errorf("invalid bool byte 0x%02x", b)
		}
		return ir.Bool(b == 1), nil
	case ir.KindData:
		d, err := dec.data(nesting)
		if err != nil {
			return nil, err
		}
		return ir.DataConst{Value: d}, nil
	case ir.KindG1Element:
		b, err := dec.fixed(ir.G1CompressedSize)
		if err != nil {
			return nil, err
		}
		return ir.G1Element(b), nil
	case ir.KindG2Element:
		b, err := dec.fixed(ir.G2CompressedSize)
		if err != nil {
			return nil, err
		}
		return ir.G2Element(b), nil
	case ir.KindList:
		n, err := dec.count(t.Args[0])
		if err != nil {
			return nil, err
		}
		items := make([]ir.Constant, 0, n)
		for range n {
			it, err := dec.payload(t.Args[0], nesting+1)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
		return ir.ListConst{Elem: t.Args[0], Items: items}, nil
	case ir.KindPair:
		a, err := dec.payload(t.Args[0], nesting+1)
		if err != nil {
			return nil, err
		}
		b, err := dec.payload(t.Args[1], nesting+1)
		if err != nil {
			return nil, err
		}
		return ir.PairConst{First: a, Second: b}, nil
	}
	return nil, dec.errorf("unknown constant kind %s", t.Kind)
}

func (dec *decoder) data(nesting int) (ir.Data, error) {
	if nesting > maxDepth {
		return nil, dec.errorf("data nesting exceeds %d", maxDepth)
	}
	tag, err := dec.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case dataConstr:
		ctor, err := dec.uvarint()
		if err != nil {
			return nil, err
		}
		n, err := dec.length()
		if err != nil {
			return nil, err
		}
		fields := make([]ir.Data, 0, n)
		for range n {
			f, err := dec.data(nesting + 1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return ir.ConstrData{Tag: ctor, Fields: fields}, nil
	case dataMap:
		n, err := dec.length()
		if err != nil {
			return nil, err
		}
		m := make(ir.MapData, 0, n)
		for range n {
			k, err := dec.data(nesting + 1)
			if err != nil {
				return nil, err
			}
			v, err := dec.data(nesting + 1)
			if err != nil {
				return nil, err
			}
			m = append(m, ir.DataPair{Key: k, Value: v})
		}
		return m, nil
	case dataList:
		n, err := dec.length()
		if err != nil {
			return nil, err
		}
		l := make(ir.ListData, 0, n)
		for range n {
			it, err := dec.data(nesting + 1)
			if err != nil {
				return nil, err
			}
			l = append(l, it)
		}
		return l, nil
	case dataInt:
		n, err := dec.integer()
		if err != nil {
			return nil, err
		}
		return ir.IntData{Value: n.Value}, nil
	case dataBytes:
		b, err := dec.bytes()
		if err != nil {
			return nil, err
		}
		return ir.BytesData(b), nil
	default:
		return nil, dec.errorf("unknown data tag %d", tag)
	}
}
