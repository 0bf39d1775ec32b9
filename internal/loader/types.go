package loader

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/roach88/scriptc/internal/ir"
)

// ParseType parses a type expression. Names listed in params are type
// variables; the primitive names (Integer, ByteString, String, Bool, Unit,
// Data, G1, G2) and List[T] / Pair[A, B] are builtins; any other name is a
// user data type, applied with brackets: Box[Integer].
//
// A name written with a leading quote, 'T, is a type variable even outside
// any binder of T. Front ends emit it for types they failed to close.
//
// Function arrows associate to the right: A -> B -> C is A -> (B -> C).
func ParseType(s string, params []string) (ir.Type, error) {
	p := &typeParser{src: s, params: params}
	p.next()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok != "" {
		return nil, p.errorf("unexpected %q", p.tok)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(s string, params ...string) ir.Type {
	t, err := ParseType(s, params)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src    string
	pos    int
	start  int
	tok    string
	params []string
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at column %d: %s", p.src, p.start+1, fmt.Sprintf(format, args...))
}

// next advances to the following token; tok is "" at end of input.
func (p *typeParser) next() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	p.start = p.pos
	if p.pos >= len(p.src) {
		p.tok = ""
		return
	}
	switch c := p.src[p.pos]; {
	case strings.HasPrefix(p.src[p.pos:], "->"):
		p.pos += 2
	case c == '[' || c == ']' || c == '(' || c == ')' || c == ',':
		p.pos++
	case c == '\'' || isIdent(rune(c)):
		p.pos++
		for p.pos < len(p.src) && isIdent(rune(p.src[p.pos])) {
			p.pos++
		}
	default:
		p.pos++
	}
	p.tok = p.src[p.start:p.pos]
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *typeParser) expect(tok string) error {
	if p.tok != tok {
		if p.tok == "" {
			return p.errorf("expected %q, got end of input", tok)
		}
		return p.errorf("expected %q, got %q", tok, p.tok)
	}
	p.next()
	return nil
}

func (p *typeParser) parseType() (ir.Type, error) {
	param, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok != "->" {
		return param, nil
	}
	p.next()
	result, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return ir.FuncType{Param: param, Result: result}, nil
}

func (p *typeParser) parseAtom() (ir.Type, error) {
	if p.tok == "(" {
		p.next()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return t, p.expect(")")
	}
	if p.tok == "" || (p.tok[0] != '\'' && !isIdent(rune(p.tok[0]))) {
		if p.tok == "" {
			return nil, p.errorf("expected a type, got end of input")
		}
		return nil, p.errorf("expected a type, got %q", p.tok)
	}
	name := p.tok
	p.next()
	if quoted, ok := strings.CutPrefix(name, "'"); ok {
		if quoted == "" {
			return nil, p.errorf("missing type variable name")
		}
		return ir.TypeVar{Name: quoted}, nil
	}

	var args []ir.Type
	if p.tok == "[" {
		p.next()
		for {
			a, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.tok != "," {
				break
			}
			p.next()
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
	}

	if slices.Contains(p.params, name) {
		if len(args) > 0 {
			return nil, p.errorf("type variable %s takes no arguments", name)
		}
		return ir.TypeVar{Name: name}, nil
	}
	if prim, ok := ir.PrimTypeByName(name); ok {
		if len(args) > 0 {
			return nil, p.errorf("%s takes no arguments", name)
		}
		return prim, nil
	}
	switch name {
	case "List":
		if len(args) != 1 {
			return nil, p.errorf("List takes 1 argument, got %d", len(args))
		}
		return ir.ListType{Elem: args[0]}, nil
	case "Pair":
		if len(args) != 2 {
			return nil, p.errorf("Pair takes 2 arguments, got %d", len(args))
		}
		return ir.PairType{First: args[0], Second: args[1]}, nil
	}
	return ir.DataType{Name: name, Args: args}, nil
}
