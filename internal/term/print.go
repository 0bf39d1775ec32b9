package term

import (
	"strings"

	"github.com/roach88/scriptc/internal/ir"
)

// String renders t on one line in the textual term syntax, e.g.
// (lam x [(builtin addInteger) x (con integer 1)]). Nested applications are
// flattened into a single bracket.
func String(t Term) string {
	var b strings.Builder
	write(&b, t)
	return b.String()
}

func write(b *strings.Builder, t Term) {
	switch t := t.(type) {
	case *Var:
		b.WriteString(t.Name)
	case *Lambda:
		b.WriteString("(lam ")
		b.WriteString(t.Param)
		b.WriteByte(' ')
		write(b, t.Body)
		b.WriteByte(')')
	case *Apply:
		fn, args := spine(t)
		b.WriteByte('[')
		write(b, fn)
		for _, a := range args {
			b.WriteByte(' ')
			write(b, a)
		}
		b.WriteByte(']')
	case *Delay:
		b.WriteString("(delay ")
		write(b, t.Body)
		b.WriteByte(')')
	case *Force:
		b.WriteString("(force ")
		write(b, t.Body)
		b.WriteByte(')')
	case *Const:
		b.WriteString("(con ")
		b.WriteString(ir.FormatConstant(t.Value))
		b.WriteByte(')')
	case *Builtin:
		b.WriteString("(builtin ")
		b.WriteString(t.Name)
		b.WriteByte(')')
	case *Error:
		b.WriteString("(error)")
	default:
		b.WriteString("(?)")
	}
}

// spine splits a nested application into its head and arguments.
func spine(t *Apply) (Term, []Term) {
	var args []Term
	var cur Term = t
	for {
		a, ok := cur.(*Apply)
		if !ok {
			break
		}
		args = append(args, a.Arg)
		cur = a.Fn
	}
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	return cur, args
}

// Print renders a program with one definition per line followed by the body.
func Print(p *Program) string {
	var b strings.Builder
	for _, d := range p.Defs {
		b.WriteString("def ")
		b.WriteString(d.Name)
		b.WriteString(" = ")
		write(&b, d.Term)
		b.WriteByte('\n')
	}
	b.WriteString("main = ")
	write(&b, p.Body)
	b.WriteByte('\n')
	return b.String()
}
