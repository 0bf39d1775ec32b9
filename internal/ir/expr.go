package ir

import "fmt"

// Loc is a source-level location carried for diagnostics.
type Loc struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// IsValid reports whether the location points anywhere.
func (l Loc) IsValid() bool {
	return l.Line > 0
}

func (l Loc) String() string {
	if !l.IsValid() {
		return ""
	}
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Meta is the per-node annotation block. Type is supplied by the front end;
// Repr is written by the resolver on its annotated copy and nowhere else.
type Meta struct {
	Type Type
	Repr Representation
	Loc  Loc
}

// Info returns the node's annotation block.
func (m Meta) Info() Meta { return m }

// Expr is a sealed interface over IR expression nodes.
type Expr interface {
	exprNode()
	Info() Meta
}

// Var references a lambda, let or case binder, or a monomorphic top-level
// definition by name.
type Var struct {
	Meta
	Name string
}

// Lit is a literal constant.
type Lit struct {
	Meta
	Value Constant
}

// Lambda is a single-parameter abstraction.
type Lambda struct {
	Meta
	Param     string
	ParamType Type
	Body      Expr
}

// Apply is a single-argument application.
type Apply struct {
	Meta
	Fn  Expr
	Arg Expr
}

// Let binds Name to Value within Body. It is not recursive.
type Let struct {
	Meta
	Name  string
	Value Expr
	Body  Expr
}

// Alt is one alternative of a Case. Binds names the constructor's fields
// positionally; "_" skips a field.
type Alt struct {
	Constructor string
	Binds       []string
	Body        Expr
}

// Case analyses a value of a user data type. Default, when present, covers
// every constructor without an explicit alternative.
type Case struct {
	Meta
	Scrutinee Expr
	Alts      []Alt
	Default   Expr
}

// Construct applies a data constructor. The data type is Meta.Type.
type Construct struct {
	Meta
	Constructor string
	Args        []Expr
}

// Builtin is a saturated invocation of a named builtin operator.
type Builtin struct {
	Meta
	Name string
	Args []Expr
}

// Inst applies a top-level definition to concrete type arguments. A
// monomorphic reference is an Inst with no type arguments.
type Inst struct {
	Meta
	Def      string
	TypeArgs []Type
}

// If evaluates Cond strictly and exactly one of Then or Else.
type If struct {
	Meta
	Cond Expr
	Then Expr
	Else Expr
}

// Fail aborts evaluation, optionally tracing Message first.
type Fail struct {
	Meta
	Message string
}

func (*Var) exprNode()       {}
func (*Lit) exprNode()       {}
func (*Lambda) exprNode()    {}
func (*Apply) exprNode()     {}
func (*Let) exprNode()       {}
func (*Case) exprNode()      {}
func (*Construct) exprNode() {}
func (*Builtin) exprNode()   {}
func (*Inst) exprNode()      {}
func (*If) exprNode()        {}
func (*Fail) exprNode()      {}

// Children returns the direct sub-expressions of e in evaluation order.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *Lambda:
		return []Expr{e.Body}
	case *Apply:
		return []Expr{e.Fn, e.Arg}
	case *Let:
		return []Expr{e.Value, e.Body}
	case *Case:
		out := []Expr{e.Scrutinee}
		for _, a := range e.Alts {
			out = append(out, a.Body)
		}
		if e.Default != nil {
			out = append(out, e.Default)
		}
		return out
	case *Construct:
		return append([]Expr(nil), e.Args...)
	case *Builtin:
		return append([]Expr(nil), e.Args...)
	case *If:
		return []Expr{e.Cond, e.Then, e.Else}
	default:
		return nil
	}
}

// Walk visits e and all of its descendants in pre-order. Returning false
// from fn skips the node's children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

// NodeKind returns a short name for the node type, used in diagnostics and
// the canonical document form.
func NodeKind(e Expr) string {
	switch e.(type) {
	case *Var:
		return "var"
	case *Lit:
		return "lit"
	case *Lambda:
		return "lam"
	case *Apply:
		return "app"
	case *Let:
		return "let"
	case *Case:
		return "case"
	case *Construct:
		return "con"
	case *Builtin:
		return "builtin"
	case *Inst:
		return "inst"
	case *If:
		return "if"
	case *Fail:
		return "fail"
	default:
		return "unknown"
	}
}
