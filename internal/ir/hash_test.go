package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram() *Program {
	action := DataType{Name: "Action"}
	return &Program{
		Name:   "sample",
		Target: "v3",
		DataDecls: []DataDecl{{
			Name: "Action",
			Constructors: []Constructor{
				{Name: "Pay", Fields: []Field{{Name: "amount", Type: IntegerType}}},
				{Name: "Refund"},
			},
		}},
		Entry: &Construct{
			Meta:        Meta{Type: action},
			Constructor: "Pay",
			Args:        []Expr{&Lit{Meta: Meta{Type: IntegerType}, Value: NewInteger(42)}},
		},
	}
}

func TestProgramHashDeterministic(t *testing.T) {
	h1, err := ProgramHash(sampleProgram(), "V3")
	require.NoError(t, err)
	h2, err := ProgramHash(sampleProgram(), "V3")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestProgramHashDependsOnDialect(t *testing.T) {
	assert.NotEqual(t,
		MustProgramHash(sampleProgram(), "V3"),
		MustProgramHash(sampleProgram(), "V1"))
}

func TestProgramHashIgnoresLocations(t *testing.T) {
	p := sampleProgram()
	p.DataDecls[0].Loc = Loc{File: "a.cue", Line: 3, Col: 1}
	p.Entry.(*Construct).Loc = Loc{File: "a.cue", Line: 9, Col: 8}

	assert.Equal(t, MustProgramHash(sampleProgram(), "V3"), MustProgramHash(p, "V3"))
}

func TestProgramHashChangesWithConstructorOrder(t *testing.T) {
	p := sampleProgram()
	ctors := p.DataDecls[0].Constructors
	ctors[0], ctors[1] = ctors[1], ctors[0]

	assert.NotEqual(t, MustProgramHash(sampleProgram(), "V3"), MustProgramHash(p, "V3"))
}

func TestProgramHashMissingEntry(t *testing.T) {
	p := sampleProgram()
	p.Entry = nil

	_, err := ProgramHash(p, "V3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry")
	assert.Panics(t, func() { MustProgramHash(p, "V3") })
}

func TestExprHashSeesRepresentation(t *testing.T) {
	lit := &Lit{Meta: Meta{Type: IntegerType}, Value: NewInteger(1)}
	annotated := &Lit{Meta: Meta{Type: IntegerType, Repr: BuiltinUnboxed}, Value: NewInteger(1)}

	h1, err := ExprHash(lit)
	require.NoError(t, err)
	h2, err := ExprHash(annotated)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("payload")
	assert.NotEqual(t, hashWithDomain(DomainProgram, data), hashWithDomain(DomainExpr, data))
	assert.Equal(t, hashWithDomain(DomainProgram, data), hashWithDomain(DomainProgram, data))
}

func TestProgramHashDistinguishesLookalikes(t *testing.T) {
	withEntry := func(e Expr, defs ...Definition) *Program {
		p := sampleProgram()
		p.Entry = e
		p.Defs = defs
		return p
	}
	str := func(s string) Expr { return &Lit{Meta: Meta{Type: Str}, Value: String(s)} }
	ident := func(param Type) Definition {
		return Definition{
			Name:       "id",
			TypeParams: []string{"Action"},
			Type:       Func(param, param),
			Body:       &Lambda{Param: "x", ParamType: param, Body: &Var{Name: "x"}},
		}
	}
	entry := &Inst{Def: "id", TypeArgs: []Type{DataType{Name: "Action"}}}

	tests := []struct {
		name string
		a, b *Program
	}{
		{
			name: "composed and decomposed string literal",
			a:    withEntry(str("caf\u00e9")),
			b:    withEntry(str("cafe\u0301")),
		},
		{
			name: "composed and decomposed failure message",
			a:    withEntry(&Fail{Meta: Meta{Type: IntegerType}, Message: "\u00c5"}),
			b:    withEntry(&Fail{Meta: Meta{Type: IntegerType}, Message: "A\u030a"}),
		},
		{
			name: "invalid UTF-8 strings",
			a:    withEntry(str("\xff")),
			b:    withEntry(str("\xfe")),
		},
		{
			name: "type variable and data type of the same name",
			a:    withEntry(entry, ident(TypeVar{Name: "Action"})),
			b:    withEntry(entry, ident(DataType{Name: "Action"})),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, MustProgramHash(tt.a, "V3"), MustProgramHash(tt.b, "V3"))
		})
	}
}

func TestTextDoc(t *testing.T) {
	assert.Equal(t, DocString("caf\u00e9"), textDoc("caf\u00e9"))
	assert.Equal(t, DocObject{"utf8_hex": DocString("63616665cc81")}, textDoc("cafe\u0301"))
}
