package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/testutil"
)

func TestDataRepresentations(t *testing.T) {
	p := &ir.Program{
		DataDecls: []ir.DataDecl{
			testutil.ActionDecl(),
			testutil.BoxDecl(),
			testutil.PointDecl(),
			{Name: "Triple", Constructors: []ir.Constructor{{Name: "Triple", Fields: []ir.Field{
				{Name: "a", Type: ir.IntegerType}, {Name: "b", Type: ir.IntegerType}, {Name: "c", Type: ir.IntegerType},
			}}}},
			{Name: "Flag", Constructors: []ir.Constructor{{Name: "Flag"}}},
		},
	}

	reprs, err := DataRepresentations(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]ir.Representation{
		"Action": ir.DataEncoded,
		"Box":    ir.DataEncoded,
		"Point":  ir.PairEncoded,
		"Triple": ir.DataEncoded,
		"Flag":   ir.DataEncoded,
	}, reprs)
}

func TestDataRepresentations_NoConstructors(t *testing.T) {
	p := &ir.Program{DataDecls: []ir.DataDecl{{Name: "Void"}}}
	_, err := DataRepresentations(p)
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.CodeMalformedProgram))
}

func TestDataRepresentations_UndeclaredFieldVariable(t *testing.T) {
	p := &ir.Program{DataDecls: []ir.DataDecl{{
		Name:         "Bad",
		Constructors: []ir.Constructor{{Name: "Bad", Fields: []ir.Field{{Name: "v", Type: ir.TypeVar{Name: "U"}}}}},
	}}}
	_, err := DataRepresentations(p)
	require.Error(t, err)

	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeUnresolvedRepresentation, de.Code)
	assert.Equal(t, "U", de.Variable)
	assert.Equal(t, "Bad", de.Decl)
}

func TestResolve_Action(t *testing.T) {
	res, err := Resolve(testutil.ActionProgram())
	require.NoError(t, err)

	assert.Equal(t, []string{"describe"}, res.InstanceKeys())
	assert.Equal(t, []string{"describe"}, res.EntryDeps)
	assert.Equal(t, ir.BuiltinUnboxed, res.Entry.Info().Repr)

	// The monomorphic reference is rewritten into an instantiation.
	app, ok := res.Entry.(*ir.Apply)
	require.True(t, ok)
	inst, ok := app.Fn.(*ir.Inst)
	require.True(t, ok)
	assert.Equal(t, "describe", inst.Def)
	assert.Equal(t, ir.FunctionRepresentation, inst.Repr)
	assert.Equal(t, ir.DataEncoded, app.Arg.Info().Repr)
}

func TestResolve_Monomorphization(t *testing.T) {
	res, err := Resolve(testutil.BoxProgram())
	require.NoError(t, err)

	assert.Equal(t, []string{"describe", "unbox[Action]", "unbox[Integer]"}, res.InstanceKeys())
	assert.NotContains(t, res.Instances, "unused")

	ua := res.Instances["unbox[Action]"]
	require.NotNil(t, ua)
	assert.Equal(t, "Box[Action] -> Action", ua.Type.String())
	assert.Equal(t, []string{EntryChain, "unbox[T:=Action]"}, ua.Chain)
	assert.False(t, ua.SelfRecursive)

	ui := res.Instances["unbox[Integer]"]
	require.NotNil(t, ui)
	assert.Equal(t, "Box[Integer] -> Integer", ui.Type.String())
}

func TestResolve_InstancesAreIndependent(t *testing.T) {
	res, err := Resolve(testutil.BoxProgram())
	require.NoError(t, err)

	bodyRepr := func(key string) ir.Representation {
		lam := res.Instances[key].Body.(*ir.Lambda)
		return lam.Body.Info().Repr
	}
	assert.Equal(t, ir.DataEncoded, bodyRepr("unbox[Action]"))
	assert.Equal(t, ir.BuiltinUnboxed, bodyRepr("unbox[Integer]"))
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	p := testutil.BoxProgram()
	before := ir.MustProgramHash(p, "v3")

	_, err := Resolve(p)
	require.NoError(t, err)

	assert.Equal(t, before, ir.MustProgramHash(p, "v3"))
	ir.Walk(p.Entry, func(e ir.Expr) bool {
		assert.Equal(t, ir.ReprUnresolved, e.Info().Repr, ir.NodeKind(e))
		return true
	})
}

func TestResolve_RepresentationTotality(t *testing.T) {
	for _, p := range []*ir.Program{
		testutil.ActionProgram(),
		testutil.BoxProgram(),
		testutil.SumToProgram(),
		testutil.PointProgram(),
	} {
		t.Run(p.Name, func(t *testing.T) {
			res, err := Resolve(p)
			require.NoError(t, err)

			check := func(e ir.Expr) bool {
				info := e.Info()
				assert.True(t, ir.Admits(info.Type, info.Repr, res.DataReprs),
					"%s: %s does not admit %s", ir.NodeKind(e), info.Type, info.Repr)
				return true
			}
			ir.Walk(res.Entry, check)
			for _, k := range res.InstanceKeys() {
				ir.Walk(res.Instances[k].Body, check)
			}
		})
	}
}

func TestResolve_SelfRecursion(t *testing.T) {
	res, err := Resolve(testutil.SumToProgram())
	require.NoError(t, err)

	inst := res.Instances["sumTo"]
	require.NotNil(t, inst)
	assert.True(t, inst.SelfRecursive)
	assert.Empty(t, inst.Deps)
}

func TestResolve_TypeVariableLeak(t *testing.T) {
	_, err := Resolve(testutil.LeakProgram())
	require.Error(t, err)

	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeUnresolvedRepresentation, de.Code)
	assert.Equal(t, "T", de.Variable)
	assert.Equal(t, ir.EntryDeclName, de.Decl)
	assert.Equal(t, []string{EntryChain, "unbox[T:=?]"}, de.Chain)
}

func TestResolve_LeakedAnnotationWithInstantiation(t *testing.T) {
	p := testutil.LeakProgram()
	scrut := p.Entry.(*ir.Case).Scrutinee.(*ir.Apply)
	scrut.Fn = testutil.Inst("unbox", testutil.ActionType)

	_, err := Resolve(p)
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.CodeUnresolvedRepresentation))
}

func TestResolve_MissingTypeArgument(t *testing.T) {
	p := testutil.BoxProgram()
	p.Entry = testutil.Call(testutil.Inst("unbox"),
		testutil.Con(testutil.BoxOf(ir.IntegerType), "Box", testutil.Int(7)))

	_, err := Resolve(p)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeUnresolvedRepresentation, de.Code)
	assert.Equal(t, "T", de.Variable)
}

func TestResolve_LeakInsideInstance(t *testing.T) {
	// wrap[T] builds a Box whose declared type mentions U, which wrap never binds.
	p := &ir.Program{
		DataDecls: []ir.DataDecl{testutil.BoxDecl()},
		Defs: []ir.Definition{{
			Name:       "wrap",
			TypeParams: []string{"T"},
			Type:       ir.Func(testutil.BoxOf(testutil.T), testutil.T),
			Body: testutil.Lam("x", testutil.T,
				testutil.Con(testutil.BoxOf(ir.TypeVar{Name: "U"}), "Box", testutil.Var("x"))),
		}},
		Entry: testutil.Call(testutil.Inst("wrap", ir.IntegerType), testutil.Int(1)),
	}

	_, err := Resolve(p)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeUnresolvedRepresentation, de.Code)
	assert.Equal(t, "U", de.Variable)
	assert.Equal(t, "wrap", de.Decl)
	assert.Equal(t, []string{EntryChain, "wrap[T:=Integer]"}, de.Chain)
}

func TestResolve_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ir.Program)
	}{
		{
			name: "unbound variable",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Var("nowhere")
			},
		},
		{
			name: "unknown constructor",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Con(testutil.ActionType, "Charge", testutil.Int(1))
			},
		},
		{
			name: "constructor arity",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Con(testutil.ActionType, "Pay")
			},
		},
		{
			name: "argument type",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Call(testutil.Var("describe"), testutil.Int(1))
			},
		},
		{
			name: "duplicate definition",
			mutate: func(p *ir.Program) {
				p.Defs = append(p.Defs, testutil.DescribeDef())
			},
		},
		{
			name: "too many type arguments",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Inst("describe", ir.IntegerType)
			},
		},
		{
			name: "missing entry",
			mutate: func(p *ir.Program) {
				p.Entry = nil
			},
		},
		{
			name: "reserved lambda parameter",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Call(testutil.Lam("$x", ir.IntegerType, testutil.Int(1)), testutil.Int(2))
			},
		},
		{
			name: "reserved let name",
			mutate: func(p *ir.Program) {
				p.Entry = &ir.Let{Name: "$p1", Value: testutil.Int(1), Body: testutil.Int(2)}
			},
		},
		{
			name: "reserved case field",
			mutate: func(p *ir.Program) {
				p.Entry = testutil.Match(testutil.Con(testutil.ActionType, "Pay", testutil.Int(1)),
					testutil.Alt("Pay", testutil.Int(0), "$fs3"),
					testutil.Alt("Refund", testutil.Int(0), "ref"))
			},
		},
		{
			name: "reserved definition name",
			mutate: func(p *ir.Program) {
				d := testutil.DescribeDef()
				d.Name = "$describe"
				p.Defs = append(p.Defs, d)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.ActionProgram()
			tt.mutate(p)
			_, err := Resolve(p)
			require.Error(t, err)
			assert.Equal(t, diag.CodeMalformedProgram, diag.CodeOf(err), err.Error())
		})
	}
}

func TestResolve_CaseOverNonData(t *testing.T) {
	p := testutil.ActionProgram()
	p.Entry = testutil.Match(testutil.Int(1), testutil.Alt("Pay", testutil.Int(0), "n"))

	_, err := Resolve(p)
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.CodeRepresentationMismatch))
}

func TestResolve_PolymorphicRecursionIsBounded(t *testing.T) {
	// grow[T] : T -> Integer calls grow[List[T]], producing a new key each time.
	list := ir.ListType{Elem: testutil.T}
	p := &ir.Program{
		Defs: []ir.Definition{{
			Name:       "grow",
			TypeParams: []string{"T"},
			Type:       ir.Func(ir.IntegerType, testutil.T),
			Body: testutil.Lam("x", testutil.T,
				testutil.Call(testutil.Inst("grow", list),
					testutil.Builtin("mkNilData", list, &ir.Lit{Value: ir.Unit{}}))),
		}},
		Entry: testutil.Call(testutil.Inst("grow", ir.IntegerType), testutil.Int(0)),
	}

	_, err := Resolve(p, WithMaxInstances(16))
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.CodeMalformedProgram))
	assert.Contains(t, err.Error(), "more than 16 instantiations")
	assert.Contains(t, err.Error(), "polymorphically recursive")
}

func TestResolve_MaxInstancesIsPerCall(t *testing.T) {
	// BoxProgram demands describe, unbox[Action] and unbox[Integer].
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "default", opts: nil},
		{name: "exact", opts: []Option{WithMaxInstances(3)}},
		{name: "too small", opts: []Option{WithMaxInstances(2)}, wantErr: true},
		{name: "non-positive keeps default", opts: []Option{WithMaxInstances(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Resolve(testutil.BoxProgram(), tt.opts...)
			if tt.wantErr {
				assert.True(t, diag.Is(err, diag.CodeMalformedProgram))
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.Instances, 3)
		})
	}
}

func TestInstanceKey(t *testing.T) {
	assert.Equal(t, "describe", InstanceKey("describe", nil))
	assert.Equal(t, "unbox[Action]", InstanceKey("unbox", []ir.Type{testutil.ActionType}))
	assert.Equal(t, "swap[Integer, List[Data]]",
		InstanceKey("swap", []ir.Type{ir.IntegerType, ir.ListType{Elem: ir.DataT}}))
}
