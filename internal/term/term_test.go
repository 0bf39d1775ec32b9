package term

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scriptc/internal/ir"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{
			name: "lambda over builtin application",
			term: Lam(App(&Builtin{Name: "addInteger"}, &Var{Name: "x"}, Int(1)), "x"),
			want: "(lam x [(builtin addInteger) x (con integer 1)])",
		},
		{
			name: "forced delay",
			term: &Force{Body: &Delay{Body: &Error{}}},
			want: "(force (delay (error)))",
		},
		{
			name: "data constant",
			term: DataConst(ir.Constr(1)),
			want: "(con data (Constr 1 []))",
		},
		{
			name: "bytestring",
			term: &Const{Value: ir.ByteStr{0xca, 0xfe}},
			want: "(con bytestring #cafe)",
		},
		{
			name: "forced builtin",
			term: ForceN(&Builtin{Name: "fstPair"}, 2),
			want: "(force (force (builtin fstPair)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.term))
		})
	}
}

func TestProgram_Close(t *testing.T) {
	p := &Program{
		Defs: []Binding{
			{Name: "one", Term: Int(1)},
			{Name: "inc", Term: Lam(App(&Builtin{Name: "addInteger"}, &Var{Name: "x"}, &Var{Name: "one"}), "x")},
		},
		Body: App(&Var{Name: "inc"}, Int(41)),
	}

	closed := p.Close()
	assert.Empty(t, FreeVars(closed))
	assert.Equal(t,
		"[(lam one [(lam inc [inc (con integer 41)]) (lam x [(builtin addInteger) x one])]) (con integer 1)]",
		String(closed))
	assert.Equal(t, []string{"one", "inc"}, p.DefNames())
	assert.Equal(t, "def one = (con integer 1)\ndef inc = (lam x [(builtin addInteger) x one])\nmain = [inc (con integer 41)]\n", Print(p))
}

func TestFreeVars(t *testing.T) {
	tm := App(Lam(App(&Var{Name: "f"}, &Var{Name: "x"}), "x"), &Var{Name: "y"}, &Var{Name: "f"})
	assert.Equal(t, []string{"f", "y"}, FreeVars(tm))
}

func TestFreeVars_Shadowing(t *testing.T) {
	tm := Lam(App(Lam(&Var{Name: "x"}, "x"), &Var{Name: "x"}), "x")
	assert.Empty(t, FreeVars(tm))
}

func TestAlphaEqual(t *testing.T) {
	a := Lam(Lam(App(&Var{Name: "x"}, &Var{Name: "y"}), "y"), "x")
	b := Lam(Lam(App(&Var{Name: "p"}, &Var{Name: "q"}), "q"), "p")
	c := Lam(Lam(App(&Var{Name: "q"}, &Var{Name: "p"}), "q"), "p")

	assert.True(t, AlphaEqual(a, b))
	assert.False(t, AlphaEqual(a, c))
	assert.False(t, AlphaEqual(&Var{Name: "free"}, &Var{Name: "other"}))
	assert.True(t, AlphaEqual(Int(7), Int(7)))
	assert.False(t, AlphaEqual(Int(7), Int(8)))
}

func TestIndex(t *testing.T) {
	env := []string{"a", "b", "a"}
	assert.Equal(t, 1, Index(env, "a"))
	assert.Equal(t, 2, Index(env, "b"))
	assert.Equal(t, 0, Index(env, "c"))
}

func TestSize(t *testing.T) {
	assert.Equal(t, 5, Size(App(&Builtin{Name: "addInteger"}, Int(1), Int(2))))
}
