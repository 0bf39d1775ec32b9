package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scriptc/internal/loader"
	"github.com/roach88/scriptc/internal/term"
)

func validationError(code string) loader.ValidationError {
	return loader.ValidationError{Field: "entry", Message: "m", Code: code}
}

func TestBranchOrder(t *testing.T) {
	eq := func(n int64) term.Term {
		return term.App(&term.Builtin{Name: "equalsInteger"}, &term.Var{Name: "t"}, term.Int(n))
	}
	tm := term.App(&term.Builtin{Name: "ifThenElse"}, eq(2),
		term.Int(0),
		term.App(&term.Builtin{Name: "ifThenElse"}, eq(0), term.Int(1), term.Int(2)))

	assert.Equal(t, []int64{2, 0}, BranchOrder(tm))
	assert.Equal(t, []int64{}, BranchOrder(term.Int(1)))
}

func TestAssertHeaderHex(t *testing.T) {
	b := []byte{0x03, 0x01, 0x01, 0x00, 0x02}
	assert.NoError(t, assertHeader(b, Assertion{Tag: 3, Hex: "03010100"}))
	assert.NoError(t, assertHeader(b, Assertion{Hex: "0301"}))
	assert.Error(t, assertHeader(b, Assertion{Hex: "0201"}))
	assert.Error(t, assertHeader(nil, Assertion{Tag: 3}))
}

func TestAssertionErrorMessage(t *testing.T) {
	err := &AssertionError{Type: "header", Expected: "tag 3", Actual: "tag 1"}
	assert.Equal(t, "Assertion failed: header\n  Expected: tag 3\n  Actual: tag 1", err.Error())
}
