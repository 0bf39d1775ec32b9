package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/flat"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/term"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure. An empty result means all assertions held.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(r, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(r *Result, a Assertion) error {
	if a.Type == AssertFailsWith {
		return assertFailsWith(r, a)
	}
	// Every other assertion inspects the artifact.
	if r.Artifact == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a successful compile",
			Actual:   fmt.Sprintf("compile failed: %v", r.Err),
		}
	}

	switch a.Type {
	case AssertCompiles:
		return nil
	case AssertHeader:
		return assertHeader(r.Artifact.Bytes, a)
	case AssertBranchOrder:
		got := BranchOrder(r.Artifact.Term.Close())
		if !slices.Equal(got, a.Tags) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("tags tested in order %v", a.Tags),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	case AssertInstances:
		got := instanceKeys(r)
		want := slices.Sorted(slices.Values(a.Keys))
		if !slices.Equal(got, want) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("instances %v", want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	case AssertDeterministic:
		if r.Recompiled == nil || !bytes.Equal(r.Recompiled.Bytes, r.Artifact.Bytes) {
			return &AssertionError{
				Type:     a.Type,
				Expected: "identical bytes on recompile",
				Actual:   "bytes differ",
			}
		}
		if !r.CacheHit {
			return &AssertionError{
				Type:     a.Type,
				Expected: "cache hit with identical bytes",
				Actual:   "cache miss",
			}
		}
	case AssertRoundTrip:
		return assertRoundTrip(r)
	case AssertMaxSize:
		if n := len(r.Artifact.Bytes); n > a.MaxBytes {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("at most %d bytes", a.MaxBytes),
				Actual:   fmt.Sprintf("%d bytes", n),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertFailsWith accepts either a diagnostic code from the compile or a
// static validation code (E1xx) from the loader.
func assertFailsWith(r *Result, a Assertion) error {
	if r.Err != nil && string(diag.CodeOf(r.Err)) == a.Code {
		return nil
	}
	for _, v := range r.Validation {
		if v.Code == a.Code {
			return nil
		}
	}

	actual := "compiled successfully"
	if r.Err != nil {
		actual = fmt.Sprintf("failed with %s: %v", diag.CodeOf(r.Err), r.Err)
	}
	return &AssertionError{
		Type:     AssertFailsWith,
		Expected: "failure with code " + a.Code,
		Actual:   actual,
	}
}

func assertHeader(b []byte, a Assertion) error {
	if a.Tag != 0 && (len(b) == 0 || int(b[0]) != a.Tag) {
		actual := "empty artifact"
		if len(b) > 0 {
			actual = fmt.Sprintf("tag %d", b[0])
		}
		return &AssertionError{
			Type:     AssertHeader,
			Expected: fmt.Sprintf("tag %d", a.Tag),
			Actual:   actual,
		}
	}
	if a.Hex != "" {
		got := hex.EncodeToString(b)
		if !strings.HasPrefix(got, strings.ToLower(a.Hex)) {
			return &AssertionError{
				Type:     AssertHeader,
				Expected: "prefix " + a.Hex,
				Actual:   got[:min(len(got), len(a.Hex))],
			}
		}
	}
	return nil
}

func assertRoundTrip(r *Result) error {
	decoded, d, err := flat.Decode(r.Artifact.Bytes)
	if err != nil {
		return &AssertionError{Type: AssertRoundTrip, Expected: "a decodable artifact", Actual: err.Error()}
	}
	if d.Version != r.Artifact.Dialect.Version {
		return &AssertionError{Type: AssertRoundTrip, Expected: r.Artifact.Dialect.Name, Actual: d.Name}
	}
	if want := r.Artifact.Term.Close(); !term.AlphaEqual(decoded, want) {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: term.String(want),
			Actual:   term.String(decoded),
		}
	}
	return nil
}

func instanceKeys(r *Result) []string {
	keys := []string{}
	if r.Artifact.Resolved == nil {
		return keys
	}
	for k := range r.Artifact.Resolved.Instances {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// BranchOrder lists, in pre-order, the integer each equalsInteger test in t
// compares against. For a lowered case analysis these are the constructor
// tags in the order they are tested.
func BranchOrder(t term.Term) []int64 {
	tags := []int64{}
	term.Walk(t, func(n term.Term) bool {
		app, ok := n.(*term.Apply)
		if !ok {
			return true
		}
		inner, ok := app.Fn.(*term.Apply)
		if !ok {
			return true
		}
		if b, ok := inner.Fn.(*term.Builtin); !ok || b.Name != "equalsInteger" {
			return true
		}
		if c, ok := app.Arg.(*term.Const); ok {
			if n, ok := c.Value.(ir.Integer); ok {
				tags = append(tags, n.Big().Int64())
			}
		}
		return true
	})
	return tags
}
