// Package diag defines the structured compile error shared by the resolver,
// the lowering engine and the serializer.
//
// Every error is terminal for the current compilation unit. No stage catches
// and recovers from another stage's error; callers receive a *Error (possibly
// wrapped with %w) and no artifact.
package diag

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scriptc/internal/ir"
)

// Code categorizes compile errors.
type Code string

const (
	// CodeUnresolvedRepresentation: a type variable never reached a concrete
	// instantiation.
	CodeUnresolvedRepresentation Code = "UNRESOLVED_REPRESENTATION"

	// CodeNonExhaustiveMatch: a case does not cover every declared variant.
	CodeNonExhaustiveMatch Code = "NON_EXHAUSTIVE_MATCH"

	// CodeUnsupportedPrimitive: a constant kind is absent from the dialect.
	CodeUnsupportedPrimitive Code = "UNSUPPORTED_PRIMITIVE_FOR_DIALECT"

	// CodeUnknownBuiltin: a builtin name is absent from the dialect.
	CodeUnknownBuiltin Code = "UNKNOWN_BUILTIN"

	// CodeMalformedArtifact: the serializer's defensive re-validation failed,
	// or a decoded artifact is not canonical.
	CodeMalformedArtifact Code = "MALFORMED_ARTIFACT"

	// CodeRepresentationMismatch: a value cannot be realized in the
	// representation its position requires.
	CodeRepresentationMismatch Code = "REPRESENTATION_MISMATCH"

	// CodeMalformedProgram: the input violates an IR structural rule
	// (unknown names, arity, mutual recursion, ...).
	CodeMalformedProgram Code = "MALFORMED_PROGRAM"
)

// Error is a structured compile diagnostic.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Decl is the smallest enclosing declaration name.
	Decl string

	// Loc is the offending node's source location, when known.
	Loc ir.Loc

	// Variable is the unresolved type variable (UnresolvedRepresentation).
	Variable string

	// Chain lists the generic instantiations from the entry point to the
	// failing declaration.
	Chain []string

	// Details contains additional context (type, missing variants, kind,
	// dialect version, builtin name).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Decl != "" {
		ctx = append(ctx, "decl="+e.Decl)
	}
	if e.Loc.IsValid() {
		ctx = append(ctx, "at="+e.Loc.String())
	}
	if len(e.Chain) > 0 {
		ctx = append(ctx, "via="+strings.Join(e.Chain, " -> "))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// DetailKeys returns the detail keys in sorted order for stable output.
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Is reports whether err carries the given code.
// Uses errors.As to handle wrapped errors.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// Unresolved creates an UnresolvedRepresentation error.
func Unresolved(variable, decl string, chain []string, loc ir.Loc, reason string) *Error {
	return &Error{
		Code:     CodeUnresolvedRepresentation,
		Message:  fmt.Sprintf("type variable %s has no concrete instantiation: %s", variable, reason),
		Decl:     decl,
		Loc:      loc,
		Variable: variable,
		Chain:    slices.Clone(chain),
	}
}

// NonExhaustive creates a NonExhaustiveMatch error.
func NonExhaustive(typ string, missing []string, decl string, loc ir.Loc) *Error {
	return &Error{
		Code:    CodeNonExhaustiveMatch,
		Message: fmt.Sprintf("case over %s does not cover %s", typ, strings.Join(missing, ", ")),
		Decl:    decl,
		Loc:     loc,
		Details: map[string]string{
			"type":    typ,
			"missing": strings.Join(missing, ","),
		},
	}
}

// UnsupportedPrimitive creates an UnsupportedPrimitiveForDialect error.
func UnsupportedPrimitive(kind ir.PrimKind, version, decl string, loc ir.Loc) *Error {
	return &Error{
		Code:    CodeUnsupportedPrimitive,
		Message: fmt.Sprintf("constant kind %s is not supported by dialect %s", kind, version),
		Decl:    decl,
		Loc:     loc,
		Details: map[string]string{
			"kind":    kind.String(),
			"dialect": version,
		},
	}
}

// UnknownBuiltin creates an UnknownBuiltin error.
func UnknownBuiltin(name, version, decl string, loc ir.Loc) *Error {
	return &Error{
		Code:    CodeUnknownBuiltin,
		Message: fmt.Sprintf("builtin %s is not available in dialect %s", name, version),
		Decl:    decl,
		Loc:     loc,
		Details: map[string]string{
			"builtin": name,
			"dialect": version,
		},
	}
}

// MalformedArtifact creates a MalformedArtifact error.
func MalformedArtifact(format string, args ...any) *Error {
	return &Error{
		Code:    CodeMalformedArtifact,
		Message: fmt.Sprintf(format, args...),
	}
}

// Mismatch creates a RepresentationMismatch error.
func Mismatch(typ string, from, to ir.Representation, decl string, loc ir.Loc) *Error {
	return &Error{
		Code:    CodeRepresentationMismatch,
		Message: fmt.Sprintf("%s value in %s form cannot be realized as %s", typ, from, to),
		Decl:    decl,
		Loc:     loc,
		Details: map[string]string{
			"type": typ,
			"from": from.String(),
			"to":   to.String(),
		},
	}
}

// Malformed creates a MalformedProgram error.
func Malformed(decl string, loc ir.Loc, format string, args ...any) *Error {
	return &Error{
		Code:    CodeMalformedProgram,
		Message: fmt.Sprintf(format, args...),
		Decl:    decl,
		Loc:     loc,
	}
}
