// Package loader reads IR programs written as CUE documents.
//
// The document is the IR itself, not a source language: every node the
// compiler consumes is spelled out, including the type annotations a front
// end would attach.
//
//	name:   "action"
//	target: "v3"
//
//	data: Action: constructors: {
//		Pay: amount: "Integer"
//		Refund: ref: "ByteString"
//	}
//
//	defs: describe: {
//		type: "Action -> Integer"
//		body: {lam: "a", param: "Action", body: {...}}
//	}
//
//	entry: {apply: {var: "describe"}, args: [{con: "Pay", type: "Action", args: [{integer: 42}]}]}
//
// Each expression is an object with exactly one of these keys:
//
//	var          binder or monomorphic definition reference
//	integer      integer literal (arbitrary precision)
//	bytestring   hex bytestring literal
//	text         string literal
//	boolean      boolean literal
//	unit         unit literal
//	g1, g2       hex compressed group element literals
//	lam          lambda; with param (type) and body
//	apply        function; with args, applied left to right
//	bind         let binding; with value and body
//	case         scrutinee; with alts [{con, binds, body}] and optional default
//	con          constructor; with type and args
//	builtin      builtin name; with type (result) and args
//	inst         definition name; with types (type arguments)
//	cond         condition; with then and else
//	fail         trace message; with type
//
// Any expression may carry a type annotation under "type". Field and
// struct order is significant: it fixes constructor tags.
//
// Validate and AnalyzeCycles check a loaded program statically; the
// compiler re-checks everything it depends on.
package loader
