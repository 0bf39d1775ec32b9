// Package ir provides the typed intermediate representation consumed by the
// representation resolver and the lowering engine.
//
// This package contains the data model only. All other internal packages
// import ir; ir imports nothing internal. This keeps the IR the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Every expression node carries its declared Type and a Representation
//     slot. Only the resolver fills the slot, and it does so on a fresh copy.
//   - Types are closed trees: after substitution a value-position type must
//     contain no TypeVar, otherwise resolution fails.
//   - Programs are read-only once constructed. Passes return new trees.
//   - Canonical JSON (RFC 8785) is the only serialization used for
//     content-addressed program identity.
package ir
