// Package harness runs compiler conformance scenarios.
//
// A scenario is a YAML file naming a CUE program, an optional dialect and a
// list of assertions about the compile:
//
//	name: box_v3
//	description: unbox is instantiated once per type argument
//	program: ../programs/box.cue
//	dialect: v3
//	assertions:
//	  - type: compiles
//	  - type: instances
//	    keys: [describe, "unbox[Action]", "unbox[Integer]"]
//	  - type: deterministic
//
// Each scenario compiles against a fresh in-memory artifact store with a
// deterministic clock and ID generator, so build logs and golden snapshots
// are byte-stable across runs.
//
// Assertion types:
//
//	compiles       the program compiles
//	fails_with     the compile (or static validation) fails with code
//	header         the artifact starts with tag, or with the hex prefix
//	branch_order   equalsInteger comparisons test tags in this order
//	instances      the resolved instance keys are exactly keys
//	deterministic  recompiling yields the same bytes, cached and uncached
//	round_trip     decoding the artifact yields an alpha-equivalent term
//	max_size       the artifact is at most max_bytes long
package harness
