// Package flat is the canonical binary encoding of lowered terms.
//
// An artifact is a header followed by the pre-order encoding of one closed
// term:
//
//	header   = dialect tag (1 byte) || major || minor || patch   (uvarints)
//	term     = tag byte, then the node's payload
//	Var      0  uvarint de Bruijn index (1-based)
//	Delay    1  term
//	Lambda   2  term
//	Apply    3  term term
//	Const    4  type payload
//	Force    5  term
//	Error    6
//	Builtin  7  uvarint builtin code
//
// Every encoding is canonical: integers are minimal two's complement,
// varints are minimal, and the decoder rejects any input the encoder could
// not have produced, so decode(encode(t)) re-encodes byte for byte.
package flat

// Term tags.
const (
	tagVar     byte = 0
	tagDelay   byte = 1
	tagLambda  byte = 2
	tagApply   byte = 3
	tagConst   byte = 4
	tagForce   byte = 5
	tagError   byte = 6
	tagBuiltin byte = 7
)

// Constant type tags.
const (
	typeInteger    byte = 0
	typeByteString byte = 1
	typeString     byte = 2
	typeUnit       byte = 3
	typeBool       byte = 4
	typeList       byte = 5
	typePair       byte = 6
	typeData       byte = 8
	typeG1         byte = 9
	typeG2         byte = 10
)

// Data tags.
const (
	dataConstr byte = 0
	dataMap    byte = 1
	dataList   byte = 2
	dataInt    byte = 3
	dataBytes  byte = 4
)
