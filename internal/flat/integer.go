package flat

import (
	"encoding/binary"
	"math/big"
)

var one = big.NewInt(1)

// appendInteger writes n as a uvarint byte count followed by its minimal
// big-endian two's-complement bytes. Zero has no bytes.
func appendInteger(buf []byte, n *big.Int) []byte {
	if n.Sign() == 0 {
		return binary.AppendUvarint(buf, 0)
	}

	var k int
	v := new(big.Int).Set(n)
	if n.Sign() > 0 {
		k = n.BitLen()/8 + 1
	} else {
		mag := new(big.Int).Neg(n)
		mag.Sub(mag, one)
		k = mag.BitLen()/8 + 1
		v.Add(v, new(big.Int).Lsh(one, uint(8*k)))
	}

	out := make([]byte, k)
	v.FillBytes(out)
	buf = binary.AppendUvarint(buf, uint64(k))
	return append(buf, out...)
}

// minimalInteger reports whether b is the shortest two's-complement
// encoding of its value.
func minimalInteger(b []byte) bool {
	switch {
	case len(b) == 0:
		return true
	case len(b) == 1:
		return b[0] != 0x00
	case b[0] == 0x00 && b[1]&0x80 == 0:
		return false
	case b[0] == 0xff && b[1]&0x80 != 0:
		return false
	}
	return true
}

// integerFromBytes interprets b as big-endian two's complement.
func integerFromBytes(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(one, uint(8*len(b))))
	}
	return n
}
