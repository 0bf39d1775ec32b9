package ir

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
)

// Data is a sealed interface over the generic tagged envelope used for
// DataEncoded values: constructor applications, maps, lists, integers and
// byte strings.
type Data interface {
	data()
}

// ConstrData is a constructor application: a tag plus positional fields.
type ConstrData struct {
	Tag    uint64
	Fields []Data
}

// MapData is an ordered association list. Order is significant and preserved.
type MapData []DataPair

// DataPair is one entry of a MapData.
type DataPair struct {
	Key   Data
	Value Data
}

// ListData is a list of data values.
type ListData []Data

// IntData is an arbitrary-precision integer inside the envelope.
type IntData struct {
	Value *big.Int
}

// BytesData is a byte string inside the envelope.
type BytesData []byte

func (ConstrData) data() {}
func (MapData) data()    {}
func (ListData) data()   {}
func (IntData) data()    {}
func (BytesData) data()  {}

// NewIntData creates an IntData from an int64.
func NewIntData(n int64) IntData {
	return IntData{Value: big.NewInt(n)}
}

// Big returns the value, treating a nil pointer as zero.
func (d IntData) Big() *big.Int {
	if d.Value == nil {
		return new(big.Int)
	}
	return d.Value
}

// Constr is shorthand for a constructor application.
func Constr(tag uint64, fields ...Data) ConstrData {
	if fields == nil {
		fields = []Data{}
	}
	return ConstrData{Tag: tag, Fields: fields}
}

// DataEqual reports structural equality of two data values.
func DataEqual(a, b Data) bool {
	switch a := a.(type) {
	case ConstrData:
		bc, ok := b.(ConstrData)
		if !ok || a.Tag != bc.Tag || len(a.Fields) != len(bc.Fields) {
			return false
		}
		for i := range a.Fields {
			if !DataEqual(a.Fields[i], bc.Fields[i]) {
				return false
			}
		}
		return true
	case MapData:
		bm, ok := b.(MapData)
		if !ok || len(a) != len(bm) {
			return false
		}
		for i := range a {
			if !DataEqual(a[i].Key, bm[i].Key) || !DataEqual(a[i].Value, bm[i].Value) {
				return false
			}
		}
		return true
	case ListData:
		bl, ok := b.(ListData)
		if !ok || len(a) != len(bl) {
			return false
		}
		for i := range a {
			if !DataEqual(a[i], bl[i]) {
				return false
			}
		}
		return true
	case IntData:
		bi, ok := b.(IntData)
		return ok && a.Big().Cmp(bi.Big()) == 0
	case BytesData:
		bb, ok := b.(BytesData)
		return ok && bytes.Equal(a, bb)
	default:
		return false
	}
}

// FormatData renders a data value in the textual term syntax.
func FormatData(d Data) string {
	switch d := d.(type) {
	case ConstrData:
		fields := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = FormatData(f)
		}
		return fmt.Sprintf("Constr %d [%s]", d.Tag, strings.Join(fields, ", "))
	case MapData:
		entries := make([]string, len(d))
		for i, e := range d {
			entries[i] = "(" + FormatData(e.Key) + ", " + FormatData(e.Value) + ")"
		}
		return "Map [" + strings.Join(entries, ", ") + "]"
	case ListData:
		items := make([]string, len(d))
		for i, it := range d {
			items[i] = FormatData(it)
		}
		return "List [" + strings.Join(items, ", ") + "]"
	case IntData:
		return "I " + d.Big().String()
	case BytesData:
		return fmt.Sprintf("B #%x", []byte(d))
	default:
		return "?"
	}
}
