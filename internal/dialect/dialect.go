// Package dialect describes the target language versions a program can be
// lowered to.
//
// A Descriptor is the single source of truth for what a version admits:
// its constant kinds, its builtin operators (with stable numeric codes,
// arities and type-instantiation counts), and the header written in front of
// every serialized artifact. Descriptors are built once at package init and
// never mutated; every accessor returns copies.
package dialect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scriptc/internal/ir"
)

// Version enumerates the supported dialects.
type Version uint8

const (
	V1 Version = iota + 1
	V2
	V3
)

func (v Version) String() string {
	if v < V1 || v > V3 {
		return fmt.Sprintf("V?(%d)", uint8(v))
	}
	return fmt.Sprintf("V%d", uint8(v))
}

// Builtin describes one builtin operator.
type Builtin struct {
	// Name is the operator name used by the IR and the textual term form.
	Name string

	// Code is the stable numeric identifier written to artifacts.
	Code uint64

	// Arity is the number of value arguments.
	Arity int

	// Forces is the number of type instantiations the operator expects,
	// each realized as one Force wrapper.
	Forces int
}

// Descriptor is the immutable description of one dialect.
type Descriptor struct {
	Version         Version
	Name            string
	Tag             byte
	LanguageVersion [3]uint64

	kinds    map[ir.PrimKind]bool
	builtins map[string]Builtin
	byCode   map[uint64]Builtin
}

// SupportsKind reports whether constants of kind k exist in this dialect.
func (d *Descriptor) SupportsKind(k ir.PrimKind) bool {
	return d.kinds[k]
}

// UnsupportedKind returns the first kind mentioned by t that the dialect
// lacks, outermost first.
func (d *Descriptor) UnsupportedKind(t ir.ConstType) (ir.PrimKind, bool) {
	for _, k := range t.Kinds() {
		if !d.kinds[k] {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns the supported constant kinds in declaration order.
func (d *Descriptor) Kinds() []ir.PrimKind {
	var out []ir.PrimKind
	for _, k := range ir.AllKinds() {
		if d.kinds[k] {
			out = append(out, k)
		}
	}
	return out
}

// Builtin looks up a builtin by name.
func (d *Descriptor) Builtin(name string) (Builtin, bool) {
	b, ok := d.builtins[name]
	return b, ok
}

// BuiltinByCode looks up a builtin by its artifact code.
func (d *Descriptor) BuiltinByCode(code uint64) (Builtin, bool) {
	b, ok := d.byCode[code]
	return b, ok
}

// Builtins returns every builtin ordered by code.
func (d *Descriptor) Builtins() []Builtin {
	out := make([]Builtin, 0, len(d.byCode))
	for _, b := range d.byCode {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Builtin) int {
		switch {
		case a.Code < b.Code:
			return -1
		case a.Code > b.Code:
			return 1
		}
		return 0
	})
	return out
}

// LanguageVersionString renders the language version as "major.minor.patch".
func (d *Descriptor) LanguageVersionString() string {
	v := d.LanguageVersion
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

func (d *Descriptor) String() string {
	return d.Version.String()
}

var descriptors = buildDescriptors()

func buildDescriptors() map[Version]*Descriptor {
	baseKinds := []ir.PrimKind{
		ir.KindInteger, ir.KindByteString, ir.KindString, ir.KindBool,
		ir.KindUnit, ir.KindData, ir.KindList, ir.KindPair,
	}
	v3Kinds := append(slices.Clone(baseKinds), ir.KindG1Element, ir.KindG2Element)

	return map[Version]*Descriptor{
		V1: newDescriptor(V1, "plutus-v1", 0x01, [3]uint64{1, 0, 0}, baseKinds, v1Builtins),
		V2: newDescriptor(V2, "plutus-v2", 0x02, [3]uint64{1, 0, 0}, baseKinds, v1Builtins, v2Builtins),
		V3: newDescriptor(V3, "plutus-v3", 0x03, [3]uint64{1, 1, 0}, v3Kinds, v1Builtins, v2Builtins, v3Builtins),
	}
}

func newDescriptor(v Version, name string, tag byte, lang [3]uint64, kinds []ir.PrimKind, sets ...[]Builtin) *Descriptor {
	d := &Descriptor{
		Version:         v,
		Name:            name,
		Tag:             tag,
		LanguageVersion: lang,
		kinds:           make(map[ir.PrimKind]bool, len(kinds)),
		builtins:        make(map[string]Builtin),
		byCode:          make(map[uint64]Builtin),
	}
	for _, k := range kinds {
		d.kinds[k] = true
	}
	for _, set := range sets {
		for _, b := range set {
			if _, dup := d.byCode[b.Code]; dup {
				panic(fmt.Sprintf("dialect %s: duplicate builtin code %d", v, b.Code))
			}
			d.builtins[b.Name] = b
			d.byCode[b.Code] = b
		}
	}
	return d
}

// Get returns the descriptor for v, or nil for an unknown version.
func Get(v Version) *Descriptor {
	return descriptors[v]
}

// All returns every descriptor ordered by version.
func All() []*Descriptor {
	return []*Descriptor{descriptors[V1], descriptors[V2], descriptors[V3]}
}

// ByTag returns the descriptor whose artifact header tag is tag.
func ByTag(tag byte) (*Descriptor, bool) {
	for _, d := range All() {
		if d.Tag == tag {
			return d, true
		}
	}
	return nil, false
}

// Lookup resolves a dialect name. Accepted spellings are "v3", "V3", "3"
// and "plutus-v3" (case-insensitive).
func Lookup(name string) (*Descriptor, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "plutus-")
	n = strings.TrimPrefix(n, "v")
	for _, d := range All() {
		if n == fmt.Sprintf("%d", uint8(d.Version)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown dialect %q (want one of %s)", name, strings.Join(Names(), ", "))
}

// Names returns the canonical short names of all dialects.
func Names() []string {
	var out []string
	for _, d := range All() {
		out = append(out, strings.ToLower(d.Version.String()))
	}
	return out
}
