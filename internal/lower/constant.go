package lower

import (
	"math/big"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/term"
)

// checkKinds rejects a constant mentioning a kind the dialect lacks.
func (l *lowerer) checkKinds(c ir.Constant, loc ir.Loc) error {
	if k, bad := l.d.UnsupportedKind(c.Type()); bad {
		return diag.UnsupportedPrimitive(k, l.d.Version.String(), l.decl, loc)
	}
	if c, ok := c.(ir.ListConst); ok {
		for _, it := range c.Items {
			if err := l.checkKinds(it, loc); err != nil {
				return err
			}
		}
	}
	return nil
}

// literal lowers a literal in its runtime representation. Primitive
// constants stay native. List and pair literals hold data-encoded elements,
// so their items are converted into data constants.
func (l *lowerer) literal(c ir.Constant, loc ir.Loc) (term.Term, error) {
	if err := l.checkKinds(c, loc); err != nil {
		return nil, err
	}
	switch c := c.(type) {
	case ir.ListConst:
		items := make([]ir.Constant, len(c.Items))
		for i, it := range c.Items {
			items[i] = ir.DataConst{Value: toDataConst(it)}
		}
		return &term.Const{Value: ir.ListConst{Elem: ir.DataConstType, Items: items}}, nil
	case ir.PairConst:
		return &term.Const{Value: ir.PairConst{
			First:  ir.DataConst{Value: toDataConst(c.First)},
			Second: ir.DataConst{Value: toDataConst(c.Second)},
		}}, nil
	default:
		return &term.Const{Value: c}, nil
	}
}

// toDataConst folds a constant into the data envelope at compile time. It
// mirrors the runtime conversion emitted by toData.
func toDataConst(c ir.Constant) ir.Data {
	switch c := c.(type) {
	case ir.Integer:
		return ir.IntData{Value: new(big.Int).Set(c.Big())}
	case ir.ByteStr:
		return ir.BytesData(c)
	case ir.String:
		return ir.BytesData(c)
	case ir.Bool:
		if c {
			return ir.Constr(1)
		}
		return ir.Constr(0)
	case ir.Unit:
		return ir.Constr(0)
	case ir.DataConst:
		return c.Value
	case ir.ListConst:
		items := make(ir.ListData, len(c.Items))
		for i, it := range c.Items {
			items[i] = toDataConst(it)
		}
		return items
	case ir.PairConst:
		return ir.Constr(0, toDataConst(c.First), toDataConst(c.Second))
	case ir.G1Element:
		return ir.BytesData(c)
	case ir.G2Element:
		return ir.BytesData(c)
	default:
		return ir.Constr(0)
	}
}
