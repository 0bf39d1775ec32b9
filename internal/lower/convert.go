package lower

import (
	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/term"
)

// toData converts v, a value of closed type t in its own representation,
// into the data envelope.
func (l *lowerer) toData(v term.Term, t ir.Type, loc ir.Loc) (term.Term, error) {
	switch t := t.(type) {
	case ir.PrimType:
		switch t.Kind {
		case ir.KindInteger:
			return l.call("iData", loc, v)
		case ir.KindByteString:
			return l.call("bData", loc, v)
		case ir.KindString:
			enc, err := l.call("encodeUtf8", loc, v)
			if err != nil {
				return nil, err
			}
			return l.call("bData", loc, enc)
		case ir.KindBool:
			return l.call("ifThenElse", loc, v, term.DataConst(ir.Constr(1)), term.DataConst(ir.Constr(0)))
		case ir.KindUnit:
			return l.call("chooseUnit", loc, v, term.DataConst(ir.Constr(0)))
		case ir.KindData:
			return v, nil
		case ir.KindG1Element:
			c, err := l.call("bls12_381_G1_compress", loc, v)
			if err != nil {
				return nil, err
			}
			return l.call("bData", loc, c)
		case ir.KindG2Element:
			c, err := l.call("bls12_381_G2_compress", loc, v)
			if err != nil {
				return nil, err
			}
			return l.call("bData", loc, c)
		}
	case ir.ListType:
		return l.call("listData", loc, v)
	case ir.PairType:
		return l.pairToData(v, loc)
	case ir.DataType:
		switch l.res.DataReprs[t.Name] {
		case ir.DataEncoded:
			return v, nil
		case ir.PairEncoded:
			return l.pairToData(v, loc)
		}
	case ir.FuncType:
		return nil, diag.Mismatch(t.String(), ir.FunctionRepresentation, ir.DataEncoded, l.decl, loc)
	}
	return nil, diag.Mismatch(typeName(t), ir.ReprUnresolved, ir.DataEncoded, l.decl, loc)
}

// pairToData is (\p -> constrData 0 [fstPair p, sndPair p]) v.
func (l *lowerer) pairToData(v term.Term, loc ir.Loc) (term.Term, error) {
	p := l.name("p")
	fst, err := l.call("fstPair", loc, &term.Var{Name: p})
	if err != nil {
		return nil, err
	}
	snd, err := l.call("sndPair", loc, &term.Var{Name: p})
	if err != nil {
		return nil, err
	}
	nilData, err := l.call("mkNilData", loc, term.Unit())
	if err != nil {
		return nil, err
	}
	tail, err := l.call("mkCons", loc, snd, nilData)
	if err != nil {
		return nil, err
	}
	list, err := l.call("mkCons", loc, fst, tail)
	if err != nil {
		return nil, err
	}
	body, err := l.call("constrData", loc, term.Int(0), list)
	if err != nil {
		return nil, err
	}
	return term.Let(p, v, body), nil
}

// fromData is the inverse of toData: it projects a data value back into the
// representation of closed type t.
func (l *lowerer) fromData(d term.Term, t ir.Type, loc ir.Loc) (term.Term, error) {
	switch t := t.(type) {
	case ir.PrimType:
		switch t.Kind {
		case ir.KindInteger:
			return l.call("unIData", loc, d)
		case ir.KindByteString:
			return l.call("unBData", loc, d)
		case ir.KindString:
			raw, err := l.call("unBData", loc, d)
			if err != nil {
				return nil, err
			}
			return l.call("decodeUtf8", loc, raw)
		case ir.KindBool:
			fields, err := l.call("unConstrData", loc, d)
			if err != nil {
				return nil, err
			}
			tag, err := l.call("fstPair", loc, fields)
			if err != nil {
				return nil, err
			}
			return l.call("equalsInteger", loc, tag, term.Int(1))
		case ir.KindUnit:
			return term.Unit(), nil
		case ir.KindData:
			return d, nil
		case ir.KindG1Element:
			raw, err := l.call("unBData", loc, d)
			if err != nil {
				return nil, err
			}
			return l.call("bls12_381_G1_uncompress", loc, raw)
		case ir.KindG2Element:
			raw, err := l.call("unBData", loc, d)
			if err != nil {
				return nil, err
			}
			return l.call("bls12_381_G2_uncompress", loc, raw)
		}
	case ir.ListType:
		return l.call("unListData", loc, d)
	case ir.PairType:
		return l.pairFromData(d, loc)
	case ir.DataType:
		switch l.res.DataReprs[t.Name] {
		case ir.DataEncoded:
			return d, nil
		case ir.PairEncoded:
			return l.pairFromData(d, loc)
		}
	case ir.FuncType:
		return nil, diag.Mismatch(t.String(), ir.DataEncoded, ir.FunctionRepresentation, l.decl, loc)
	}
	return nil, diag.Mismatch(typeName(t), ir.DataEncoded, ir.ReprUnresolved, l.decl, loc)
}

// pairFromData is
// (\l -> mkPairData (headList l) (headList (tailList l))) (sndPair (unConstrData d)).
func (l *lowerer) pairFromData(d term.Term, loc ir.Loc) (term.Term, error) {
	fields := l.name("l")
	unpacked, err := l.call("unConstrData", loc, d)
	if err != nil {
		return nil, err
	}
	list, err := l.call("sndPair", loc, unpacked)
	if err != nil {
		return nil, err
	}
	first, err := l.call("headList", loc, &term.Var{Name: fields})
	if err != nil {
		return nil, err
	}
	rest, err := l.call("tailList", loc, &term.Var{Name: fields})
	if err != nil {
		return nil, err
	}
	second, err := l.call("headList", loc, rest)
	if err != nil {
		return nil, err
	}
	pair, err := l.call("mkPairData", loc, first, second)
	if err != nil {
		return nil, err
	}
	return term.Let(fields, list, pair), nil
}
