package filtergraph

import "fmt"

// padPair One connection made by Join
type padPair struct {
	out PadAddress
	in  PadAddress
}

// Join Connect the free outputs of left to the free inputs of right.
//
// Free pads are searched chain by chain. On the left, the last filter of a chain still having a free output
// comes first, on the right the first filter still having a free input. Pads are then paired :
//   - chain by chain, when both sides expose pads on the same number of chains and every exposing chain of
//     at least one side exposes a single pad. The first free pad of each chain is used, the others stay free ;
//   - pad by pad otherwise, when both sides expose the same total number of free pads.
//
// Anything else fails with an *ArityMismatchError.
// When both operands are a *Filter or a *Chain and a single connection links the end of left to the start of
// right, the result is a *Chain. It is a *Graph in every other case.
// The empty chain is the identity element
func Join(left Fragment, right Fragment) (Fragment, error) {
	if isEmpty(left) {
		return right, nil
	}
	if isEmpty(right) {
		return left, nil
	}
	lg, rg := left.AsGraph(), right.AsGraph()
	outs := lg.state().freeByChain(Output)
	ins := rg.state().freeByChain(Input)
	pairs, err := pairPads(outs, ins)
	if err != nil {
		return nil, err
	}

	lc, lok := asChain(left)
	rc, rok := asChain(right)
	if lok && rok && len(pairs) == 1 {
		p := pairs[0]
		if p.out.Filter == len(lc.filters)-1 && p.in.Filter == 0 {
			return lc.concat(rc, joint{p.out.Pad, p.in.Pad}), nil
		}
	}

	g := stack(lg, rg)
	offset := len(lg.chains)
	for _, p := range pairs {
		out, in := p.out, p.in
		in.Chain += offset
		g.links = append(g.links, Link{Output: &out, Input: &in})
	}
	return g, nil
}

// Attach Connect a single output pad of left to a single input pad of right, stacking every other pad as is.
// A nil address selects the first free pad in the Join search order
func Attach(left Fragment, right Fragment, leftOn *PadAddress, rightOn *PadAddress) (*Graph, error) {
	lg, rg := left.AsGraph(), right.AsGraph()
	out, err := pickPad(lg, leftOn, Output)
	if err != nil {
		return nil, err
	}
	in, err := pickPad(rg, rightOn, Input)
	if err != nil {
		return nil, err
	}
	g := stack(lg, rg)
	in.Chain += len(lg.chains)
	g.links = append(g.links, Link{Output: &out, Input: &in})
	return g, nil
}

func pickPad(g *Graph, on *PadAddress, d Direction) (PadAddress, error) {
	s := g.state()
	if on != nil {
		return s.resolveFree(*on, d)
	}
	for ci := range g.chains {
		if pads := s.free(ci, d); len(pads) > 0 {
			return pads[0], nil
		}
	}
	return PadAddress{}, &ArityError{Direction: d, Pad: -1, Reason: fmt.Sprintf("no free %s pad to attach", d)}
}

// JoinAll Fold Join over the fragments, left to right
func JoinAll(fragments ...Fragment) (Fragment, error) {
	var acc Fragment = &Chain{}
	for _, f := range fragments {
		var err error
		if acc, err = Join(acc, f); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func pairPads(outs [][]PadAddress, ins [][]PadAddress) ([]padPair, error) {
	if len(outs) == len(ins) && len(outs) > 0 && (singles(outs) || singles(ins)) {
		pairs := make([]padPair, len(outs))
		for i := range outs {
			pairs[i] = padPair{outs[i][0], ins[i][0]}
		}
		return pairs, nil
	}
	flatOuts, flatIns := flatten(outs), flatten(ins)
	if len(flatOuts) == len(flatIns) && len(flatOuts) > 0 {
		pairs := make([]padPair, len(flatOuts))
		for i := range flatOuts {
			pairs[i] = padPair{flatOuts[i], flatIns[i]}
		}
		return pairs, nil
	}
	return nil, &ArityMismatchError{
		Outputs:      len(flatOuts),
		OutputChains: len(outs),
		Inputs:       len(flatIns),
		InputChains:  len(ins),
	}
}

// singles Whether every group holds exactly one pad
func singles(groups [][]PadAddress) bool {
	for _, g := range groups {
		if len(g) != 1 {
			return false
		}
	}
	return true
}

func flatten(groups [][]PadAddress) []PadAddress {
	var flat []PadAddress
	for _, g := range groups {
		flat = append(flat, g...)
	}
	return flat
}

func isEmpty(f Fragment) bool {
	switch v := f.(type) {
	case *Chain:
		return len(v.filters) == 0
	case *Graph:
		return len(v.chains) == 0
	}
	return false
}

// asChain Filters and chains join into chains, graphs never do
func asChain(f Fragment) (*Chain, bool) {
	switch v := f.(type) {
	case *Filter:
		return &Chain{filters: []*Filter{v}}, true
	case *Chain:
		return v, true
	}
	return nil, false
}
