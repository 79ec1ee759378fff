package filtergraph

import (
	"fmt"
)

// LabelInputs Return a copy of the graph with labels attached to its free input pads, in the Join search
// order. An empty label skips a pad. Attaching a label that already names a free output connects both pads
func (g *Graph) LabelInputs(labels ...string) (*Graph, error) {
	return g.labelFree(Input, labels)
}

// LabelOutputs Return a copy of the graph with labels attached to its free output pads, in the Join search
// order. An empty label skips a pad
func (g *Graph) LabelOutputs(labels ...string) (*Graph, error) {
	return g.labelFree(Output, labels)
}

// LabelPad Return a copy of the graph with a label attached to the pad at addr
func (g *Graph) LabelPad(addr PadAddress, d Direction, label string) (*Graph, error) {
	s := g.state()
	a, err := s.resolve(addr, d)
	if err != nil {
		return nil, err
	}
	if _, used := s.used[keyOf(a, d)]; used {
		return nil, &DuplicateLinkError{Label: label, Pad: &a, Direction: d}
	}
	out := g.clone()
	if err := out.attach(a, d, label); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Graph) labelFree(d Direction, labels []string) (*Graph, error) {
	var free []PadAddress
	s := g.state()
	for ci := range g.chains {
		free = append(free, s.free(ci, d)...)
	}
	if len(labels) > len(free) {
		return nil, &ArityError{
			Direction: d,
			Pad:       -1,
			Reason:    fmt.Sprintf("%d label(s) given for %d free %s pad(s)", len(labels), len(free), d),
		}
	}
	out := g.clone()
	for i, label := range labels {
		if label == "" {
			continue
		}
		if err := out.attach(free[i], d, label); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// attach Record a label on a free pad. Completes the link if the label already names a pad of the other
// direction. Mutates g, callers work on a clone
func (g *Graph) attach(a PadAddress, d Direction, label string) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	for i, l := range g.links {
		if l.Label != label {
			continue
		}
		if l.side(d) != nil {
			// The same input stream may feed several pads
			if d == Input && isStreamSpecifier(label) && l.Output == nil {
				continue
			}
			return &DuplicateLinkError{Label: label, Direction: d}
		}
		g.links[i].set(d, a)
		return nil
	}
	l := Link{Label: label}
	l.set(d, a)
	g.links = append(g.links, l)
	return nil
}

// Link Connect two pads in place, for topologies the pad search cannot express, such as a filter whose
// outputs are consumed in another order than declared. out designates an output pad, in an input pad.
// One of them may be a LabelRef naming the free end of an endpoint label. The graph is left untouched
// when an error is returned.
// This is the only operation mutating a Graph : do not call it on a graph shared with other owners
func (g *Graph) Link(out PadRef, in PadRef) error {
	s := g.state()
	links := append([]Link(nil), g.links...)

	switch o := out.(type) {
	case PadAddress:
		oa, err := s.resolveFree(o, Output)
		if err != nil {
			return err
		}
		switch i := in.(type) {
		case PadAddress:
			ia, err := s.resolveFree(i, Input)
			if err != nil {
				return err
			}
			links = append(links, Link{Output: &oa, Input: &ia})
		case LabelRef:
			k, err := findEndpoint(links, string(i), Input)
			if err != nil {
				return err
			}
			links[k].set(Output, oa)
		default:
			return fmt.Errorf("filtergraph: unsupported pad reference %T", in)
		}
	case LabelRef:
		i, ok := in.(PadAddress)
		if !ok {
			return fmt.Errorf("filtergraph: link needs at least one pad address")
		}
		ia, err := s.resolveFree(i, Input)
		if err != nil {
			return err
		}
		k, err := findEndpoint(links, string(o), Output)
		if err != nil {
			return err
		}
		links[k].set(Input, ia)
	default:
		return fmt.Errorf("filtergraph: unsupported pad reference %T", out)
	}

	candidate := &Graph{chains: g.chains, links: links}
	if err := candidate.validate(); err != nil {
		return err
	}
	g.links = links
	return nil
}

// resolveFree Resolve an address and make sure the pad is not connected yet
func (s *padState) resolveFree(addr PadAddress, d Direction) (PadAddress, error) {
	a, err := s.resolve(addr, d)
	if err != nil {
		return a, err
	}
	if _, used := s.used[keyOf(a, d)]; used {
		return a, &DuplicateLinkError{Pad: &a, Direction: d}
	}
	return a, nil
}

// findEndpoint Index of the link named label whose only end is in direction d
func findEndpoint(links []Link, label string, d Direction) (int, error) {
	found := false
	for k, l := range links {
		if l.Label != label {
			continue
		}
		found = true
		if l.side(d) != nil && l.side(opposite(d)) == nil {
			return k, nil
		}
	}
	if !found {
		return -1, &UnknownLabelError{Label: label}
	}
	return -1, &DuplicateLinkError{Label: label, Direction: opposite(d)}
}

// Unlink Return a copy of the graph without any link named label. The pads it connected become free
func (g *Graph) Unlink(label string) (*Graph, error) {
	out := g.clone()
	out.links = out.links[:0:0]
	for _, l := range g.links {
		if l.Label != label {
			out.links = append(out.links, l)
		}
	}
	if len(out.links) == len(g.links) {
		return nil, &UnknownLabelError{Label: label}
	}
	return out, nil
}

// UnlinkPad Return a copy of the graph without the link using the pad at addr. Both of its ends become free.
// Pads joined inside a chain cannot be unlinked
func (g *Graph) UnlinkPad(addr PadAddress, d Direction) (*Graph, error) {
	s := g.state()
	a, err := s.resolve(addr, d)
	if err != nil {
		return nil, err
	}
	i, used := s.used[keyOf(a, d)]
	if !used {
		return nil, fmt.Errorf("filtergraph: %s pad %s is not linked", d, a)
	}
	if i == jointUse {
		return nil, fmt.Errorf("filtergraph: %s pad %s is joined inside its chain", d, a)
	}
	out := g.clone()
	out.links = append(out.links[:i:i], g.links[i+1:]...)
	return out, nil
}

// RemoveLabel Return a copy of the graph where label no longer appears. Links between two pads are kept and
// get a synthesized name, endpoint labels are dropped and their pad becomes free
func (g *Graph) RemoveLabel(label string) (*Graph, error) {
	out := g.clone()
	out.links = out.links[:0:0]
	found := false
	for _, l := range g.links {
		if l.Label != label {
			out.links = append(out.links, l)
			continue
		}
		found = true
		if l.Output != nil && l.Input != nil {
			l.Label = ""
			out.links = append(out.links, l)
		}
	}
	if !found {
		return nil, &UnknownLabelError{Label: label}
	}
	return out, nil
}

// RenameLabel Return a copy of the graph where every use of from is named to. to must not be in use yet
func (g *Graph) RenameLabel(from string, to string) (*Graph, error) {
	if err := checkLabel(to); err != nil {
		return nil, err
	}
	labels := g.labelSet()
	if !labels[from] {
		return nil, &UnknownLabelError{Label: from}
	}
	if from == to {
		return g.clone(), nil
	}
	if labels[to] {
		return nil, &DuplicateLinkError{Label: to, Direction: Input}
	}
	out := g.clone()
	for i := range out.links {
		if out.links[i].Label == from {
			out.links[i].Label = to
		}
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// AreLinked Whether the output pad out feeds the input pad in, through a chain joint or a link
func (g *Graph) AreLinked(out PadAddress, in PadAddress) bool {
	s := g.state()
	oa, err := s.resolve(out, Output)
	if err != nil {
		return false
	}
	ia, err := s.resolve(in, Input)
	if err != nil {
		return false
	}
	if oa.Chain == ia.Chain && oa.Filter+1 == ia.Filter {
		j := g.chains[oa.Chain].joints[oa.Filter]
		if j.out == oa.Pad && j.in == ia.Pad {
			return true
		}
	}
	for _, l := range g.links {
		if l.Output != nil && l.Input != nil && *l.Output == oa && *l.Input == ia {
			return true
		}
	}
	return false
}
