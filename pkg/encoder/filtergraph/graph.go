package filtergraph

import (
	"fmt"
	"sort"
	"sync"
)

// Link One entry of the link table. A link with both sides set connects an output pad to an input pad.
// A link with a single side is an endpoint label : an input stream consumed by the graph, or an output
// handed to the ffmpeg command (-map). Label is empty for links created by Join or Graph.Link, their name
// is only synthesized when the graph is composed
type Link struct {
	Label  string
	Output *PadAddress
	Input  *PadAddress
}

func (l Link) side(d Direction) *PadAddress {
	if d == Output {
		return l.Output
	}
	return l.Input
}

func (l *Link) set(d Direction, a PadAddress) {
	if d == Output {
		l.Output = &a
	} else {
		l.Input = &a
	}
}

// Pad State of a single pad
type Pad struct {
	Direction Direction
	Connected bool
	// Label text, empty for anonymous links and free pads
	Label string
}

// Graph Chains laid side by side, plus the link table connecting their pads.
// Graphs are values : every operator returns a new Graph, Link being the only method mutating its receiver
type Graph struct {
	chains []*Chain
	links  []Link

	// Options of the sws_flags header, applied to the scalers ffmpeg inserts on its own
	swsFlags []Arg

	// Synthesized labels, cached by the composer so that a graph always composes to the same text
	mu    sync.Mutex
	names map[nameKey]string
}

// Len Number of chains
func (g *Graph) Len() int {
	return len(g.chains)
}

// Chains A copy of the chain list
func (g *Graph) Chains() []*Chain {
	return append([]*Chain(nil), g.chains...)
}

// Links A copy of the link table
func (g *Graph) Links() []Link {
	return append([]Link(nil), g.links...)
}

// AsGraph A graph is already a graph
func (g *Graph) AsGraph() *Graph {
	return g
}

// ExternalLabels Labels attached to a single pad in the given direction, in table order. Input endpoints are
// the streams the graph consumes, output endpoints the streams it produces
func (g *Graph) ExternalLabels(d Direction) []string {
	var labels []string
	for _, l := range g.links {
		if l.Label != "" && l.side(d) != nil && l.side(opposite(d)) == nil {
			labels = append(labels, l.Label)
		}
	}
	return labels
}

// Pad Report the state of the pad at addr
func (g *Graph) Pad(addr PadAddress, d Direction) (Pad, error) {
	s := g.state()
	a, err := s.resolve(addr, d)
	if err != nil {
		return Pad{}, err
	}
	p := Pad{Direction: d}
	i, used := s.used[keyOf(a, d)]
	p.Connected = used
	if used && i >= 0 {
		p.Label = g.links[i].Label
	}
	return p, nil
}

func (g *Graph) clone() *Graph {
	return &Graph{
		chains:   append([]*Chain(nil), g.chains...),
		links:    append([]Link(nil), g.links...),
		swsFlags: g.swsFlags,
	}
}

// SwsFlags Options of the sws_flags header, nil when the graph has none
func (g *Graph) SwsFlags() []Arg {
	return append([]Arg(nil), g.swsFlags...)
}

// WithSwsFlags Return a copy of the graph composed with a "sws_flags=...;" header. No option removes it
func (g *Graph) WithSwsFlags(flags ...Arg) *Graph {
	out := g.clone()
	out.swsFlags = append([]Arg(nil), flags...)
	return out
}

// NumInputs Number of input pads still expecting frames from outside the graph : free pads, plus pads
// labeled with a name other than a stream specifier
func (g *Graph) NumInputs() int {
	return g.numOpen(Input)
}

// NumOutputs Number of output pads not consumed inside the graph, labeled or not
func (g *Graph) NumOutputs() int {
	return g.numOpen(Output)
}

func (g *Graph) numOpen(d Direction) int {
	s := g.state()
	n := 0
	for ci := range g.chains {
		n += len(s.free(ci, d))
	}
	for _, l := range g.links {
		if l.side(d) == nil || l.side(opposite(d)) != nil {
			continue
		}
		if d == Input && isStreamSpecifier(l.Label) {
			continue
		}
		n++
	}
	return n
}

// labelSet Every label text present in the link table
func (g *Graph) labelSet() map[string]bool {
	set := make(map[string]bool, len(g.links))
	for _, l := range g.links {
		if l.Label != "" {
			set[l.Label] = true
		}
	}
	return set
}

func opposite(d Direction) Direction {
	if d == Output {
		return Input
	}
	return Output
}

// jointUse marks a pad used by an anonymous intra-chain link
const jointUse = -1

// padState Snapshot of pad usage, built once per operation
type padState struct {
	g *Graph
	// Connected pads, mapped to the index of the link using them or jointUse
	used map[padKey]int
	// Highest referenced pad + 1, per filter side
	top map[filterKey]int
}

func (g *Graph) state() *padState {
	s := &padState{g: g, used: map[padKey]int{}, top: map[filterKey]int{}}
	mark := func(a PadAddress, d Direction, i int) {
		s.used[keyOf(a, d)] = i
		fk := filterKey{a.Chain, a.Filter, d}
		if a.Pad+1 > s.top[fk] {
			s.top[fk] = a.Pad + 1
		}
	}
	for ci, c := range g.chains {
		for fi, j := range c.joints {
			mark(PadAddress{ci, fi, j.out}, Output, jointUse)
			mark(PadAddress{ci, fi + 1, j.in}, Input, jointUse)
		}
	}
	for i, l := range g.links {
		if l.Output != nil {
			mark(*l.Output, Output, i)
		}
		if l.Input != nil {
			mark(*l.Input, Input, i)
		}
	}
	return s
}

// count Number of pads of a filter side. Dynamic sides grow to cover every referenced pad
func (s *padState) count(ci int, fi int, d Direction) int {
	f := s.g.chains[ci].filters[fi]
	n := f.padCount(d)
	if f.Arity(d) == Dynamic {
		if t := s.top[filterKey{ci, fi, d}]; t > n {
			n = t
		}
	}
	return n
}

// free Unconnected pads of one chain, in search order : inputs from the first filter onward, outputs from
// the last filter backward, lowest pad first on each filter
func (s *padState) free(ci int, d Direction) []PadAddress {
	var pads []PadAddress
	n := len(s.g.chains[ci].filters)
	for k := 0; k < n; k++ {
		fi := k
		if d == Output {
			fi = n - 1 - k
		}
		for p := 0; p < s.count(ci, fi, d); p++ {
			if _, ok := s.used[padKey{ci, fi, p, d}]; !ok {
				pads = append(pads, PadAddress{ci, fi, p})
			}
		}
	}
	return pads
}

// freeByChain Unconnected pads grouped by chain, chains without any free pad left out
func (s *padState) freeByChain(d Direction) [][]PadAddress {
	var groups [][]PadAddress
	for ci := range s.g.chains {
		if pads := s.free(ci, d); len(pads) > 0 {
			groups = append(groups, pads)
		}
	}
	return groups
}

// resolve Turn negative components into absolute indices and check them against the graph
func (s *padState) resolve(a PadAddress, d Direction) (PadAddress, error) {
	ci, ok := wrapIndex(a.Chain, len(s.g.chains))
	if !ok {
		return a, &ArityError{Direction: d, Pad: a.Pad, Reason: fmt.Sprintf("chain %d is out of range (%d chains)", a.Chain, len(s.g.chains))}
	}
	c := s.g.chains[ci]
	fi, ok := wrapIndex(a.Filter, len(c.filters))
	if !ok {
		return a, &ArityError{Direction: d, Pad: a.Pad, Reason: fmt.Sprintf("filter %d is out of range (chain %d has %d filters)", a.Filter, ci, len(c.filters))}
	}
	f := c.filters[fi]
	p := a.Pad
	if p < 0 {
		p += s.count(ci, fi, d)
	}
	if !f.Arity(d).accepts(p) {
		return a, padRangeError(f, d, a.Pad)
	}
	return PadAddress{ci, fi, p}, nil
}

func wrapIndex(i int, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// validate Check the graph invariants : unique labels, pads used at most once, pads within arity
func (g *Graph) validate() error {
	claimed := map[padKey]bool{}
	claim := func(a PadAddress, d Direction, label string) error {
		if a.Chain < 0 || a.Chain >= len(g.chains) || a.Filter < 0 || a.Filter >= len(g.chains[a.Chain].filters) {
			return &ArityError{Direction: d, Pad: a.Pad, Reason: fmt.Sprintf("pad address %s does not exist", a)}
		}
		f := g.chains[a.Chain].filters[a.Filter]
		if !f.Arity(d).accepts(a.Pad) {
			return padRangeError(f, d, a.Pad)
		}
		k := keyOf(a, d)
		if claimed[k] {
			return &DuplicateLinkError{Label: label, Pad: &a, Direction: d}
		}
		claimed[k] = true
		return nil
	}
	for ci, c := range g.chains {
		for fi, j := range c.joints {
			if err := claim(PadAddress{ci, fi, j.out}, Output, ""); err != nil {
				return err
			}
			if err := claim(PadAddress{ci, fi + 1, j.in}, Input, ""); err != nil {
				return err
			}
		}
	}
	seen := map[string]Link{}
	for _, l := range g.links {
		if l.Output == nil && l.Input == nil {
			return fmt.Errorf("filtergraph: link [%s] has no end", l.Label)
		}
		if l.Label != "" {
			if prev, ok := seen[l.Label]; ok {
				reused := isStreamSpecifier(l.Label) && prev.Output == nil && l.Output == nil
				if !reused {
					d := Input
					if l.Output != nil && prev.Output != nil {
						d = Output
					}
					return &DuplicateLinkError{Label: l.Label, Direction: d}
				}
			}
			seen[l.Label] = l
		}
		if l.Output != nil {
			if err := claim(*l.Output, Output, l.Label); err != nil {
				return err
			}
		}
		if l.Input != nil {
			if err := claim(*l.Input, Input, l.Label); err != nil {
				return err
			}
		}
	}
	return nil
}

// Equivalent Whether both graphs hold the same filters, in the same order, connected the same way. Chain
// boundaries are ignored : a joint and a labeled link between the same pads are equivalent, which is how the
// composer writes joints it cannot render inline. Names of links joining two pads are ignored, so that
// synthesized labels do not matter. Endpoint labels and sws_flags must match
func (g *Graph) Equivalent(other *Graph) bool {
	if other == nil {
		return false
	}
	if !equalArgs(g.swsFlags, other.swsFlags) {
		return false
	}
	fa, fb := g.flatFilters(), other.flatFilters()
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		if !fa[i].equal(fb[i]) {
			return false
		}
	}
	a, b := g.topology(), other.topology()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (g *Graph) flatFilters() []*Filter {
	var filters []*Filter
	for _, c := range g.chains {
		filters = append(filters, c.filters...)
	}
	return filters
}

// topology Sorted edges of the graph, pads being numbered by their filter rank in composition order
func (g *Graph) topology() []string {
	base := make([]int, len(g.chains))
	n := 0
	for ci, c := range g.chains {
		base[ci] = n
		n += len(c.filters)
	}
	pad := func(a *PadAddress) string {
		return fmt.Sprintf("%d:%d", base[a.Chain]+a.Filter, a.Pad)
	}
	var t []string
	for ci, c := range g.chains {
		for fi, j := range c.joints {
			t = append(t, fmt.Sprintf("%s->%s", pad(&PadAddress{ci, fi, j.out}), pad(&PadAddress{ci, fi + 1, j.in})))
		}
	}
	for _, l := range g.links {
		switch {
		case l.Output != nil && l.Input != nil:
			t = append(t, fmt.Sprintf("%s->%s", pad(l.Output), pad(l.Input)))
		case l.Output != nil:
			t = append(t, fmt.Sprintf("%s->[%s]", pad(l.Output), l.Label))
		default:
			t = append(t, fmt.Sprintf("[%s]->%s", l.Label, pad(l.Input)))
		}
	}
	sort.Strings(t)
	return t
}

func (f *Filter) equal(o *Filter) bool {
	if f.name != o.name || f.inputs != o.inputs || f.outputs != o.outputs {
		return false
	}
	return equalArgs(f.args, o.args)
}

// equalArgs Whether both option lists compose the same way. Positional options always compose first
func equalArgs(a []Arg, b []Arg) bool {
	if len(a) != len(b) {
		return false
	}
	oa, ob := orderedArgs(a), orderedArgs(b)
	for k := range oa {
		if oa[k] != ob[k] {
			return false
		}
	}
	return true
}
