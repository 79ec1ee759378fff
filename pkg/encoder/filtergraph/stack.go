package filtergraph

import (
	"fmt"
	"strconv"
)

// Stack Lay fragments side by side, without connecting them. Labels of a later fragment colliding with the
// labels of the fragments before it are renamed by appending the smallest free integer suffix ("out" becomes
// "out1"). Stream specifiers such as "0:v" are never renamed. The sws_flags of the first fragment defining
// them are kept. Operands are left untouched
func Stack(fragments ...Fragment) *Graph {
	g := &Graph{}
	for _, f := range fragments {
		g = stack(g, f.AsGraph())
	}
	return g
}

// Replicate Stack n copies of a fragment. Copy 0 keeps the original labels, copy k gets its labels suffixed.
// Stream specifiers are not suffixed : every copy reads the same input stream
func Replicate(f Fragment, n int) (*Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("filtergraph: cannot replicate a fragment %d times", n)
	}
	base := f.AsGraph()
	if n == 1 {
		return base, nil
	}
	g := base
	for k := 1; k < n; k++ {
		g = stack(g, base)
	}
	return g, nil
}

// stack Concatenate the chain lists, re-basing the right link addresses on the new chain indices
func stack(left *Graph, right *Graph) *Graph {
	g := left.clone()
	offset := len(left.chains)
	g.chains = append(g.chains, right.chains...)
	if len(g.swsFlags) == 0 {
		g.swsFlags = right.swsFlags
	}

	leftLabels := left.labelSet()
	used := left.labelSet()
	for l := range right.labelSet() {
		used[l] = true
	}
	renamed := map[string]string{}
	for _, l := range right.links {
		l.Output = rebase(l.Output, offset)
		l.Input = rebase(l.Input, offset)
		if l.Label != "" && leftLabels[l.Label] && !isStreamSpecifier(l.Label) {
			name, ok := renamed[l.Label]
			if !ok {
				name = freeSuffix(l.Label, used)
				used[name] = true
				renamed[l.Label] = name
			}
			l.Label = name
		}
		g.links = append(g.links, l)
	}
	return g
}

func rebase(a *PadAddress, offset int) *PadAddress {
	if a == nil {
		return nil
	}
	moved := *a
	moved.Chain += offset
	return &moved
}

// freeSuffix Smallest label+k, k >= 1, not in used
func freeSuffix(label string, used map[string]bool) string {
	for k := 1; ; k++ {
		candidate := label + strconv.Itoa(k)
		if !used[candidate] {
			return candidate
		}
	}
}
