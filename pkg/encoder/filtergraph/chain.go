package filtergraph

// joint The anonymous link between two adjacent filters of a chain
type joint struct {
	// Output pad of the upstream filter
	out int
	// Input pad of the downstream filter
	in int
}

// Chain A sequence of filters, each one feeding the next. The empty chain is the identity of Join
type Chain struct {
	filters []*Filter
	// joints[i] links filters[i] to filters[i+1]
	joints []joint
}

// NewChain Link the filters head to tail. Each filter's first output feeds the first input of the next one
func NewChain(filters ...*Filter) (*Chain, error) {
	c := &Chain{}
	for i, f := range filters {
		if i == 0 {
			c.filters = append(c.filters, f)
			continue
		}
		prev := filters[i-1]
		if prev.padCount(Output) < 1 {
			return nil, noFreePadError(prev, Output)
		}
		if f.padCount(Input) < 1 {
			return nil, noFreePadError(f, Input)
		}
		c.filters = append(c.filters, f)
		c.joints = append(c.joints, joint{0, 0})
	}
	return c, nil
}

// MustChain Same as NewChain, panics on error. Meant for static declarations
func MustChain(filters ...*Filter) *Chain {
	c, err := NewChain(filters...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len Number of filters in the chain
func (c *Chain) Len() int {
	return len(c.filters)
}

// Filters A copy of the filter sequence
func (c *Chain) Filters() []*Filter {
	return append([]*Filter(nil), c.filters...)
}

// AsGraph A one-chain graph without any label. The empty chain promotes to the empty graph
func (c *Chain) AsGraph() *Graph {
	if len(c.filters) == 0 {
		return &Graph{}
	}
	return &Graph{chains: []*Chain{c}}
}

func (c *Chain) String() string {
	return c.AsGraph().String()
}

// concat Series concatenation, the last filter of c feeding the first filter of next through j
func (c *Chain) concat(next *Chain, j joint) *Chain {
	filters := make([]*Filter, 0, len(c.filters)+len(next.filters))
	filters = append(append(filters, c.filters...), next.filters...)
	joints := make([]joint, 0, len(filters)-1)
	joints = append(append(append(joints, c.joints...), j), next.joints...)
	return &Chain{filters: filters, joints: joints}
}
