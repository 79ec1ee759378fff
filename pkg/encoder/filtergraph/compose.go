package filtergraph

import (
	"strconv"
	"strings"
)

// nameKey Identifies what a synthesized label names : a link of the table (link >= 0), or a single pad
// (link < 0) for chain joints that cannot be written inline and for placeholders
type nameKey struct {
	link int
	pad  padKey
}

// Compose Resolve any fragment into a string usable in the ffmpeg -filter_complex option
func Compose(f Fragment) string {
	return f.AsGraph().String()
}

// String Compose the graph. Chains are separated by ";", filters by ",". Links created without a label get a
// synthesized "L<n>" name the first time the graph is composed, and keep it afterwards
func (g *Graph) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.names == nil {
		g.names = map[nameKey]string{}
	}
	c := &composer{g: g, sides: map[filterKey]map[int]int{}, taken: g.labelSet()}
	for k, i := range g.state().used {
		if i == jointUse {
			continue
		}
		fk := filterKey{k.chain, k.filter, k.dir}
		if c.sides[fk] == nil {
			c.sides[fk] = map[int]int{}
		}
		c.sides[fk][k.pad] = i
	}
	for _, name := range g.names {
		c.taken[name] = true
	}
	return c.compose()
}

type composer struct {
	g *Graph
	// Pads connected through the link table, per filter side : pad index -> link index
	sides map[filterKey]map[int]int
	// Every label text in use, synthesized ones included
	taken map[string]bool
	sb    strings.Builder
}

func (c *composer) compose() string {
	if len(c.g.swsFlags) > 0 {
		c.sb.WriteString("sws_flags=")
		c.sb.WriteString(composeArgs(c.g.swsFlags))
		c.sb.WriteByte(';')
	}
	first := true
	for ci, ch := range c.g.chains {
		if len(ch.filters) == 0 {
			continue
		}
		if !first {
			c.sb.WriteByte(';')
		}
		first = false
		for fi, f := range ch.filters {
			inlineIn := fi > 0 && c.inline(ci, fi-1)
			if fi > 0 {
				if inlineIn {
					c.sb.WriteByte(',')
				} else {
					c.sb.WriteByte(';')
				}
			}
			c.writeLabels(ci, fi, Input, fi > 0, inlineIn)
			c.sb.WriteString(composeFilter(f))
			inlineOut := fi < len(ch.filters)-1 && c.inline(ci, fi)
			c.writeLabels(ci, fi, Output, fi < len(ch.filters)-1, inlineOut)
		}
	}
	return c.sb.String()
}

// inline Whether the joint after filter fi can be written with a bare ",". ffmpeg hands labels to the
// lowest pads first, so every pad below the joint pad must be labeled, and none above it
func (c *composer) inline(ci int, fi int) bool {
	j := c.g.chains[ci].joints[fi]
	return c.labeledBelow(ci, fi, Output, j.out) && c.labeledBelow(ci, fi+1, Input, j.in)
}

// labeledBelow Whether the labeled pads of a filter side are exactly the pads [0, n)
func (c *composer) labeledBelow(ci int, fi int, d Direction, n int) bool {
	pads := c.sides[filterKey{ci, fi, d}]
	if len(pads) != n {
		return false
	}
	for p := range pads {
		if p >= n {
			return false
		}
	}
	return true
}

// writeLabels Write the bracketed labels of one filter side. hasJoint tells whether a joint is attached to
// that side, inline whether it is written with ",". A joint that is not inline is written as a label.
// Labels are positional, so free pads below the highest written pad get a placeholder
func (c *composer) writeLabels(ci int, fi int, d Direction, hasJoint bool, inline bool) {
	pads := c.sides[filterKey{ci, fi, d}]
	top := -1
	for p := range pads {
		if p > top {
			top = p
		}
	}
	jointPad := -1
	var owner padKey
	if hasJoint && !inline {
		ch := c.g.chains[ci]
		if d == Input {
			j := ch.joints[fi-1]
			jointPad, owner = j.in, padKey{ci, fi - 1, j.out, Output}
		} else {
			j := ch.joints[fi]
			jointPad, owner = j.out, padKey{ci, fi, j.out, Output}
		}
		if jointPad > top {
			top = jointPad
		}
	}
	for p := 0; p <= top; p++ {
		var name string
		if i, ok := pads[p]; ok {
			name = c.linkName(i)
		} else if p == jointPad {
			name = c.synthesize(nameKey{link: -1, pad: owner})
		} else {
			name = c.synthesize(nameKey{link: -1, pad: padKey{ci, fi, p, d}})
		}
		c.sb.WriteByte('[')
		c.sb.WriteString(name)
		c.sb.WriteByte(']')
	}
}

func (c *composer) linkName(i int) string {
	if l := c.g.links[i]; l.Label != "" {
		return l.Label
	}
	return c.synthesize(nameKey{link: i})
}

// synthesize Cached name for key, or the lowest free "L<n>"
func (c *composer) synthesize(key nameKey) string {
	if name, ok := c.g.names[key]; ok {
		return name
	}
	n := 0
	for c.taken["L"+strconv.Itoa(n)] {
		n++
	}
	name := "L" + strconv.Itoa(n)
	c.taken[name] = true
	c.g.names[key] = name
	return name
}

// composeFilter Write name=opt:opt:key=value, positional options first
func composeFilter(f *Filter) string {
	if len(f.args) == 0 {
		return f.name
	}
	return f.name + "=" + composeArgs(f.args)
}

// composeArgs Escaped option string, for both levels ffmpeg unescapes
func composeArgs(args []Arg) string {
	parts := make([]string, 0, len(args))
	for _, a := range orderedArgs(args) {
		if a.Positional() {
			parts = append(parts, escapeOption(a.Value, true))
		} else {
			parts = append(parts, a.Key+"="+escapeOption(a.Value, false))
		}
	}
	return escapeOptions(strings.Join(parts, ":"))
}

// orderedArgs Positional options, then keyed options, each group in insertion order
func orderedArgs(args []Arg) []Arg {
	ordered := make([]Arg, 0, len(args))
	for _, a := range args {
		if a.Positional() {
			ordered = append(ordered, a)
		}
	}
	for _, a := range args {
		if !a.Positional() {
			ordered = append(ordered, a)
		}
	}
	return ordered
}
