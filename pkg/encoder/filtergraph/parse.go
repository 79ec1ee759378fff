package filtergraph

import (
	"strings"
)

// Parse Decompose filter_complex text into a Graph, using DefaultRegistry for filter arities
func Parse(text string) (*Graph, error) {
	return ParseWith(DefaultRegistry, text)
}

// ParseWith Decompose filter_complex text into a Graph, using reg for filter arities.
//
// Labels written before a filter take its lowest input pads, labels written after it its lowest output
// pads. Two filters separated by "," are linked through the first unlabeled output of the first one and the
// first unlabeled input of the second one. A label written once as an output and once as an input links both
// pads, a label written on a single pad is an endpoint of the graph
func ParseWith(reg Registry, text string) (*Graph, error) {
	p := &parser{src: text, reg: reg, outputs: map[string]int{}, inputs: map[string]int{}}
	if err := p.parseGraph(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

// ParseChain Decompose the text of a single chain, without any label
func ParseChain(text string) (*Chain, error) {
	g, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(g.links) > 0 {
		return nil, newParseError(text, strings.IndexByte(text, '['), nil, "labels are not allowed in a chain")
	}
	if len(g.swsFlags) > 0 {
		return nil, newParseError(text, strings.Index(text, "sws_flags"), nil, "sws_flags are not allowed in a chain")
	}
	switch len(g.chains) {
	case 0:
		return &Chain{}, nil
	case 1:
		return g.chains[0], nil
	}
	return nil, newParseError(text, strings.IndexByte(text, ';'), nil, "expected a single chain")
}

// ParseFilter Decompose the text of a single filter invocation, such as "scale=w=1280:h=-2"
func ParseFilter(text string) (*Filter, error) {
	c, err := ParseChain(text)
	if err != nil {
		return nil, err
	}
	if len(c.filters) != 1 {
		return nil, newParseError(text, strings.IndexByte(text, ','), nil, "expected a single filter")
	}
	return c.filters[0], nil
}

type parser struct {
	src   string
	pos   int
	reg   Registry
	graph *Graph
	// Link table index of the labels seen so far, by side
	outputs map[string]int
	inputs  map[string]int
}

// labelToken A bracketed label and the offset of its opening bracket
type labelToken struct {
	name   string
	offset int
}

func (p *parser) errorf(offset int, err error, format string, args ...interface{}) *ParseError {
	return newParseError(p.src, offset, err, format, args...)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseGraph() error {
	p.graph = &Graph{}
	p.skipSpace()
	if err := p.parseSwsFlags(); err != nil {
		return err
	}
	for p.pos < len(p.src) {
		if err := p.parseChain(); err != nil {
			return err
		}
		p.skipSpace()
		switch p.peek() {
		case ';':
			p.pos++
			p.skipSpace()
		case 0:
		default:
			return p.unexpected()
		}
	}
	return nil
}

// parseSwsFlags Read the optional "sws_flags=...;" header, only allowed before the first chain
func (p *parser) parseSwsFlags() error {
	const header = "sws_flags="
	if !strings.HasPrefix(p.src[p.pos:], header) {
		return nil
	}
	start := p.pos
	p.pos += len(header)
	flags, err := p.parseArgs()
	if err != nil {
		return err
	}
	if p.peek() != ';' {
		return p.errorf(start, nil, "sws_flags must be followed by ';'")
	}
	p.pos++
	p.skipSpace()
	p.graph.swsFlags = flags
	return nil
}

func (p *parser) unexpected() error {
	if c := p.peek(); c == ']' {
		return p.errorf(p.pos, nil, "unbalanced ']'")
	}
	return p.errorf(p.pos, nil, "unexpected character %q", p.peek())
}

func (p *parser) parseChain() error {
	ci := len(p.graph.chains)
	c := &Chain{}
	p.graph.chains = append(p.graph.chains, c)
	prevOutLabels := 0
	for {
		p.skipSpace()
		ins, err := p.parseLabels()
		if err != nil {
			return err
		}
		p.skipSpace()
		nameOffset := p.pos
		name := p.parseName()
		if name == "" {
			if p.pos >= len(p.src) {
				return p.errorf(p.pos, nil, "expected a filter name, got end of input")
			}
			return p.unexpected()
		}
		var args []Arg
		if p.peek() == '=' {
			p.pos++
			if args, err = p.parseArgs(); err != nil {
				return err
			}
		}
		p.skipSpace()
		outs, err := p.parseLabels()
		if err != nil {
			return err
		}

		f := NewFilterWith(p.reg, name, args...)
		fi := len(c.filters)
		if err := p.checkLabelCount(f, Input, ins); err != nil {
			return err
		}
		if err := p.checkLabelCount(f, Output, outs); err != nil {
			return err
		}
		if fi > 0 {
			prev := c.filters[fi-1]
			if !prev.Arity(Output).accepts(prevOutLabels) {
				return p.errorf(nameOffset, noFreePadError(prev, Output), "cannot chain %s after %s", name, prev.name)
			}
			if !f.Arity(Input).accepts(len(ins)) {
				return p.errorf(nameOffset, noFreePadError(f, Input), "cannot chain %s after %s", name, prev.name)
			}
			c.joints = append(c.joints, joint{out: prevOutLabels, in: len(ins)})
		}
		c.filters = append(c.filters, f)

		for k, l := range ins {
			if err := p.bind(l, PadAddress{ci, fi, k}, Input); err != nil {
				return err
			}
		}
		for k, l := range outs {
			if err := p.bind(l, PadAddress{ci, fi, k}, Output); err != nil {
				return err
			}
		}
		prevOutLabels = len(outs)

		p.skipSpace()
		if p.peek() != ',' {
			return nil
		}
		p.pos++
	}
}

func (p *parser) checkLabelCount(f *Filter, d Direction, labels []labelToken) error {
	if len(labels) == 0 || f.Arity(d).accepts(len(labels)-1) {
		return nil
	}
	extra := labels[int(f.Arity(d))]
	return p.errorf(extra.offset, padRangeError(f, d, len(labels)-1),
		"%s takes %s %s pad(s), %d labeled", f.name, f.Arity(d), d, len(labels))
}

// parseLabels Read consecutive [label] tokens
func (p *parser) parseLabels() ([]labelToken, error) {
	var labels []labelToken
	for {
		p.skipSpace()
		if p.peek() != '[' {
			return labels, nil
		}
		start := p.pos
		end := strings.IndexAny(p.src[start+1:], "[]")
		if end < 0 || p.src[start+1+end] == '[' {
			return nil, p.errorf(start, nil, "unbalanced '['")
		}
		name := strings.TrimSpace(p.src[start+1 : start+1+end])
		if err := checkLabel(name); err != nil {
			return nil, p.errorf(start, err, "invalid label [%s]", name)
		}
		labels = append(labels, labelToken{name: name, offset: start})
		p.pos = start + end + 2
	}
}

// parseName Read a filter name, up to "=", a separator, a label or a blank
func (p *parser) parseName() string {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("=,;[] \t\n\r", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// parseArgs Read the option string of a filter, up to an unprotected "[],;", and split it into options at
// every unprotected ":". Both levels of quotes and backslashes are removed
func (p *parser) parseArgs() ([]Arg, error) {
	u, stop, err := p.unquote([]byte(p.src), func(i int) int { return i }, p.pos, "[],;")
	if err != nil {
		return nil, err
	}
	p.pos = stop
	text, offsets := u.trimmed()
	if len(text) == 0 {
		return nil, nil
	}
	at := func(i int) int {
		if i < len(offsets) {
			return offsets[i]
		}
		return p.pos
	}

	var args []Arg
	for i := 0; ; {
		for i < len(text) && isBlank(text[i]) {
			i++
		}
		k := i
		for k < len(text) && isKeyChar(text[k]) {
			k++
		}
		key, hasKey := "", false
		if k < len(text) && text[k] == '=' {
			if k == i {
				return nil, p.errorf(at(i), nil, "option without a key")
			}
			key, hasKey = string(text[i:k]), true
			i = k + 1
		}
		v, next, err := p.unquote(text, at, i, ":")
		if err != nil {
			return nil, err
		}
		value, _ := v.trimmed()
		if hasKey {
			args = append(args, KV(key, string(value)))
		} else {
			args = append(args, Pos(string(value)))
		}
		if next >= len(text) {
			return args, nil
		}
		i = next + 1
	}
}

// bind Record a label in the link table, linking it to the opposite pad already carrying it if any
func (p *parser) bind(l labelToken, a PadAddress, d Direction) error {
	g := p.graph
	if d == Output {
		if _, dup := p.outputs[l.name]; dup {
			return p.errorf(l.offset, &DuplicateLinkError{Label: l.name, Direction: Output}, "label [%s] used as more than one output", l.name)
		}
		if i, ok := p.inputs[l.name]; ok && g.links[i].Output == nil {
			g.links[i].set(Output, a)
			p.outputs[l.name] = i
			return nil
		}
		p.outputs[l.name] = len(g.links)
		g.links = append(g.links, Link{Label: l.name, Output: &a})
		return nil
	}

	if i, dup := p.inputs[l.name]; dup {
		if !isStreamSpecifier(l.name) || g.links[i].Output != nil {
			return p.errorf(l.offset, &DuplicateLinkError{Label: l.name, Direction: Input}, "label [%s] used as more than one input", l.name)
		}
		// One more consumer of an input stream
		g.links = append(g.links, Link{Label: l.name, Input: &a})
		return nil
	}
	if i, ok := p.outputs[l.name]; ok && g.links[i].Input == nil {
		g.links[i].set(Input, a)
		p.inputs[l.name] = i
		return nil
	}
	p.inputs[l.name] = len(g.links)
	g.links = append(g.links, Link{Label: l.name, Input: &a})
	return nil
}
