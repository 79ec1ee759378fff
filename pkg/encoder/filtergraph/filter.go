package filtergraph

import (
	"strconv"
)

// Arg A single filter option. Positional options have an empty Key
type Arg struct {
	Key   string
	Value string
}

// Pos A positional option
func Pos(value string) Arg {
	return Arg{Value: value}
}

// KV A key=value option
func KV(key string, value string) Arg {
	return Arg{Key: key, Value: value}
}

// Positional Whether the option has no key
func (a Arg) Positional() bool {
	return a.Key == ""
}

// Filter One invocation of an ffmpeg filter. Filters are immutable once built
type Filter struct {
	// ffmpeg filter name, possibly with an @instance suffix
	name string
	// Options, in insertion order. Duplicate keys are kept
	args []Arg
	// Declared pad arities
	inputs  Arity
	outputs Arity
}

// NewFilter Build a filter, taking its arities from DefaultRegistry
func NewFilter(name string, args ...Arg) *Filter {
	return NewFilterWith(DefaultRegistry, name, args...)
}

// NewFilterWith Build a filter, taking its arities from reg. A nil registry or an unknown name yields a
// 1 input / 1 output filter
func NewFilterWith(reg Registry, name string, args ...Arg) *Filter {
	d := lookup(reg, registryName(name))
	return &Filter{
		name:    name,
		args:    append([]Arg(nil), args...),
		inputs:  d.Inputs,
		outputs: d.Outputs,
	}
}

// WithArity Return a copy of the filter with explicit arities
func (f *Filter) WithArity(inputs Arity, outputs Arity) *Filter {
	return &Filter{name: f.name, args: f.args, inputs: inputs, outputs: outputs}
}

func (f *Filter) Name() string {
	return f.name
}

// Args A copy of the filter options
func (f *Filter) Args() []Arg {
	return append([]Arg(nil), f.args...)
}

// Arg Value of the first option with this key
func (f *Filter) Arg(key string) (string, bool) {
	for _, a := range f.args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Arity Declared arity for this direction
func (f *Filter) Arity(d Direction) Arity {
	if d == Output {
		return f.outputs
	}
	return f.inputs
}

// AsGraph A one-chain graph holding only this filter
func (f *Filter) AsGraph() *Graph {
	return &Graph{chains: []*Chain{{filters: []*Filter{f}}}}
}

func (f *Filter) String() string {
	return composeFilter(f)
}

// padCount Number of pads exposed in this direction. For dynamic arities, the count is deduced from the
// options of the well-known filters and defaults to one
func (f *Filter) padCount(d Direction) int {
	if a := f.Arity(d); a != Dynamic {
		return int(a)
	}
	return f.dynamicPads(d)
}

func (f *Filter) dynamicPads(d Direction) int {
	switch registryName(f.name) {
	case "split", "asplit":
		if d == Output {
			return f.intArg("outputs", 0, 2)
		}
	case "concat":
		n, v, a := f.intArg("n", 0, 2), f.intArg("v", 1, 1), f.intArg("a", 2, 0)
		if d == Input {
			return n * (v + a)
		}
		return v + a
	case "amix", "amerge", "join", "mix", "hstack", "vstack", "xstack", "streamselect", "astreamselect":
		if d == Input {
			return f.intArg("inputs", 0, 2)
		}
	case "interleave", "ainterleave":
		if d == Input {
			return f.intArg("nb_inputs", 0, f.intArg("n", -1, 2))
		}
	}
	return 1
}

// intArg Integer value of the option named key, or of the positional option at index pos. Fallback to def
func (f *Filter) intArg(key string, pos int, def int) int {
	if v, ok := f.Arg(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		return def
	}
	i := 0
	for _, a := range f.args {
		if !a.Positional() {
			continue
		}
		if i == pos {
			if n, err := strconv.Atoi(a.Value); err == nil && n >= 0 {
				return n
			}
			return def
		}
		i++
	}
	return def
}

// registryName Strip the "@instance" suffix ffmpeg allows on filter names
func registryName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '@' {
			return name[:i]
		}
	}
	return name
}
