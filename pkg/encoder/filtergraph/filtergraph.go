// Package filtergraph :: Define ffmpeg filtergraphs as chains of filters plus a table of labeled links between
// pads. Fragments can be stacked, replicated, joined and labeled, then composed into a string usable in the
// ffmpeg -filter_complex option. The same syntax can be parsed back into a Graph.
package filtergraph

import (
	"fmt"
)

// Fragment Any piece of a filtergraph : a *Filter, a *Chain or a *Graph
type Fragment interface {
	// AsGraph Promote the fragment into a Graph
	AsGraph() *Graph
}

// Direction Whether a pad receives (Input) or emits (Output) frames
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// PadAddress Locate a single pad in a Graph. Every component may be negative, in which case it is counted
// from the end of its sequence when resolved against a Graph
type PadAddress struct {
	// Index of the chain in the graph
	Chain int
	// Index of the filter in the chain
	Filter int
	// Index of the pad on the filter
	Pad int
}

func (a PadAddress) String() string {
	return fmt.Sprintf("(%d, %d, %d)", a.Chain, a.Filter, a.Pad)
}

// PadRef Either a PadAddress or a LabelRef. Used to designate one end of an explicit link
type PadRef interface {
	padRef()
}

// LabelRef Designate the free end of an already labeled pad
type LabelRef string

func (PadAddress) padRef() {}
func (LabelRef) padRef()   {}

// padKey identifies one pad, direction included
type padKey struct {
	chain  int
	filter int
	pad    int
	dir    Direction
}

func keyOf(a PadAddress, d Direction) padKey {
	return padKey{a.Chain, a.Filter, a.Pad, d}
}

// filterKey identifies one side of one filter
type filterKey struct {
	chain  int
	filter int
	dir    Direction
}

// isStreamSpecifier Labels such as "0:v" or "1:a:0" reference an input stream of the ffmpeg command rather
// than a link. They can be consumed more than once and are never renamed
func isStreamSpecifier(label string) bool {
	return label != "" && label[0] >= '0' && label[0] <= '9'
}

// Check that a label can be written between brackets
func checkLabel(label string) error {
	if label == "" {
		return fmt.Errorf("filtergraph: empty label")
	}
	for _, r := range label {
		switch r {
		case '[', ']', ' ', '\t', '\n', '\r', ',', ';':
			return fmt.Errorf("filtergraph: invalid character %q in label %q", r, label)
		}
	}
	return nil
}
