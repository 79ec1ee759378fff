package filtergraph

import (
	"fmt"
	"strings"
)

// ArityError A pad index or a pad count exceeds what a filter declares
type ArityError struct {
	// Filter concerned, empty when the address itself is out of range
	Filter    string
	Direction Direction
	// Requested pad index, -1 when any free pad was needed
	Pad   int
	Arity Arity
	// Human readable cause
	Reason string
}

func (e *ArityError) Error() string {
	return "filtergraph: " + e.Reason
}

func padRangeError(f *Filter, d Direction, pad int) *ArityError {
	return &ArityError{
		Filter:    f.name,
		Direction: d,
		Pad:       pad,
		Arity:     f.Arity(d),
		Reason:    fmt.Sprintf("%s pad %d of %s is out of range (arity %s)", d, pad, f.name, f.Arity(d)),
	}
}

func noFreePadError(f *Filter, d Direction) *ArityError {
	return &ArityError{
		Filter:    f.name,
		Direction: d,
		Pad:       -1,
		Arity:     f.Arity(d),
		Reason:    fmt.Sprintf("%s has no free %s pad (arity %s)", f.name, d, f.Arity(d)),
	}
}

// ArityMismatchError Join could not pair the free outputs of its left operand with the free inputs of its
// right operand
type ArityMismatchError struct {
	Outputs      int
	OutputChains int
	Inputs       int
	InputChains  int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("filtergraph: cannot join %d free output pad(s) on %d chain(s) to %d free input pad(s) on %d chain(s)",
		e.Outputs, e.OutputChains, e.Inputs, e.InputChains)
}

// DuplicateLinkError A pad is already connected, or a label is already used on that side
type DuplicateLinkError struct {
	Label     string
	Pad       *PadAddress
	Direction Direction
}

func (e *DuplicateLinkError) Error() string {
	if e.Pad != nil {
		return fmt.Sprintf("filtergraph: %s pad %s is already connected", e.Direction, e.Pad)
	}
	return fmt.Sprintf("filtergraph: label [%s] is already used as an %s", e.Label, e.Direction)
}

// UnknownLabelError A referenced label does not exist in the graph
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("filtergraph: unknown label [%s]", e.Label)
}

// ParseError Malformed filtergraph text. Offset is a byte offset in the source, Line and Column are 1-based
type ParseError struct {
	Offset int
	Line   int
	Column int
	Msg    string
	// Underlying engine error, if any
	Err error
}

func newParseError(src string, offset int, err error, format string, args ...interface{}) *ParseError {
	offset = max(0, min(offset, len(src)))
	line := 1 + strings.Count(src[:offset], "\n")
	column := offset - strings.LastIndex(src[:offset], "\n")
	return &ParseError{
		Offset: offset,
		Line:   line,
		Column: column,
		Msg:    fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filtergraph: parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Caret Print the offending line of src with a caret under the error position
func (e *ParseError) Caret(src string) string {
	lines := strings.Split(src, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return ""
	}
	line := lines[e.Line-1]
	pad := strings.Map(func(r rune) rune {
		if r == '\t' {
			return '\t'
		}
		return ' '
	}, line[:min(e.Column-1, len(line))])
	return line + "\n" + pad + "^"
}
