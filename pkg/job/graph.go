package job

import (
	"filtergraph-box/pkg/encoder/filtergraph"
	"strconv"
	"strings"
)

// resolveGraph Parse the filter graph of the request. Every unconnected input label must name a stream of one
// of the request inputs
func resolveGraph(reg filtergraph.Registry, req *EncodingRequest) (*filtergraph.Graph, error) {
	graph, err := filtergraph.ParseWith(reg, req.FilterGraph)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if graph.Len() == 0 {
		return nil, invalid("the filter graph is empty")
	}
	for _, label := range graph.ExternalLabels(filtergraph.Input) {
		idx, ok := inputIndex(label)
		if !ok {
			return nil, invalid("graph input [%s] is not connected to anything", label)
		}
		if idx >= len(req.Inputs) {
			return nil, invalid("graph input [%s] refers to input %d, only %d provided", label, idx, len(req.Inputs))
		}
	}
	return graph, nil
}

// inputIndex Input file index of a stream specifier such as "1:a:0"
func inputIndex(label string) (int, bool) {
	head, _, _ := strings.Cut(label, ":")
	idx, err := strconv.Atoi(head)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
