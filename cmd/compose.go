package main

import (
	"encoding/json"
	"errors"
	"filtergraph-box/pkg/encoder/filtergraph"
	"fmt"
	"net/http"
)

// Upper bound of the "replicate" field, to keep responses reasonably sized
const MaxReplicate = 256

type composeRequest struct {
	// A whole filter graph
	Graph string `json:"graph,omitempty"`
	// Or fragments combined with op
	Op        string   `json:"op,omitempty"`
	Fragments []string `json:"fragments,omitempty"`
	// Number of copies of the result to stack, 0 or 1 keeps a single one
	Replicate int `json:"replicate,omitempty"`
}

type composeResponse struct {
	// Canonical text
	Graph   string   `json:"graph"`
	Chains  int      `json:"chains"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

type errorResponse struct {
	Error string `json:"error"`
	// Parse errors only
	Fragment *int   `json:"fragment,omitempty"`
	Offset   *int   `json:"offset,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Caret    string `json:"caret,omitempty"`
}

// Parse and recombine filter graphs, returning their canonical text
func (s *server) compose(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer req.Body.Close()
	var cReq composeRequest
	if err := json.NewDecoder(req.Body).Decode(&cReq); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	graph, status, errResp := s.buildGraph(&cReq)
	if errResp != nil {
		s.log.Debugf("Rejected compose request : %s", errResp.Error)
		writeJSON(w, status, errResp)
		return
	}
	writeJSON(w, http.StatusOK, composeResponse{
		Graph:   filtergraph.Compose(graph),
		Chains:  graph.Len(),
		Inputs:  nonNil(graph.ExternalLabels(filtergraph.Input)),
		Outputs: nonNil(graph.ExternalLabels(filtergraph.Output)),
	})
}

func (s *server) buildGraph(cReq *composeRequest) (*filtergraph.Graph, int, *errorResponse) {
	if (cReq.Graph == "") == (cReq.Op == "") {
		return nil, http.StatusBadRequest, &errorResponse{Error: `either "graph" or "op" must be provided`}
	}
	if cReq.Replicate < 0 || cReq.Replicate > MaxReplicate {
		return nil, http.StatusBadRequest, &errorResponse{Error: fmt.Sprintf("replicate must be between 0 and %d", MaxReplicate)}
	}

	var result filtergraph.Fragment
	if cReq.Graph != "" {
		g, err := filtergraph.ParseWith(s.registry, cReq.Graph)
		if err != nil {
			return nil, http.StatusBadRequest, parseErrorResponse(err, cReq.Graph, nil)
		}
		result = g
	} else {
		if len(cReq.Fragments) == 0 {
			return nil, http.StatusBadRequest, &errorResponse{Error: "no fragment provided"}
		}
		fragments := make([]filtergraph.Fragment, len(cReq.Fragments))
		for i, text := range cReq.Fragments {
			g, err := filtergraph.ParseWith(s.registry, text)
			if err != nil {
				i := i
				return nil, http.StatusBadRequest, parseErrorResponse(err, text, &i)
			}
			fragments[i] = g
		}
		var err error
		switch cReq.Op {
		case "stack":
			result = filtergraph.Stack(fragments...)
		case "join":
			result, err = filtergraph.JoinAll(fragments...)
		default:
			return nil, http.StatusBadRequest, &errorResponse{Error: fmt.Sprintf("unknown op %q, expected stack or join", cReq.Op)}
		}
		if err != nil {
			return nil, http.StatusUnprocessableEntity, &errorResponse{Error: err.Error()}
		}
	}

	if cReq.Replicate > 1 {
		g, err := filtergraph.Replicate(result, cReq.Replicate)
		if err != nil {
			return nil, http.StatusUnprocessableEntity, &errorResponse{Error: err.Error()}
		}
		result = g
	}
	return result.AsGraph(), http.StatusOK, nil
}

// parseErrorResponse Locate the error in src. Errors found after parsing, such as arity ones, have a position too
func parseErrorResponse(err error, src string, fragment *int) *errorResponse {
	resp := &errorResponse{Error: err.Error(), Fragment: fragment}
	var parseErr *filtergraph.ParseError
	if errors.As(err, &parseErr) {
		offset := parseErr.Offset
		resp.Offset = &offset
		resp.Line = parseErr.Line
		resp.Column = parseErr.Column
		resp.Caret = parseErr.Caret(src)
	}
	return resp
}

func nonNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
