package job

import (
	"errors"
	"filtergraph-box/pkg/encoder"
	"fmt"
)

type EncodingRequest struct {
	// Job UUID, also used to name the output
	JobId string `json:"jobId"`
	// All "-i" inputs, in order. Input i is addressed as "i:v", "i:a"... in the filter graph
	Inputs []Input `json:"inputs"`
	// Filtergraph text, exclusive with Preset
	FilterGraph string `json:"filterGraph,omitempty"`
	// Name of a builtin preset, exclusive with FilterGraph
	Preset string `json:"preset,omitempty"`
	// Streams to map into the output. Defaults to every output label of the filter graph
	Maps []string `json:"maps,omitempty"`
	// Options of the output file, such as "-c:v libx264"
	OutputOptions []string `json:"outputOptions,omitempty"`
	// Storage backend key of the result. Defaults to "<jobId>.mp4"
	OutputKey string `json:"outputKey,omitempty"`
	// All available options for encoding
	Options EncodingOptions `json:"options"`
}

// Input One asset, either stored in the backend storage or reachable by URL
type Input struct {
	// Storage backend key
	Key string `json:"key,omitempty"`
	// HTTP(S) location
	Url string `json:"url,omitempty"`
	// Forced input format ("-f")
	Format string `json:"format,omitempty"`
	// Input options, such as "-loop 1"
	Options []string `json:"options,omitempty"`
}

// EncodingOptions All valid encoding options
type EncodingOptions struct {
	// Clean up used video/audio/images assets if the encoding succeeded
	DeleteAssetsFromObjStore bool `json:"deleteAssetsFromObjStore"`
}

// RequestError The request itself is invalid, retrying it would not help
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid encoding request : %s", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...interface{}) error {
	return &RequestError{Err: fmt.Errorf(format, args...)}
}

// Validate Sanity checks not requiring any asset
func (r *EncodingRequest) Validate() error {
	if r.JobId == "" {
		return invalid("no job id provided")
	}
	if len(r.Inputs) == 0 {
		return invalid("no input provided")
	}
	for i, in := range r.Inputs {
		if (in.Key == "") == (in.Url == "") {
			return invalid("input %d must have either a key or an url", i)
		}
	}
	switch {
	case r.FilterGraph == "" && r.Preset == "":
		return invalid("either a filter graph or a preset must be provided")
	case r.FilterGraph != "" && r.Preset != "":
		return invalid("a filter graph and a preset cannot be used together")
	}
	if r.Preset != "" {
		if _, ok := encoder.Presets[r.Preset]; !ok {
			return invalid("unknown preset %q", r.Preset)
		}
	}
	return nil
}

// Output Storage backend key of the result
func (r *EncodingRequest) Output() string {
	if r.OutputKey != "" {
		return r.OutputKey
	}
	return fmt.Sprintf("%s.mp4", r.JobId)
}

// IsRequestError Whether err comes from an invalid request
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
