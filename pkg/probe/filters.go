package probe

import (
	"bufio"
	"context"
	"filtergraph-box/pkg/encoder/filtergraph"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
)

// One line of "ffmpeg -filters"
//
//	TSC = timeline support, slice threading, command support
//	A = Audio, V = Video, N = Dynamic number of pads, | = Source or sink
//	... abench            A->A       Benchmark part of a filtergraph.
var filtersLineRe = regexp.MustCompile(`^\s*([T.])([S.])([C.])\s+(\S+)\s+(\S+)->(\S+)\s*(.*?)\s*$`)

// FilterInfo A filter known to the installed ffmpeg
type FilterInfo struct {
	filtergraph.Descriptor
	Description string
	Timeline    bool
	Slice       bool
	Command     bool
}

// FilterRegistry Registry built from the filters of an ffmpeg binary. Unknown filters are looked up in Fallback
type FilterRegistry struct {
	Filters  map[string]FilterInfo
	Fallback filtergraph.Registry
}

func (r *FilterRegistry) Lookup(name string) (filtergraph.Descriptor, bool) {
	if info, ok := r.Filters[name]; ok {
		return info.Descriptor, true
	}
	if r.Fallback != nil {
		return r.Fallback.Lookup(name)
	}
	return filtergraph.Descriptor{}, false
}

// LoadFilters Run "ffmpeg -filters" and build a registry from its output, falling back to the builtin arities
func LoadFilters(ctx context.Context, ffmpegPath string) (*FilterRegistry, error) {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-filters").Output()
	if err != nil {
		return nil, fmt.Errorf("cannot list ffmpeg filters : %w", err)
	}
	filters, err := ParseFilters(strings.NewReader(string(out)))
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("no filter found in the output of %s -filters", ffmpegPath)
	}
	return &FilterRegistry{Filters: filters, Fallback: filtergraph.Builtin}, nil
}

// ParseFilters Parse the output of "ffmpeg -filters". Header lines are skipped
func ParseFilters(r io.Reader) (map[string]FilterInfo, error) {
	filters := map[string]FilterInfo{}
	scanner := bufio.NewScanner(r)
	inList := false
	for scanner.Scan() {
		line := scanner.Text()
		// The legend ends with a line of its own, such as " | = Source or sink filter"
		if !inList {
			inList = strings.Contains(line, "Source or sink")
			continue
		}
		m := filtersLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		filters[m[4]] = FilterInfo{
			Descriptor: filtergraph.Descriptor{
				Name:    m[4],
				Inputs:  padArity(m[5]),
				Outputs: padArity(m[6]),
			},
			Timeline:    m[1] == "T",
			Slice:       m[2] == "S",
			Command:     m[3] == "C",
			Description: m[7],
		}
	}
	return filters, scanner.Err()
}

// padArity "|" is a source or sink side, "N" a dynamic one. Otherwise, one letter per pad
func padArity(spec string) filtergraph.Arity {
	switch {
	case spec == "|":
		return 0
	case strings.Contains(spec, "N"):
		return filtergraph.Dynamic
	}
	return filtergraph.Arity(len(spec))
}
