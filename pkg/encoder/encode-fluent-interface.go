package encoder

import (
	"context"
	"filtergraph-box/pkg/encoder/filtergraph"
	"fmt"
	"os"
	"strings"
)

const (
	// Filtergraphs longer than this are handed to ffmpeg through a script file
	DefaultScriptThreshold = 4096
	DefaultFFmpegPath      = "ffmpeg"
)

type Builder struct {
	// All "-i" inputs
	inputs []*FileInput
	// All options on the output file
	outputOptions []string
	// Streams to map into the output, either graph output labels or stream specifiers
	maps []string
	// Output file name
	output string
	// Filter graph to be used
	filterGraph *filtergraph.Graph
	// FFmpeg executable
	ffmpegPath string
	// Size above which the filter graph is written in a -filter_complex_script file. 0 disables it
	scriptThreshold int
}

func NewBuilder() *Builder {
	return &Builder{ffmpegPath: DefaultFFmpegPath, scriptThreshold: DefaultScriptThreshold}
}

// AddInput Add a new input to the encoder
func (eb *Builder) AddInput(input *FileInput) *Builder {
	eb.inputs = append(eb.inputs, input)
	return eb
}

// InputsCount Number of inputs added so far, which is also the index of the next one
func (eb *Builder) InputsCount() int {
	return len(eb.inputs)
}

// AddOutputOption Add new output options to the encoder. An option may hold its value, such as "-c:v libx264"
func (eb *Builder) AddOutputOption(opts ...string) *Builder {
	eb.outputOptions = append(eb.outputOptions, opts...)
	return eb
}

// Map Select streams for the output. Output labels of the filter graph are bracketed when the command is built,
// anything else is passed as is ("0:v")
func (eb *Builder) Map(streams ...string) *Builder {
	eb.maps = append(eb.maps, streams...)
	return eb
}

// SetOutput Set the result file Path
func (eb *Builder) SetOutput(path string) *Builder {
	eb.output = path
	return eb
}

// SetFilterGraph Set the complex filters to be used
func (eb *Builder) SetFilterGraph(graph filtergraph.Fragment) *Builder {
	eb.filterGraph = graph.AsGraph()
	return eb
}

func (eb *Builder) SetFFmpegPath(path string) *Builder {
	eb.ffmpegPath = path
	return eb
}

// SetScriptThreshold Filter graphs longer than n bytes are written to a temp file. 0 always passes them inline
func (eb *Builder) SetScriptThreshold(n int) *Builder {
	eb.scriptThreshold = n
	return eb
}

// Args Collapse the whole builder into ffmpeg arguments. The returned function removes the temp files the
// command needs, and must be called once ffmpeg exited
func (eb *Builder) Args() ([]string, func(), error) {
	// ffmpeg (-i [inputs])* [filters] [maps] [outputOptions] [output_name]
	args := []string{"-hide_banner"}
	cleanup := func() {}

	// Inputs
	for _, input := range eb.inputs {
		args = append(args, input.Args()...)
	}

	// Filters
	var outputLabels map[string]bool
	if eb.filterGraph != nil && eb.filterGraph.Len() > 0 {
		fGraph := filtergraph.Compose(eb.filterGraph)
		if eb.scriptThreshold > 0 && len(fGraph) > eb.scriptThreshold {
			script, err := writeScript(fGraph)
			if err != nil {
				return nil, cleanup, err
			}
			cleanup = func() { _ = os.Remove(script) }
			args = append(args, "-filter_complex_script", script)
		} else {
			// Passed as a single argument, no shell quoting needed
			args = append(args, "-filter_complex", fGraph)
		}
		outputLabels = map[string]bool{}
		for _, l := range eb.filterGraph.ExternalLabels(filtergraph.Output) {
			outputLabels[l] = true
		}
	}

	// Maps
	for _, m := range eb.maps {
		if outputLabels[m] {
			m = fmt.Sprintf("[%s]", m)
		}
		args = append(args, "-map", m)
	}

	// Output options
	for _, outputOpt := range eb.outputOptions {
		args = append(args, strings.Fields(outputOpt)...)
	}

	// Output name
	args = append(args, eb.output)
	return args, cleanup, nil
}

// Build Return a new initialized encoder ready to be started
func (eb *Builder) Build(ctx context.Context) (*Encoder, error) {
	if len(eb.inputs) == 0 {
		return nil, fmt.Errorf("no inputs specified")
	}
	if eb.output == "" {
		return nil, fmt.Errorf("no output file Path specified")
	}
	args, cleanup, err := eb.Args()
	if err != nil {
		return nil, fmt.Errorf("cannot build ffmpeg arguments : %w", err)
	}
	enc := NewEncoder(ctx, eb.ffmpegPath, args)
	enc.cleanup = cleanup
	return enc, nil
}

func writeScript(graph string) (string, error) {
	f, err := os.CreateTemp("", "filtergraph-*.txt")
	if err != nil {
		return "", fmt.Errorf("cannot create filter script : %w", err)
	}
	defer f.Close()
	if _, err = f.WriteString(graph); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("cannot write filter script : %w", err)
	}
	return f.Name(), nil
}

// FileInput Any valid -i input
type FileInput struct {
	// Path to file in the filesystem
	Path string
	// Format of the Path to input
	Format string
	// Specific options to be applied to this input, such as "-loop 1"
	Options []string
}

// Args Convert the input into ffmpeg arguments
func (ei *FileInput) Args() []string {
	var args []string
	// Options
	for _, opt := range ei.Options {
		args = append(args, strings.Fields(opt)...)
	}
	// Only specify Format if explicitly specified
	if ei.Format != "" {
		args = append(args, "-f", ei.Format)
	}
	return append(args, "-i", ei.Path)
}

func (ei *FileInput) String() string {
	return strings.Join(ei.Args(), " ")
}
