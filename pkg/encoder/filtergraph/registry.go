package filtergraph

import "strconv"

// Arity Number of pads of one direction a filter declares. Either a fixed non-negative count or Dynamic
type Arity int

// Dynamic The filter accepts any number of pads, usually set through one of its options
const Dynamic Arity = -1

func (a Arity) String() string {
	if a == Dynamic {
		return "dynamic"
	}
	return strconv.Itoa(int(a))
}

// Whether pad index i exists for this arity
func (a Arity) accepts(i int) bool {
	return i >= 0 && (a == Dynamic || i < int(a))
}

// Descriptor Pad arities of a filter, as reported by ffmpeg -filters
type Descriptor struct {
	Name    string
	Inputs  Arity
	Outputs Arity
}

// Registry Lookup pad arities by filter name
type Registry interface {
	Lookup(name string) (Descriptor, bool)
}

// StaticRegistry In-memory registry
type StaticRegistry map[string]Descriptor

func (r StaticRegistry) Lookup(name string) (Descriptor, bool) {
	d, ok := r[name]
	return d, ok
}

// Builtin Arities of the multi-pad filters most often found in a filter_complex. Any filter absent from a
// registry is assumed to have one input and one output
var Builtin = StaticRegistry{
	// Sources
	"color":      {"color", 0, 1},
	"nullsrc":    {"nullsrc", 0, 1},
	"testsrc":    {"testsrc", 0, 1},
	"testsrc2":   {"testsrc2", 0, 1},
	"anullsrc":   {"anullsrc", 0, 1},
	"sine":       {"sine", 0, 1},
	"anoisesrc":  {"anoisesrc", 0, 1},
	"aevalsrc":   {"aevalsrc", 0, 1},
	"movie":      {"movie", 0, Dynamic},
	"amovie":     {"amovie", 0, Dynamic},
	"nullsink":   {"nullsink", 1, 0},
	"anullsink":  {"anullsink", 1, 0},
	"buffersink": {"buffersink", 1, 0},
	// Fan out
	"split":        {"split", 1, Dynamic},
	"asplit":       {"asplit", 1, Dynamic},
	"channelsplit": {"channelsplit", 1, Dynamic},
	"scale2ref":    {"scale2ref", 2, 2},
	// Fan in
	"concat":            {"concat", Dynamic, Dynamic},
	"amix":              {"amix", Dynamic, 1},
	"amerge":            {"amerge", Dynamic, 1},
	"join":              {"join", Dynamic, 1},
	"mix":               {"mix", Dynamic, 1},
	"hstack":            {"hstack", Dynamic, 1},
	"vstack":            {"vstack", Dynamic, 1},
	"xstack":            {"xstack", Dynamic, 1},
	"interleave":        {"interleave", Dynamic, 1},
	"ainterleave":       {"ainterleave", Dynamic, 1},
	"streamselect":      {"streamselect", Dynamic, Dynamic},
	"astreamselect":     {"astreamselect", Dynamic, Dynamic},
	"overlay":           {"overlay", 2, 1},
	"blend":             {"blend", 2, 1},
	"xfade":             {"xfade", 2, 1},
	"acrossfade":        {"acrossfade", 2, 1},
	"alphamerge":        {"alphamerge", 2, 1},
	"paletteuse":        {"paletteuse", 2, 1},
	"psnr":              {"psnr", 2, 1},
	"ssim":              {"ssim", 2, 1},
	"sidechaincompress": {"sidechaincompress", 2, 1},
	"sidechaingate":     {"sidechaingate", 2, 1},
	"amultiply":         {"amultiply", 2, 1},
}

// DefaultRegistry Registry used by NewFilter and Parse. May be replaced at startup, for example by the
// registry probed from the installed ffmpeg. A nil registry makes every filter 1 input / 1 output
var DefaultRegistry Registry = Builtin

func lookup(reg Registry, name string) Descriptor {
	if reg != nil {
		if d, ok := reg.Lookup(name); ok {
			return d
		}
	}
	return Descriptor{Name: name, Inputs: 1, Outputs: 1}
}
