package encoder

import (
	"filtergraph-box/pkg/encoder/filtergraph"
	"fmt"
	"strconv"
)

// NormalizationMode Loudness normalization algorithm
type NormalizationMode uint8

const (
	// Default mode, slow but precise
	// Documentation : https://ffmpeg.org/ffmpeg-filters.html#loudnorm
	Loudnorm NormalizationMode = iota
	// Faster than loudnorm, less precise
	// Documentation : https://ffmpeg.org/ffmpeg-filters.html#dynaudnorm
	Dynaudnorm
	// Made for speech normalization
	// Documentation : https://ffmpeg.org/ffmpeg-filters.html#speechnorm
	Speechnorm
)

// Sampling rates
type Sampling string

const (
	K44 Sampling = "44100"
	K48 Sampling = "48000"
)

// MixMode How the side track is mixed into the main track
type MixMode uint8

const (
	// The side track lowers the main track volume whenever it is audible
	WithModulation MixMode = iota
	// Both tracks are simply mixed
	WithoutModulation
)

// AudioConcat Put n audio tracks one after another
// /!\ The audio must use the same codec /!\
// Documentation : https://ffmpeg.org/ffmpeg-filters.html#concat
func AudioConcat(n int) *filtergraph.Filter {
	return filtergraph.NewFilter("concat",
		filtergraph.KV("n", strconv.Itoa(n)),
		filtergraph.KV("v", "0"),
		filtergraph.KV("a", "1"))
}

// AudioNormalization Normalize audio loudness
func AudioNormalization(mode NormalizationMode) *filtergraph.Filter {
	switch mode {
	case Dynaudnorm:
		return filtergraph.NewFilter("dynaudnorm")
	case Speechnorm:
		return filtergraph.NewFilter("speechnorm")
	}
	return filtergraph.NewFilter("loudnorm",
		filtergraph.KV("I", "-16"),
		filtergraph.KV("TP", "-1.5"),
		filtergraph.KV("LRA", "11"))
}

// AudioResample Convert to stereo planar float at the given sampling rate
func AudioResample(rate Sampling) *filtergraph.Filter {
	return filtergraph.NewFilter("aformat",
		filtergraph.KV("sample_fmts", "fltp"),
		filtergraph.KV("sample_rates", string(rate)),
		filtergraph.KV("channel_layouts", "stereo"))
}

// AudioVolume From 0 to 1, the volume to apply to the audio
func AudioVolume(volume float32) *filtergraph.Filter {
	return filtergraph.NewFilter("volume", filtergraph.Pos(fmt.Sprintf("%.2f", volume)))
}

// AudioMix Mix two audio fragments, each exposing a single free output, with relative volumes [main, side].
//
// With modulation, the side track is duplicated. One copy drives a sidechain compressor lowering the main track,
// the other one is mixed with the compressed main track :
//
//	[side]asplit=2[scm][sco];[main][scm]sidechaincompress[mmc];[mmc][sco]amix
//
// Documentation : https://ffmpeg.org/ffmpeg-filters.html#amix
func AudioMix(main filtergraph.Fragment, side filtergraph.Fragment, mode MixMode, weights [2]float32) (filtergraph.Fragment, error) {
	mix := filtergraph.NewFilter("amix",
		filtergraph.KV("inputs", "2"),
		filtergraph.KV("weights", fmt.Sprintf("%.1f %.1f", weights[0], weights[1])))
	if mode == WithoutModulation {
		return filtergraph.Join(filtergraph.Stack(main, side), mix)
	}

	split, err := filtergraph.Join(side, filtergraph.NewFilter("asplit", filtergraph.Pos("2")))
	if err != nil {
		return nil, fmt.Errorf("cannot split side track : %w", err)
	}
	compress := filtergraph.NewFilter("sidechaincompress",
		filtergraph.KV("threshold", "0.05"),
		filtergraph.KV("ratio", "5"),
		filtergraph.KV("level_sc", "0.8"))
	// Free pads, in search order : main, both split copies -> compressor main, compressor side, mix side
	modulated, err := filtergraph.NewChain(compress, mix)
	if err != nil {
		return nil, err
	}
	return filtergraph.Join(filtergraph.Stack(main, split), modulated)
}

// AudioTrack Concatenate the audio streams of n inputs, starting at input index first, and normalize the result
func AudioTrack(first int, n int, mode NormalizationMode) (*filtergraph.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("no audio track provided")
	}
	labels := StreamLabels(first, n, "a")
	if n == 1 {
		return AudioNormalization(mode).AsGraph().LabelInputs(labels...)
	}
	concat, err := AudioConcat(n).AsGraph().LabelInputs(labels...)
	if err != nil {
		return nil, err
	}
	track, err := filtergraph.Join(concat, AudioNormalization(mode))
	if err != nil {
		return nil, err
	}
	return track.AsGraph(), nil
}

// StreamLabels Stream specifiers of one media type for n consecutive inputs, such as "1:a", "2:a"
func StreamLabels(first int, n int, media string) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d:%s", first+i, media)
	}
	return labels
}

// AudioStream An input audio stream, by stream specifier, with its sampling rate and sample format
type AudioStream struct {
	Spec      string
	Rate      Sampling
	SampleFmt string
}

// AudioMerge Merge the channels of several audio streams with amerge. Streams are first converted to the
// given rate and sample format, the ones of the first stream when empty, as amerge requires them to match.
// The output is labeled outLabel, or left free when it is empty
// Documentation : https://ffmpeg.org/ffmpeg-filters.html#amerge
func AudioMerge(streams []AudioStream, rate Sampling, sampleFmt string, outLabel string) (*filtergraph.Graph, error) {
	if len(streams) < 1 {
		return nil, fmt.Errorf("no audio stream to merge")
	}
	if rate == "" {
		rate = streams[0].Rate
	}
	if sampleFmt == "" {
		sampleFmt = streams[0].SampleFmt
	}
	merge := filtergraph.NewFilter("amerge", filtergraph.KV("inputs", strconv.Itoa(len(streams)))).AsGraph()
	var converted []filtergraph.Fragment
	for k, s := range streams {
		var opts []filtergraph.Arg
		if s.Rate != rate {
			opts = append(opts, filtergraph.KV("r", string(rate)))
		}
		if s.SampleFmt != sampleFmt {
			opts = append(opts, filtergraph.KV("f", sampleFmt))
		}
		var err error
		if len(opts) == 0 {
			merge, err = merge.LabelPad(filtergraph.PadAddress{Pad: k}, filtergraph.Input, s.Spec)
			if err != nil {
				return nil, err
			}
			continue
		}
		branch, err := filtergraph.NewFilter("aformat", opts...).AsGraph().LabelInputs(s.Spec)
		if err != nil {
			return nil, err
		}
		converted = append(converted, branch)
	}
	g := merge
	if len(converted) > 0 {
		// The converted streams take the amerge inputs left free, in order
		joined, err := filtergraph.Join(filtergraph.Stack(converted...), merge)
		if err != nil {
			return nil, err
		}
		g = joined.AsGraph()
	}
	if outLabel == "" {
		return g, nil
	}
	return g.LabelOutputs(outLabel)
}
