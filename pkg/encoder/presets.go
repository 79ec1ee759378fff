package encoder

import (
	"filtergraph-box/pkg/encoder/filtergraph"
	"fmt"
)

// AudioOutputLabel Graph output carrying the final audio track of every preset
const AudioOutputLabel = "aout"

// Preset names, as found in encoding requests
const (
	PresetAudiosVideo    = "audios-video"
	PresetAudiosImage    = "audios-image"
	PresetAudiosOnly     = "audios-only"
	PresetAudiosOnlySide = "audios-only-side"
)

// Preset Build an encoder command from local input paths. The output is left to the caller
type Preset func(paths []string) (*Builder, error)

// Presets All presets by name
var Presets = map[string]Preset{
	PresetAudiosVideo: func(paths []string) (*Builder, error) {
		if len(paths) < 2 {
			return nil, fmt.Errorf("preset %s needs a video and at least one audio", PresetAudiosVideo)
		}
		return AudiosVideo(paths[0], paths[1:])
	},
	PresetAudiosImage: func(paths []string) (*Builder, error) {
		if len(paths) < 2 {
			return nil, fmt.Errorf("preset %s needs an image and at least one audio", PresetAudiosImage)
		}
		return AudiosImage(paths[0], paths[1:])
	},
	PresetAudiosOnly: func(paths []string) (*Builder, error) {
		return AudiosOnly(paths, "")
	},
	// The last path is the background track
	PresetAudiosOnlySide: func(paths []string) (*Builder, error) {
		if len(paths) < 2 {
			return nil, fmt.Errorf("preset %s needs at least one audio and a side track", PresetAudiosOnlySide)
		}
		return AudiosOnly(paths[:len(paths)-1], paths[len(paths)-1])
	},
}

// AudiosVideo A video with one or multiple audios. The audios are concatenated and normalized, then mixed over
// the video audio track, lowering it whenever the audios are audible
func AudiosVideo(videoPath string, audioPaths []string) (*Builder, error) {
	builder := NewBuilder().AddInput(&FileInput{Path: videoPath})
	voice, err := mainTrack(builder, audioPaths)
	if err != nil {
		return nil, err
	}
	// The video audio track goes through a no-op to be addressable as a fragment
	videoAudio, err := filtergraph.NewFilter("anull").AsGraph().LabelInputs("0:a")
	if err != nil {
		return nil, err
	}
	mixed, err := AudioMix(videoAudio, voice, WithModulation, [2]float32{0.2, 1})
	if err != nil {
		return nil, fmt.Errorf("cannot mix audio tracks : %w", err)
	}
	return finish(builder, mixed)
}

// AudiosImage A still image with one or multiple audios. The audios are concatenated and normalized
func AudiosImage(imagePath string, audioPaths []string) (*Builder, error) {
	builder := NewBuilder().AddInput(&FileInput{Path: imagePath, Options: []string{"-loop 1"}})
	track, err := mainTrack(builder, audioPaths)
	if err != nil {
		return nil, err
	}
	stillImageOptions(builder)
	return finish(builder, track)
}

// AudiosOnly A black background with one or multiple audios. An optional side track is normalized, lowered and
// mixed under the audios
func AudiosOnly(audioPaths []string, sideAudioPath string) (*Builder, error) {
	builder := NewBuilder().AddInput(&FileInput{Path: "color=black:s=1280x720:r=25", Format: "lavfi"})
	track, err := mainTrack(builder, audioPaths)
	if err != nil {
		return nil, err
	}
	if sideAudioPath != "" {
		sideIndex := builder.InputsCount()
		builder.AddInput(&FileInput{Path: sideAudioPath})
		side, err := filtergraph.NewChain(AudioNormalization(Dynaudnorm), AudioVolume(0.22))
		if err != nil {
			return nil, err
		}
		labeled, err := side.AsGraph().LabelInputs(fmt.Sprintf("%d:a", sideIndex))
		if err != nil {
			return nil, err
		}
		if track, err = AudioMix(track, labeled, WithoutModulation, [2]float32{1, 0.85}); err != nil {
			return nil, fmt.Errorf("cannot mix side track : %w", err)
		}
	}
	stillImageOptions(builder)
	return finish(builder, track)
}

// mainTrack Add the audio inputs to the builder and return their concatenated, normalized and resampled track
func mainTrack(builder *Builder, audioPaths []string) (filtergraph.Fragment, error) {
	first := builder.InputsCount()
	for _, a := range audioPaths {
		builder.AddInput(&FileInput{Path: a})
	}
	track, err := AudioTrack(first, len(audioPaths), Speechnorm)
	if err != nil {
		return nil, err
	}
	return filtergraph.Join(track, AudioResample(K44))
}

func stillImageOptions(builder *Builder) {
	builder.
		// Set the pixel space
		AddOutputOption("-pix_fmt yuv420p").
		// Set the codec to be used
		AddOutputOption("-c:v libx264").
		// As we are using a static image, we can configure x264 to optimize for it
		AddOutputOption("-tune stillimage").
		// And end the video at the shortest input (the audio)
		AddOutputOption("-shortest")
}

// finish Label the audio output and map it along with the first input video
func finish(builder *Builder, audio filtergraph.Fragment) (*Builder, error) {
	graph, err := audio.AsGraph().LabelOutputs(AudioOutputLabel)
	if err != nil {
		return nil, err
	}
	return builder.SetFilterGraph(graph).Map("0:v", AudioOutputLabel), nil
}
