package encoder

import (
	"filtergraph-box/pkg/encoder/filtergraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestAudio_Filters(t *testing.T) {
	assert.Equal(t, "concat=n=3:v=0:a=1", AudioConcat(3).String())
	assert.Equal(t, filtergraph.Dynamic, AudioConcat(3).Arity(filtergraph.Input))
	assert.Equal(t, "loudnorm=I=-16:TP=-1.5:LRA=11", AudioNormalization(Loudnorm).String())
	assert.Equal(t, "dynaudnorm", AudioNormalization(Dynaudnorm).String())
	assert.Equal(t, "speechnorm", AudioNormalization(Speechnorm).String())
	assert.Equal(t, "aformat=sample_fmts=fltp:sample_rates=48000:channel_layouts=stereo", AudioResample(K48).String())
	assert.Equal(t, "volume=0.22", AudioVolume(0.22).String())
}

func audioInput(t *testing.T, label string) *filtergraph.Graph {
	g, err := filtergraph.NewFilter("anull").AsGraph().LabelInputs(label)
	require.NoError(t, err)
	return g
}

func TestAudio_MixWithModulation(t *testing.T) {
	mixed, err := AudioMix(audioInput(t, "0:a"), audioInput(t, "1:a"), WithModulation, [2]float32{0.2, 1})
	require.NoError(t, err)
	out, err := mixed.AsGraph().LabelOutputs("aout")
	require.NoError(t, err)
	assert.Equal(t, "[0:a]anull[L0];[1:a]anull[L1];[L1]asplit=2[L2][L3];"+
		"[L0][L2]sidechaincompress=threshold=0.05:ratio=5:level_sc=0.8[L4];"+
		"[L4][L3]amix=inputs=2:weights=0.2 1.0[aout]", filtergraph.Compose(out))
}

func TestAudio_MixWithoutModulation(t *testing.T) {
	mixed, err := AudioMix(audioInput(t, "0:a"), audioInput(t, "1:a"), WithoutModulation, [2]float32{1, 0.5})
	require.NoError(t, err)
	assert.Equal(t, "[0:a]anull[L0];[1:a]anull[L1];[L0][L1]amix=inputs=2:weights=1.0 0.5", filtergraph.Compose(mixed))
}

// Both operands must expose a single output
func TestAudio_MixMismatch(t *testing.T) {
	split := filtergraph.NewFilter("asplit", filtergraph.Pos("2"))
	_, err := AudioMix(split, audioInput(t, "1:a"), WithoutModulation, [2]float32{1, 1})
	var mismatch *filtergraph.ArityMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestAudio_Track(t *testing.T) {
	single, err := AudioTrack(1, 1, Dynaudnorm)
	require.NoError(t, err)
	assert.Equal(t, "[1:a]dynaudnorm", filtergraph.Compose(single))

	multiple, err := AudioTrack(1, 3, Speechnorm)
	require.NoError(t, err)
	assert.Equal(t, "[1:a][2:a][3:a]concat=n=3:v=0:a=1[L0];[L0]speechnorm", filtergraph.Compose(multiple))

	_, err = AudioTrack(1, 0, Speechnorm)
	assert.Error(t, err)
}

func TestAudio_StreamLabels(t *testing.T) {
	assert.Equal(t, []string{"2:v", "3:v"}, StreamLabels(2, 2, "v"))
}

func TestAudio_Merge(t *testing.T) {
	streams := []AudioStream{
		{Spec: "0:a", Rate: K48, SampleFmt: "fltp"},
		{Spec: "1:a", Rate: K44, SampleFmt: "s16"},
		{Spec: "2:a", Rate: K48, SampleFmt: "fltp"},
	}
	merged, err := AudioMerge(streams, "", "", AudioOutputLabel)
	require.NoError(t, err)
	assert.Equal(t, "[1:a]aformat=r=48000:f=fltp[L0];[0:a][L0][2:a]amerge=inputs=3[aout]", filtergraph.Compose(merged))

	merged, err = AudioMerge(streams[:1], K44, "", "")
	require.NoError(t, err)
	assert.Equal(t, "[0:a]aformat=r=44100[L0];[L0]amerge=inputs=1", filtergraph.Compose(merged))

	_, err = AudioMerge(nil, K48, "", "")
	assert.Error(t, err)
}

func TestAudio_MergeNoConversion(t *testing.T) {
	streams := []AudioStream{{Spec: "0:a", Rate: K48, SampleFmt: "fltp"}, {Spec: "1:a", Rate: K48, SampleFmt: "fltp"}}
	merged, err := AudioMerge(streams, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "[0:a][1:a]amerge=inputs=2", filtergraph.Compose(merged))
	assert.Equal(t, 1, merged.NumOutputs())
}
