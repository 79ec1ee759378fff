package encoder

import (
	"context"
	"filtergraph-box/pkg/encoder/filtergraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestEncoderBuilder_Args(t *testing.T) {
	graph, err := filtergraph.Parse("[0:a]dynaudnorm[norm]")
	require.NoError(t, err)

	const inputPath = "/tmp/test"
	const outputPath = "/tmp/testOut"
	args, cleanup, err := NewBuilder().
		AddInput(&FileInput{Path: inputPath}).
		SetFilterGraph(graph).
		Map("0:v", "norm").
		AddOutputOption("-c:v libx264rgb", "-b:v 192k ").
		SetOutput(outputPath).
		Args()
	require.NoError(t, err)
	defer cleanup()

	expected := []string{
		"-hide_banner",
		"-i", inputPath,
		"-filter_complex", "[0:a]dynaudnorm[norm]",
		"-map", "0:v",
		"-map", "[norm]",
		"-c:v", "libx264rgb", "-b:v", "192k",
		outputPath,
	}
	assert.Equal(t, expected, args)
}

func TestEncoderBuilder_ArgsNoGraph(t *testing.T) {
	args, cleanup, err := NewBuilder().AddInput(&FileInput{Path: "in"}).Map("0:a").SetOutput("out").Args()
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, []string{"-hide_banner", "-i", "in", "-map", "0:a", "out"}, args)
}

// Long graphs are handed to ffmpeg through a script file, removed by the cleanup function
func TestEncoderBuilder_ArgsScript(t *testing.T) {
	graph, err := filtergraph.Replicate(filtergraph.NewFilter("anull"), 20)
	require.NoError(t, err)
	args, cleanup, err := NewBuilder().
		AddInput(&FileInput{Path: "in"}).
		SetFilterGraph(graph).
		SetScriptThreshold(16).
		SetOutput("out").
		Args()
	require.NoError(t, err)
	require.Equal(t, "-filter_complex_script", args[3])

	script := args[4]
	content, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, filtergraph.Compose(graph), string(content))

	cleanup()
	_, err = os.Stat(script)
	assert.True(t, os.IsNotExist(err))
}

func TestEncoderBuilder_BuildNoInput(t *testing.T) {
	_, err := NewBuilder().SetOutput("test").Build(context.Background())
	assert.EqualError(t, err, "no inputs specified")
}

func TestEncoderBuilder_BuildNoOutput(t *testing.T) {
	_, err := NewBuilder().AddInput(&FileInput{Path: "test"}).Build(context.Background())
	assert.EqualError(t, err, "no output file Path specified")
}

func TestEncoderBuilder_Build(t *testing.T) {
	enc, err := NewBuilder().
		SetFFmpegPath("/opt/ffmpeg").
		AddInput(&FileInput{Path: "in.mp4"}).
		SetOutput("out.mp4").
		Build(context.Background())
	require.NoError(t, err)
	defer enc.Cancel()
	assert.Equal(t, "/opt/ffmpeg -hide_banner -i in.mp4 out.mp4", enc.GetCommandLine())
}

// Test collapse input when all options are specified
func TestInput_StringWithoutFormat(t *testing.T) {
	input1 := &FileInput{Path: "color=black:s=1280x720:r=25"}
	assert.Equal(t, "-i color=black:s=1280x720:r=25", input1.String())
}

func TestInput_StringWithFormat(t *testing.T) {
	input1 := &FileInput{Path: "color=black:s=1280x720:r=25", Format: "lavfi"}
	assert.Equal(t, "-f lavfi -i color=black:s=1280x720:r=25", input1.String())
}

func TestInput_StringWithFormatAndOptions(t *testing.T) {
	input1 := &FileInput{Path: "color=black:s=1280x720:r=25", Format: "lavfi", Options: []string{"-loop 1"}}
	assert.Equal(t, []string{"-loop", "1", "-f", "lavfi", "-i", "color=black:s=1280x720:r=25"}, input1.Args())
}
