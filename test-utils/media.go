package test_utils

import (
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Lavfi sources used to render test media
const (
	Sine  = "sine=frequency=440:duration=2"
	Color = "color=black:s=320x240:r=25:d=2"
	// Video only, pair it with Sine for a video with sound
	Testsrc = "testsrc=s=320x240:r=25:d=2"
)

// RequireFFmpeg Skip the test if no ffmpeg binary can be found
func RequireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
}

// Render Encode the lavfi sources into dir/name. Sources are mapped in order
func Render(t *testing.T, dir string, name string, sources ...string) string {
	t.Helper()
	RequireFFmpeg(t)
	args := []string{"-hide_banner", "-y"}
	for _, s := range sources {
		args = append(args, "-f", "lavfi", "-i", s)
	}
	for i := range sources {
		args = append(args, "-map", string(rune('0'+i)))
	}
	out := filepath.Join(dir, name)
	args = append(args, "-shortest", out)
	if output, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("cannot render %s : %s\n%s", name, err, output)
	}
	return out
}

// GetAssetContent Content of a file, base64 encoded like the Dapr bindings expect it if b64 is set
func GetAssetContent(t *testing.T, path string, b64 bool) []byte {
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !b64 {
		return content
	}
	return []byte(base64.StdEncoding.EncodeToString(content))
}
