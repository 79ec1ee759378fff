package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const DefaultFFprobePath = "ffprobe"

// GetDuration Duration of the media at path. Still images have no duration
func GetDuration(ctx context.Context, ffprobePath string, path string) (time.Duration, error) {
	// ffprobe -v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 input.mp4
	args := strings.Fields("-v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1")
	out, err := exec.CommandContext(ctx, ffprobePath, append(args, path)...).Output()
	if err != nil {
		return 0, fmt.Errorf("cannot probe %s : %w", path, err)
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (time.Duration, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == "N/A" {
		return 0, nil
	}
	seconds, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration %q : %w", out, err)
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond), nil
}
