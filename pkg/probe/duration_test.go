package probe

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("10.000000\n")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d)

	d, err = parseDuration("3.0236")
	require.NoError(t, err)
	assert.Equal(t, 3024*time.Millisecond, d)

	// Ffprobe reports nothing for images
	d, err = parseDuration("N/A")
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = parseDuration("abc")
	assert.Error(t, err)
}

func TestGetDuration_NonExisting(t *testing.T) {
	duration, err := GetDuration(context.Background(), DefaultFFprobePath, "non-existing")
	assert.Error(t, err)
	assert.Zero(t, duration)
}
