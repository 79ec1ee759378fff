package monitor

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestSystemMonitor_GetStats(t *testing.T) {
	stats, err := NewSystemMonitor(10*time.Millisecond).GetStats(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.RAMPercent, 0.0)
	assert.LessOrEqual(t, stats.RAMPercent, 100.0)
	assert.GreaterOrEqual(t, stats.CPUPercent, 0.0)
	assert.Equal(t, IsBusy(stats.CPUPercent, stats.RAMPercent), stats.Busy)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(10, 10))
	assert.True(t, IsBusy(81, 10))
	assert.True(t, IsBusy(10, 95))
	assert.False(t, IsBusy(80, 90))
}
