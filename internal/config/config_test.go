package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(quietLogger(), filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "encoding-state", cfg.PubSubTopicProgress)
	assert.Equal(t, 50001, cfg.DaprGrpcPort)
	assert.Equal(t, 2500, cfg.DaprMaxRequestSizeMB)
	assert.Equal(t, 4096, cfg.FilterScriptThreshold)
	assert.True(t, cfg.ProbeFilters)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("OBJECT_STORE_NAME", "s3")
	t.Setenv("PROBE_FILTERS", "false")
	cfg, err := Load(quietLogger(), filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.AppPort)
	assert.Equal(t, "s3", cfg.ObjectStoreName)
	assert.False(t, cfg.ProbeFilters)
}

// Values of the .env file do not override the environment
func TestLoad_DotEnv(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("PUBSUB_NAME=from-file\nLOG_LEVEL=debug\n"), 0o644))
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { _ = os.Unsetenv("PUBSUB_NAME") })

	cfg, err := Load(quietLogger(), env)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.PubSubName)
	assert.Equal(t, "warn", cfg.LogLevel)
}
