package logger

import (
	"bytes"
	"encoding/json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestBuild_ECSFormat(t *testing.T) {
	var buf bytes.Buffer
	log := Build()
	log.SetOutput(&buf)
	log.WithField("jobId", "1").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, buf.String(), `"jobId":"1"`)
	assert.Contains(t, entry, "@timestamp")
}

func TestBuildWithLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, BuildWithLevel("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, BuildWithLevel("").GetLevel())
	assert.Equal(t, logrus.InfoLevel, BuildWithLevel("chatty").GetLevel())
}
