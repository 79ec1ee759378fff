//go:build integration
// +build integration

package main

import (
	"context"
	"filtergraph-box/internal/config"
	"filtergraph-box/internal/utils"
	"filtergraph-box/pkg/encoder"
	test_utils "filtergraph-box/test-utils"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/dapr/go-sdk/client"
	"github.com/stretchr/testify/require"
)

const (
	ObjStoreComponent = "object-store"
)

// These are integration test, using all real components
// Dapr and the backend storage should be booted up for this to work

func SetupInt(t *testing.T) *server {
	daprClient, err := client.NewClientWithPort(strconv.Itoa(50010))
	require.NoError(t, err)
	dir := t.TempDir()
	assets := map[string]string{
		"audio":  test_utils.Render(t, dir, "audio.m4a", test_utils.Sine),
		"audio2": test_utils.Render(t, dir, "audio2.m4a", test_utils.Sine),
		"video":  test_utils.Render(t, dir, "video.mp4", test_utils.Testsrc, test_utils.Sine),
		"image":  test_utils.Render(t, dir, "image.png", "color=red:s=320x240:d=0.04"),
	}
	for key, path := range assets {
		copyToStorage(t, daprClient, path, key)
	}
	s, err := newServer(&config.Config{ObjectStoreName: ObjStoreComponent, ObjStoreMaxRetry: 3},
		func() (utils.Sidecar, error) { return daprClient, nil })
	require.NoError(t, err)
	return s
}

func encodeInt(t *testing.T, s *server, body string) {
	req, err := http.NewRequest(http.MethodPost, "/encode", strings.NewReader(body))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestMain_Encode_FilterGraph_Int(t *testing.T) {
	s := SetupInt(t)
	encodeInt(t, s, `{"jobId":"fg","inputs":[{"key":"audio"},{"key":"audio2"}],
		"filterGraph":"[0:a][1:a]concat=n=2:v=0:a=1,volume=0.8[out]","outputKey":"fg.m4a"}`)
}

func TestMain_Encode_AudioVideo_Int(t *testing.T) {
	s := SetupInt(t)
	encodeInt(t, s, `{"jobId":"av","inputs":[{"key":"video"},{"key":"audio"},{"key":"audio2"}],"preset":"`+encoder.PresetAudiosVideo+`"}`)
}

func TestMain_Encode_AudioImage_Int(t *testing.T) {
	s := SetupInt(t)
	encodeInt(t, s, `{"jobId":"ai","inputs":[{"key":"image"},{"key":"audio"}],"preset":"`+encoder.PresetAudiosImage+`"}`)
}

func TestMain_Encode_AudioOnly_Int(t *testing.T) {
	s := SetupInt(t)
	encodeInt(t, s, `{"jobId":"ao","inputs":[{"key":"audio"},{"key":"audio2"}],"preset":"`+encoder.PresetAudiosOnly+`"}`)
}

// Keys are removed once the job succeeded
func TestMain_Encode_DeleteAssets_Int(t *testing.T) {
	s := SetupInt(t)
	encodeInt(t, s, `{"jobId":"del","inputs":[{"key":"audio2"}],"filterGraph":"[0:a]anull[out]","outputKey":"del.m4a",
		"options":{"deleteAssetsFromObjStore":true}}`)
}

func copyToStorage(t *testing.T, daprClient client.Client, src string, keyName string) {
	_, err := daprClient.InvokeBinding(context.Background(), &client.InvokeBindingRequest{
		Name:      ObjStoreComponent,
		Operation: "create",
		Data:      test_utils.GetAssetContent(t, src, true),
		Metadata: map[string]string{
			"key":      keyName,
			"fileName": keyName,
		},
	})
	require.NoError(t, err)
}
