package object_storage

import (
	"context"
	"encoding/base64"
	"errors"
	mock_utils "filtergraph-box/internal/mock/mock-utils"
	"filtergraph-box/internal/utils"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

const testFileContent = "[0:a]volume=0.5[out]\n"

func writeTestFile(t *testing.T, dir string) string {
	p := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(p, []byte(testFileContent), 0o644))
	return p
}

func TestObjectStorage_Download(t *testing.T) {
	dir := t.TempDir()
	ctrl := gomock.NewController(t)
	daprClient := mock_utils.NewMockBinder(ctrl)
	// Dapr returns b64
	b64Content := base64.StdEncoding.EncodeToString([]byte(testFileContent))
	daprClient.EXPECT().
		InvokeBinding(gomock.Any(), &utils.InvokeBindingRequest{
			Name:      "test",
			Operation: "get",
			Metadata:  map[string]string{"key": "sub/test.txt"},
		}).
		Return(&utils.BindingEvent{Data: []byte(b64Content)}, nil)

	od := NewObjectStorage(dir, "test", daprClient)
	p, err := od.Download(context.Background(), "sub/test.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub_test.txt"), p)
	written, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, testFileContent, string(written))
}

func TestObjectStorage_DownloadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	daprClient := mock_utils.NewMockBinder(ctrl)
	daprClient.EXPECT().InvokeBinding(gomock.Any(), gomock.Any()).Return(nil, errors.New("no such key"))
	od := NewObjectStorage(t.TempDir(), "test", daprClient)
	_, err := od.Download(context.Background(), "key")
	assert.ErrorContains(t, err, "no such key")
}

func TestObjectStorage_Upload(t *testing.T) {
	dir := t.TempDir()
	ctrl := gomock.NewController(t)
	daprClient := mock_utils.NewMockBinder(ctrl)
	daprClient.EXPECT().
		InvokeBinding(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *utils.InvokeBindingRequest) (*utils.BindingEvent, error) {
			assert.Equal(t, "create", in.Operation)
			assert.Equal(t, "key", in.Metadata["key"])
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(testFileContent)), string(in.Data))
			return &utils.BindingEvent{}, nil
		})

	od := NewObjectStorage(dir, "test", daprClient)
	err := od.Upload(context.Background(), writeTestFile(t, dir), "key")
	assert.Nil(t, err)
}

func TestObjectStorage_UploadMissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	od := NewObjectStorage(t.TempDir(), "test", mock_utils.NewMockBinder(ctrl))
	assert.Error(t, od.Upload(context.Background(), "/nonexistent", "key"))
}

func TestObjectStorage_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	daprClient := mock_utils.NewMockBinder(ctrl)
	daprClient.EXPECT().
		InvokeBinding(gomock.Any(), &utils.InvokeBindingRequest{
			Name:      "test",
			Operation: "delete",
			Metadata:  map[string]string{"key": "key"},
		}).
		Return(&utils.BindingEvent{}, nil)
	od := NewObjectStorage(t.TempDir(), "test", daprClient)
	assert.NoError(t, od.Delete(context.Background(), "key"))
}

// Check that the streaming way to build the B64 signature is identical to the
// non-streaming way
func TestObjectStorage_readFileToB64(t *testing.T) {
	p := writeTestFile(t, t.TempDir())
	control := base64.StdEncoding.EncodeToString([]byte(testFileContent))
	expected, err := readFileToB64(p)
	require.NoError(t, err)
	assert.Equal(t, control, string(expected))
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp", "a_b.mp4"), LocalPath("/tmp", "a/b.mp4"))
	assert.Equal(t, filepath.Join("/tmp", "asset"), LocalPath("/tmp", ".."))
	assert.Equal(t, filepath.Join("/tmp", "_.._x"), LocalPath("/tmp", "/../x"))
}
