package job

import (
	"context"
	"encoding/base64"
	"errors"
	mock_utils "filtergraph-box/internal/mock/mock-utils"
	"filtergraph-box/internal/utils"
	"filtergraph-box/pkg/encoder"
	"filtergraph-box/pkg/encoder/filtergraph"
	object_storage "filtergraph-box/pkg/object-storage"
	progress_broker "filtergraph-box/pkg/progress-broker"
	test_utils "filtergraph-box/test-utils"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	runner    *Runner
	binder    *mock_utils.MockBinder
	publisher *mock_utils.MockPublisher
	assets    string
}

func setup(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	binder := mock_utils.NewMockBinder(ctrl)
	publisher := mock_utils.NewMockPublisher(ctrl)
	assets := t.TempDir()
	log := logrus.New()
	log.SetOutput(io.Discard)
	runner := NewRunner(
		object_storage.NewObjectStorage(assets, "store", binder),
		object_storage.NewHTTPFetcher(assets, 0),
		progress_broker.NewProgressBroker(publisher, progress_broker.NewBrokerOptions{Component: "pubsub", Topic: "encoding"}),
		Options{MaxRetry: 2, RetryBaseDelay: time.Millisecond},
		log,
	)
	return &fixture{runner: runner, binder: binder, publisher: publisher, assets: assets}
}

func getMatcher(key string) gomock.Matcher {
	return gomock.Eq(&utils.InvokeBindingRequest{Name: "store", Operation: "get", Metadata: map[string]string{"key": key}})
}

func b64(content string) *utils.BindingEvent {
	return &utils.BindingEvent{Data: []byte(base64.StdEncoding.EncodeToString([]byte(content)))}
}

func TestEncodingRequest_Validate(t *testing.T) {
	valid := func() *EncodingRequest {
		return &EncodingRequest{JobId: "1", Inputs: []Input{{Key: "a"}}, FilterGraph: "[0:a]anull"}
	}
	assert.NoError(t, valid().Validate())

	cases := map[string]func(r *EncodingRequest){
		"no id":          func(r *EncodingRequest) { r.JobId = "" },
		"no input":       func(r *EncodingRequest) { r.Inputs = nil },
		"key and url":    func(r *EncodingRequest) { r.Inputs[0].Url = "http://host/a" },
		"neither":        func(r *EncodingRequest) { r.Inputs[0].Key = "" },
		"graph + preset": func(r *EncodingRequest) { r.Preset = encoder.PresetAudiosOnly },
		"nothing":        func(r *EncodingRequest) { r.FilterGraph = "" },
		"unknown preset": func(r *EncodingRequest) { r.FilterGraph = ""; r.Preset = "nope" },
	}
	for name, mutate := range cases {
		r := valid()
		mutate(r)
		err := r.Validate()
		assert.True(t, IsRequestError(err), name)
	}
}

func TestEncodingRequest_Output(t *testing.T) {
	r := &EncodingRequest{JobId: "42"}
	assert.Equal(t, "42.mp4", r.Output())
	r.OutputKey = "records/42.mkv"
	assert.Equal(t, "records/42.mkv", r.Output())
}

func TestResolveGraph(t *testing.T) {
	req := &EncodingRequest{Inputs: []Input{{Key: "a"}, {Key: "b"}}, FilterGraph: "[0:a][1:a]amix[out]"}
	g, err := resolveGraph(filtergraph.Builtin, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"out"}, g.ExternalLabels(filtergraph.Output))

	// Syntax errors keep their position
	req.FilterGraph = "[0:a]amix[out"
	_, err = resolveGraph(filtergraph.Builtin, req)
	assert.True(t, IsRequestError(err))
	var parseErr *filtergraph.ParseError
	assert.ErrorAs(t, err, &parseErr)

	for _, text := range []string{"[2:a]anull", "[in]anull", " "} {
		req.FilterGraph = text
		_, err = resolveGraph(filtergraph.Builtin, req)
		assert.True(t, IsRequestError(err), text)
	}
}

func TestInputIndex(t *testing.T) {
	idx, ok := inputIndex("12:a:0")
	assert.True(t, ok)
	assert.Equal(t, 12, idx)
	idx, ok = inputIndex("3")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	_, ok = inputIndex("out")
	assert.False(t, ok)
}

func TestRunner_FetchAssets(t *testing.T) {
	f := setup(t)
	// The first asset is only available at the third attempt
	gomock.InOrder(
		f.binder.EXPECT().InvokeBinding(gomock.Any(), getMatcher("a")).Return(nil, errors.New("not yet")).Times(2),
		f.binder.EXPECT().InvokeBinding(gomock.Any(), getMatcher("a")).Return(b64("aaa"), nil),
	)
	f.binder.EXPECT().InvokeBinding(gomock.Any(), getMatcher("b")).Return(b64("bbb"), nil)

	paths, err := f.runner.fetchAssets(context.Background(), logrus.NewEntry(f.runner.log), []Input{{Key: "a"}, {Key: "b"}})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	content, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(content))
	assert.Equal(t, filepath.Join(f.assets, "a"), paths[0])
}

// A failed download removes the other assets
func TestRunner_FetchAssetsError(t *testing.T) {
	f := setup(t)
	f.binder.EXPECT().InvokeBinding(gomock.Any(), getMatcher("a")).Return(b64("aaa"), nil)
	f.binder.EXPECT().InvokeBinding(gomock.Any(), getMatcher("b")).Return(nil, errors.New("gone")).Times(3)

	_, err := f.runner.fetchAssets(context.Background(), logrus.NewEntry(f.runner.log), []Input{{Key: "a"}, {Key: "b"}})
	assert.ErrorContains(t, err, "gone")
	_, statErr := os.Stat(filepath.Join(f.assets, "a"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunner_Builder(t *testing.T) {
	f := setup(t)
	req := &EncodingRequest{
		JobId:         "1",
		Inputs:        []Input{{Key: "a", Format: "wav"}},
		FilterGraph:   "[0:a]volume=0.5[out]",
		OutputOptions: []string{"-c:a aac"},
	}
	graph, err := resolveGraph(f.runner.opt.Registry, req)
	require.NoError(t, err)
	b, err := f.runner.builder(req, graph, []string{"/tmp/a.wav"})
	require.NoError(t, err)
	args, cleanup, err := b.SetOutput("o.mp4").Args()
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "-f wav -i /tmp/a.wav -filter_complex [0:a]volume=0.5[out] -map [out] -c:a aac o.mp4",
		strings.Join(args[1:], " "))

	// Explicit maps replace the graph outputs
	req.Maps = []string{"out", "0:v"}
	b, err = f.runner.builder(req, graph, []string{"/tmp/a.wav"})
	require.NoError(t, err)
	args, _, err = b.SetOutput("o.mp4").Args()
	require.NoError(t, err)
	assert.Contains(t, strings.Join(args, " "), "-map [out] -map 0:v")
}

func TestRunner_BuilderPreset(t *testing.T) {
	f := setup(t)
	req := &EncodingRequest{JobId: "1", Inputs: []Input{{Key: "v"}}, Preset: encoder.PresetAudiosVideo}
	_, err := f.runner.builder(req, nil, []string{"/tmp/v.mp4"})
	assert.True(t, IsRequestError(err))

	req.Inputs = append(req.Inputs, Input{Key: "a"})
	b, err := f.runner.builder(req, nil, []string{"/tmp/v.mp4", "/tmp/a.m4a"})
	require.NoError(t, err)
	assert.Equal(t, 2, b.InputsCount())
}

// Invalid requests are reported on the broker too
func TestRunner_RunInvalid(t *testing.T) {
	f := setup(t)
	f.publisher.EXPECT().
		PublishEvent(gomock.Any(), "pubsub", "encoding", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, data interface{}, _ ...interface{}) error {
			assert.Contains(t, data.(string), `"state":2`)
			return nil
		})
	err := f.runner.Run(context.Background(), &EncodingRequest{JobId: "1", Inputs: []Input{{Key: "a"}}, FilterGraph: "[0:a]anull["})
	assert.True(t, IsRequestError(err))
}

func TestRunner_RunDownloadError(t *testing.T) {
	f := setup(t)
	f.runner.opt.MaxRetry = 0
	f.binder.EXPECT().InvokeBinding(gomock.Any(), gomock.Any()).Return(nil, errors.New("gone"))
	f.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	err := f.runner.Run(context.Background(), &EncodingRequest{JobId: "1", Inputs: []Input{{Key: "a"}}, FilterGraph: "[0:a]anull"})
	assert.Error(t, err)
	assert.False(t, IsRequestError(err))
}

// Full job, with an input served over HTTP and the output uploaded to the store
func TestRunner_Run(t *testing.T) {
	wav := test_utils.Render(t, t.TempDir(), "sine.wav", test_utils.Sine)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, wav)
	}))
	defer srv.Close()

	f := setup(t)
	f.binder.EXPECT().
		InvokeBinding(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *utils.InvokeBindingRequest) (*utils.BindingEvent, error) {
			assert.Equal(t, "create", in.Operation)
			assert.Equal(t, "1.m4a", in.Metadata["key"])
			assert.NotEmpty(t, in.Data)
			return &utils.BindingEvent{}, nil
		})
	var states []string
	f.publisher.EXPECT().
		PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, data interface{}, _ ...interface{}) error {
			states = append(states, data.(string))
			return nil
		}).
		AnyTimes()

	err := f.runner.Run(context.Background(), &EncodingRequest{
		JobId:       "1",
		Inputs:      []Input{{Url: srv.URL + "/sine.wav"}},
		FilterGraph: "[0:a]volume=0.5,asplit[a][b];[b]anullsink",
		OutputKey:   "1.m4a",
	})
	require.NoError(t, err)
	require.NotEmpty(t, states)
	assert.Contains(t, states[len(states)-1], `"outputKey":"1.m4a"`)
}
