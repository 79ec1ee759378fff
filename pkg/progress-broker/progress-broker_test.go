package progress_broker

import (
	"context"
	"encoding/json"
	mock_utils "filtergraph-box/internal/mock/mock-utils"
	console_parser "filtergraph-box/pkg/encoder/console-parser"
	"fmt"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestBroker(t *testing.T) (*ProgressBroker, *mock_utils.MockPublisher) {
	ctrl := gomock.NewController(t)
	daprClient := mock_utils.NewMockPublisher(ctrl)
	return NewProgressBroker(daprClient, NewBrokerOptions{Component: "pubsub", Topic: "encoding"}), daprClient
}

// decode Capture the published payload
func decode(t *testing.T, into *map[string]interface{}) func(context.Context, string, string, interface{}, ...interface{}) error {
	return func(_ context.Context, component string, topic string, data interface{}, _ ...interface{}) error {
		assert.Equal(t, "pubsub", component)
		assert.Equal(t, "encoding", topic)
		require.NoError(t, json.Unmarshal([]byte(data.(string)), into))
		return nil
	}
}

func TestProgressBroker_SendProgress(t *testing.T) {
	pg, daprClient := newTestBroker(t)
	var payload map[string]interface{}
	daprClient.EXPECT().PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(decode(t, &payload))
	err := pg.SendProgress(context.Background(), EncodeInfos{
		JobId: "1",
		State: InProgress,
		Data:  console_parser.EncodingProgress{Frames: 10, Time: time.Second},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", payload["jobId"])
	assert.Equal(t, float64(InProgress), payload["state"])
}

func TestProgressBroker_SendError(t *testing.T) {
	pg, daprClient := newTestBroker(t)
	var payload map[string]interface{}
	daprClient.EXPECT().PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(decode(t, &payload))
	err := pg.SendProgress(context.Background(), EncodeInfos{
		JobId: "1",
		State: Error,
		Data:  fmt.Errorf("Test"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"message": "Test"}, payload["data"])
}

func TestProgressBroker_SendDone(t *testing.T) {
	pg, daprClient := newTestBroker(t)
	daprClient.EXPECT().PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	err := pg.SendProgress(context.Background(), EncodeInfos{JobId: "1", State: Done})
	assert.NoError(t, err)
}

func TestProgressBroker_CouldNotSend(t *testing.T) {
	pg, daprClient := newTestBroker(t)
	daprClient.EXPECT().PublishEvent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("test"))
	err := pg.SendProgress(context.Background(), EncodeInfos{JobId: "1", State: Done})
	assert.ErrorContains(t, err, "cannot publish done event for job 1")
}
