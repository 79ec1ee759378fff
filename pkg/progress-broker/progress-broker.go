package progress_broker

import (
	"context"
	"encoding/json"
	"filtergraph-box/internal/utils"
	"fmt"
)

type ProgressBroker struct {
	// Name of the Dapr Component to use
	componentName string
	// Name of the topic to publish into
	topic string
	// Client to publish event into
	client utils.Publisher
}

type EncodeState int8

const (
	InProgress EncodeState = iota
	Done
	Error
)

func (s EncodeState) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Done:
		return "done"
	case Error:
		return "error"
	}
	return fmt.Sprintf("unknown (%d)", s)
}

type EncodeInfos struct {
	JobId string      `json:"jobId"`
	State EncodeState `json:"state"`
	Data  interface{} `json:"data"`
}

// ErrorData Payload of an Error event. Errors do not marshal by themselves
type ErrorData struct {
	Message string `json:"message"`
}

type NewBrokerOptions struct {
	Component string
	Topic     string
}

func NewProgressBroker(client utils.Publisher, opt NewBrokerOptions) *ProgressBroker {
	return &ProgressBroker{
		componentName: opt.Component,
		topic:         opt.Topic,
		client:        client,
	}
}

// SendProgress Publish a job event as a JSON string
func (eb *ProgressBroker) SendProgress(ctx context.Context, data EncodeInfos) error {
	if err, isErr := data.Data.(error); isErr {
		data.Data = ErrorData{Message: err.Error()}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err = eb.client.PublishEvent(ctx, eb.componentName, eb.topic, string(b)); err != nil {
		return fmt.Errorf("cannot publish %s event for job %s : %w", data.State, data.JobId, err)
	}
	return nil
}
