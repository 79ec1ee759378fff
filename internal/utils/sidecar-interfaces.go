// This package is mainly interfaces used elsewhere in the codebase.
// All of these are used for easier mocking and testing
package utils

import (
	"context"
	dapr "github.com/dapr/go-sdk/client"
)

type PublishEventOption = dapr.PublishEventOption

// Publisher Sends job events to a pub/sub component
type Publisher interface {
	PublishEvent(ctx context.Context, pubsubName string, topicName string, data interface{}, opts ...PublishEventOption) error
}

type InvokeBindingRequest = dapr.InvokeBindingRequest
type BindingEvent = dapr.BindingEvent

// Binder Proxy to query the backend storage
type Binder interface {
	InvokeBinding(ctx context.Context, in *InvokeBindingRequest) (out *BindingEvent, err error)
}

// Sidecar Everything the service needs from the Dapr sidecar
type Sidecar interface {
	Publisher
	Binder
	Close()
}
