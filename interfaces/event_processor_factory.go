package interfaces

import "github.com/launchdarkly/go-server-sdk-sub010/ldevents"

// EventProcessorFactory creates an implementation of ldevents.EventProcessor.
//
// Applications normally use one of the two standard factories from ldcomponents: SendEvents(),
// which enables the default asynchronous HTTP event pipeline and provides builder options for
// configuring it, or NoEvents(), which disables analytics events entirely.
type EventProcessorFactory interface {
	// CreateEventProcessor is called once, when MakeClient or MakeCustomClient builds the SDK
	// client. The returned EventProcessor is owned by the client for its whole lifetime and
	// receives a Close() call when the client is closed.
	CreateEventProcessor(context ClientContext) (ldevents.EventProcessor, error)
}
