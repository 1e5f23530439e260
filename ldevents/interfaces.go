package ldevents

import "github.com/launchdarkly/go-server-sdk-sub010/ldtime"

// EventProcessor defines the interface for dispatching analytics events. The LDClient façade holds
// one instance of this for its whole lifetime.
type EventProcessor interface {
	// SendEvent records an event asynchronously; it never blocks the caller.
	SendEvent(Event)

	// Flush signals that any buffered events should be sent as soon as possible, rather than
	// waiting for the next flush interval. Asynchronous: events may not be sent until later.
	Flush()

	// Close shuts down all event processor activity after first ensuring buffered events have
	// been flushed. Subsequent calls to SendEvent/Flush are silently ignored.
	Close() error
}

// EventSender defines the interface for delivering already-formatted event payloads to the
// events service. The default implementation posts JSON over HTTP; tests substitute a capturing
// fake.
type EventSender interface {
	SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult
}

// EventDataKind distinguishes an analytics payload from a diagnostic payload, since they are
// posted to different endpoints with slightly different headers.
type EventDataKind string

const (
	// AnalyticsEventDataKind denotes a payload of analytics event data (the bulk endpoint).
	AnalyticsEventDataKind EventDataKind = "analytics"
	// DiagnosticEventDataKind denotes a payload of diagnostic event data.
	DiagnosticEventDataKind EventDataKind = "diagnostic"
)

// EventSenderResult is the return type for EventSender.SendEventData.
type EventSenderResult struct {
	// Success is true if the event payload was delivered.
	Success bool
	// MustShutDown is true if the server returned an error indicating that no further event data
	// should be sent (normally, an invalid SDK key).
	MustShutDown bool
	// TimeFromServer is the last known date/time reported by the server's Date header, or zero.
	TimeFromServer ldtime.UnixMillisecondTime
}

type nullEventProcessor struct{}

// NewNullEventProcessor creates a no-op EventProcessor, used when the client is offline or events
// are explicitly disabled.
func NewNullEventProcessor() EventProcessor {
	return nullEventProcessor{}
}

func (n nullEventProcessor) SendEvent(Event) {}
func (n nullEventProcessor) Flush()          {}
func (n nullEventProcessor) Close() error    { return nil }
