package ldevents

import (
	"net/http"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
)

// Default configuration values used by the event processor when the corresponding builder
// settings are left unset.
const (
	DefaultFlushInterval                     = 5 * time.Second
	DefaultContextKeysFlushInterval          = 5 * time.Minute
	DefaultContextKeysCapacity               = 1000
	DefaultCapacity                          = 10000
	DefaultDiagnosticRecordingInterval       = 15 * time.Minute
	MinimumDiagnosticRecordingInterval       = 60 * time.Second
	maxFlushWorkers                          = 5
	currentEventSchema                       = "4"
	eventSchemaHeader                        = "X-LaunchDarkly-Event-Schema"
	payloadIDHeader                          = "X-LaunchDarkly-Payload-ID"
)

// EventsConfiguration bundles all settings the event dispatcher needs. It is produced by the
// ldcomponents.SendEvents() builder and handed to NewDefaultEventProcessor.
type EventsConfiguration struct {
	Capacity                    int
	FlushInterval               time.Duration
	ContextKeysCapacity         int
	ContextKeysFlushInterval    time.Duration
	InlineContextsInEvents      bool
	AllAttributesPrivate        bool
	PrivateAttributeNames       []string
	EventSender                 EventSender
	DiagnosticsManager          *DiagnosticsManager
	DiagnosticRecordingInterval time.Duration
	Loggers                     ldlog.Loggers
	LogContextKeyInErrors       bool

	currentTimeProvider func() ldtime.UnixMillisecondTime

	// forceDiagnosticRecordingInterval bypasses MinimumDiagnosticRecordingInterval; used only by
	// tests that need a short diagnostic interval.
	forceDiagnosticRecordingInterval time.Duration
}

// NewServerSideEventSender creates the standard HTTP-based EventSender: POSTs JSON to
// "<eventsURI>/bulk" for analytics data and "<eventsURI>/diagnostic" for diagnostics, with the
// SDK key in the Authorization header.
func NewServerSideEventSender(
	httpClient *http.Client,
	sdkKey string,
	eventsURI string,
	headers http.Header,
	loggers ldlog.Loggers,
) EventSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	allHeaders := make(http.Header, len(headers)+1)
	for k, vv := range headers {
		allHeaders[k] = vv
	}
	allHeaders.Set("Authorization", sdkKey)
	return &defaultEventSender{
		httpClient:    httpClient,
		eventsURI:     trimTrailingSlash(eventsURI) + "/bulk",
		diagnosticURI: trimTrailingSlash(eventsURI) + "/diagnostic",
		headers:       allHeaders,
		loggers:       loggers,
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
