package ldevents

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
)

const defaultEventsURI = "https://events.launchdarkly.com"

type defaultEventSender struct {
	httpClient    *http.Client
	eventsURI     string
	diagnosticURI string
	headers       http.Header
	loggers       ldlog.Loggers
	retryDelay    time.Duration
}

// NewDefaultEventSender creates an EventSender posting to arbitrary URIs; NewServerSideEventSender
// is the normal entry point and fills in the standard endpoint paths and Authorization header.
func NewDefaultEventSender(
	httpClient *http.Client,
	eventsURI string,
	diagnosticURI string,
	headers http.Header,
	loggers ldlog.Loggers,
) EventSender {
	return &defaultEventSender{httpClient: httpClient, eventsURI: eventsURI, diagnosticURI: diagnosticURI, headers: headers, loggers: loggers}
}

// isHTTPErrorRecoverable reports whether an HTTP error status represents a condition that might
// resolve on its own if we retry, or at least should not make us permanently stop sending
// requests. Only a narrow set of 4xx codes are considered recoverable; everything else in 4xx is
// treated as a permanent configuration problem (most importantly, an invalid SDK key).
func isHTTPErrorRecoverable(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		switch statusCode {
		case 400, 408, 429:
			return true
		default:
			return false
		}
	}
	return true
}

func httpErrorDescription(statusCode int) string {
	message := ""
	if statusCode == 401 || statusCode == 403 {
		message = " (invalid SDK key)"
	}
	return fmt.Sprintf("HTTP error %d%s", statusCode, message)
}

func (s *defaultEventSender) SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult {
	headers := make(http.Header, len(s.headers)+2)
	for k, vv := range s.headers {
		headers[k] = vv
	}
	headers.Set("Content-Type", "application/json")

	var uri string
	var description string

	switch kind {
	case AnalyticsEventDataKind:
		uri = s.eventsURI
		description = fmt.Sprintf("%d events", eventCount)
		headers.Set(eventSchemaHeader, currentEventSchema)
		if payloadUUID, err := uuid.NewRandom(); err == nil {
			headers.Set(payloadIDHeader, payloadUUID.String())
		}
	case DiagnosticEventDataKind:
		uri = s.diagnosticURI
		description = "diagnostic event"
	default:
		return EventSenderResult{}
	}

	s.loggers.Debugf("Sending %s: %s", description, data)

	var resp *http.Response
	var respErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay
			if delay == 0 {
				delay = time.Second
			}
			s.loggers.Warnf("Will retry posting events after %f second", float64(delay)/float64(time.Second))
			time.Sleep(delay)
		}

		req, reqErr := http.NewRequest("POST", uri, bytes.NewReader(data))
		if reqErr != nil {
			s.loggers.Errorf("Unexpected error while creating event request: %+v", reqErr)
			return EventSenderResult{}
		}
		req.Header = headers

		resp, respErr = s.httpClient.Do(req)
		if resp != nil && resp.Body != nil {
			_, _ = ioutil.ReadAll(resp.Body)
			_ = resp.Body.Close()
		}

		if respErr != nil {
			s.loggers.Warnf("Unexpected error while sending events: %+v", respErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result := EventSenderResult{Success: true}
			if t, err := http.ParseTime(resp.Header.Get("Date")); err == nil {
				result.TimeFromServer = ldtime.UnixMillisFromTime(t)
			}
			return result
		}

		if isHTTPErrorRecoverable(resp.StatusCode) {
			retryNote := "will retry"
			if attempt == 1 {
				retryNote = "some events were dropped"
			}
			s.loggers.Warnf("Error sending events (%s): %s", retryNote, httpErrorDescription(resp.StatusCode))
		} else {
			s.loggers.Errorf("Error sending events (giving up permanently): %s", httpErrorDescription(resp.StatusCode))
			return EventSenderResult{MustShutDown: true}
		}
	}
	return EventSenderResult{}
}
