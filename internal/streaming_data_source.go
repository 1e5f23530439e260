package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	es "github.com/launchdarkly/eventsource"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
)

// Implementation of the streaming data source, not including the lower-level SSE implementation,
// which lives in the eventsource package.
//
// Error handling:
//  1. A malformed event means the stream may have missed updates: report INTERRUPTED with
//     INVALID_DATA and restart the stream.
//  2. A data store write failure is reported by DataSourceUpdatesImpl, which already sets our
//     state to INTERRUPTED. If the store supports status notifications we wait for it to recover
//     and tell us whether a refresh is needed; otherwise we must assume data was lost and restart
//     the stream ourselves.
//  3. An unrecoverable HTTP error (401, etc.) closes the stream for good and sets state to OFF.
//     Any other HTTP or network error retries with backoff, reporting INTERRUPTED.
//  4. closeWhenReady is closed once initialization has either succeeded or permanently failed, so
//     client startup isn't stuck waiting on a background retry loop forever.
const (
	putEvent                 = "put"
	patchEvent               = "patch"
	deleteEvent              = "delete"
	streamReadTimeout        = 5 * time.Minute // LaunchDarkly sends a heartbeat comment every 3 minutes
	streamMaxRetryDelay      = 30 * time.Second
	streamRetryResetInterval = 60 * time.Second
	streamJitterRatio        = 0.5
	defaultStreamRetryDelay  = 1 * time.Second

	streamingErrorContext     = "in stream connection"
	streamingWillRetryMessage = "will retry"
)

// StreamProcessor is the internal implementation of the streaming data source. It is exported so
// that StreamingDataSourceBuilder's own tests can verify its configuration; application code
// should interact with it only via the DataSource interface.
type StreamProcessor struct {
	dataSourceUpdates          interfaces.DataSourceUpdates
	streamURI                  string
	initialReconnectDelay      time.Duration
	client                     *http.Client
	headers                    http.Header
	diagnosticsManager         *ldevents.DiagnosticsManager
	loggers                    ldlog.Loggers
	setInitializedOnce         sync.Once
	isInitialized              bool
	halt                       chan struct{}
	storeStatusCh              <-chan interfaces.DataStoreStatus
	connectionAttemptStartTime ldtime.UnixMillisecondTime
	connectionAttemptLock      sync.Mutex
	readyOnce                  sync.Once
	closeOnce                  sync.Once
}

type putData struct {
	Path string  `json:"path"`
	Data allData `json:"data"`
}

type patchData struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

type deleteData struct {
	Path    string `json:"path"`
	Version int    `json:"version"`
}

// NewStreamProcessor creates the internal implementation of the streaming data source.
func NewStreamProcessor(
	context interfaces.ClientContext,
	dataSourceUpdates interfaces.DataSourceUpdates,
	streamURI string,
	initialReconnectDelay time.Duration,
) *StreamProcessor {
	sp := &StreamProcessor{
		dataSourceUpdates:     dataSourceUpdates,
		streamURI:             streamURI,
		initialReconnectDelay: initialReconnectDelay,
		headers:               context.GetHTTP().GetDefaultHeaders(),
		loggers:               context.GetLogging().Loggers,
		halt:                  make(chan struct{}),
	}
	if hdm, ok := context.(HasDiagnosticsManager); ok {
		sp.diagnosticsManager = hdm.GetDiagnosticsManager()
	}

	sp.client = context.GetHTTP().CreateHTTPClient()
	// Client.Timeout would break a long-lived stream connection, so it must stay zero; the
	// connect timeout is set separately via the Dialer used to build this client.
	sp.client.Timeout = 0

	return sp
}

// IsInitialized implements interfaces.DataSource.
func (sp *StreamProcessor) IsInitialized() bool {
	return sp.isInitialized
}

// Start implements interfaces.DataSource.
func (sp *StreamProcessor) Start(closeWhenReady chan<- struct{}) {
	sp.loggers.Info("Starting LaunchDarkly streaming connection")
	if sp.dataSourceUpdates.GetDataStoreStatusProvider().IsStatusMonitoringEnabled() {
		sp.storeStatusCh = sp.dataSourceUpdates.GetDataStoreStatusProvider().AddStatusListener()
	}
	go sp.subscribe(closeWhenReady)
}

type parsedStreamPath struct {
	key  string
	kind interfaces.StoreDataKind
}

func parseStreamPath(path string) (parsedStreamPath, error) {
	parsed := parsedStreamPath{}
	switch {
	case strings.HasPrefix(path, "/segments/"):
		parsed.kind = interfaces.DataKindSegments()
		parsed.key = strings.TrimPrefix(path, "/segments/")
	case strings.HasPrefix(path, "/flags/"):
		parsed.kind = interfaces.DataKindFeatures()
		parsed.key = strings.TrimPrefix(path, "/flags/")
	default:
		return parsed, fmt.Errorf("unrecognized path %s", path)
	}
	return parsed, nil
}

func (sp *StreamProcessor) consumeStream(stream *es.Stream, closeWhenReady chan<- struct{}) {
	defer func() {
		for range stream.Events {
		}
		if stream.Errors != nil {
			for range stream.Errors {
			}
		}
	}()

	for {
		select {
		case event, ok := <-stream.Events:
			if !ok {
				sp.loggers.Info("Event stream closed")
				return
			}
			sp.logConnectionResult(true)

			processedEvent := true
			shouldRestart := false

			gotMalformedEvent := func(event es.Event, err error) {
				sp.loggers.Errorf(
					"Received streaming \"%s\" event with malformed JSON data (%s); will restart stream",
					event.Event(),
					err,
				)

				errorInfo := interfaces.DataSourceErrorInfo{
					Kind:    interfaces.DataSourceErrorKindInvalidData,
					Message: err.Error(),
					Time:    time.Now(),
				}
				sp.dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)

				shouldRestart = true
				processedEvent = false
			}

			storeUpdateFailed := func(updateDesc string) {
				if sp.storeStatusCh != nil {
					sp.loggers.Errorf("Failed to store %s in data store; will try again once data store is working", updateDesc)
				} else {
					sp.loggers.Errorf("Failed to store %s in data store; will restart stream until successful", updateDesc)
					shouldRestart = true
					processedEvent = false
				}
			}

			switch event.Event() {
			case putEvent:
				var put putData
				if err := json.Unmarshal([]byte(event.Data()), &put); err != nil {
					gotMalformedEvent(event, err)
					break
				}
				if sp.dataSourceUpdates.Init(makeAllStoreData(put.Data.Flags, put.Data.Segments)) {
					sp.setInitializedAndNotifyClient(true, closeWhenReady)
				} else {
					storeUpdateFailed("initial streaming data")
				}

			case patchEvent:
				var patch patchData
				if err := json.Unmarshal([]byte(event.Data()), &patch); err != nil {
					gotMalformedEvent(event, err)
					break
				}
				path, err := parseStreamPath(patch.Path)
				if err != nil {
					gotMalformedEvent(event, err)
					break
				}
				item, err := path.kind.Deserialize(patch.Data)
				if err != nil {
					gotMalformedEvent(event, err)
					break
				}
				if !sp.dataSourceUpdates.Upsert(path.kind, path.key, item) {
					storeUpdateFailed("streaming update of " + path.key)
				}

			case deleteEvent:
				var data deleteData
				if err := json.Unmarshal([]byte(event.Data()), &data); err != nil {
					gotMalformedEvent(event, err)
					break
				}
				path, err := parseStreamPath(data.Path)
				if err != nil {
					gotMalformedEvent(event, err)
					break
				}
				deletedItem := interfaces.StoreItemDescriptor{Version: data.Version, Item: nil}
				if !sp.dataSourceUpdates.Upsert(path.kind, path.key, deletedItem) {
					storeUpdateFailed("streaming deletion of " + path.key)
				}

			default:
				sp.loggers.Infof("Unexpected event found in stream: %s", event.Event())
			}

			if processedEvent {
				sp.dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
			}
			if shouldRestart {
				stream.Restart()
			}

		case newStoreStatus := <-sp.storeStatusCh:
			if sp.loggers.IsDebugEnabled() {
				sp.loggers.Debugf("StreamProcessor received store status update: %+v", newStoreStatus)
			}
			if newStoreStatus.Available {
				if newStoreStatus.NeedsRefresh {
					sp.loggers.Warn("Restarting stream to refresh data after feature store outage")
					stream.Restart()
				}
				sp.setInitializedAndNotifyClient(true, closeWhenReady)
			}

		case <-sp.halt:
			stream.Close()
			return
		}
	}
}

func (sp *StreamProcessor) subscribe(closeWhenReady chan<- struct{}) {
	req, _ := http.NewRequest("GET", sp.streamURI+"/all", nil)
	for k, vv := range sp.headers {
		req.Header[k] = vv
	}
	sp.loggers.Info("Connecting to LaunchDarkly stream")

	sp.logConnectionStarted()

	initialRetryDelay := sp.initialReconnectDelay
	if initialRetryDelay <= 0 {
		initialRetryDelay = defaultStreamRetryDelay
	}

	errorHandler := func(err error) es.StreamErrorHandlerResult {
		sp.logConnectionResult(false)

		if se, ok := err.(es.SubscriptionError); ok {
			errorInfo := interfaces.DataSourceErrorInfo{
				Kind:       interfaces.DataSourceErrorKindErrorResponse,
				StatusCode: se.Code,
				Time:       time.Now(),
			}
			recoverable := checkIfErrorIsRecoverableAndLog(
				sp.loggers,
				httpErrorDescription(se.Code),
				streamingErrorContext,
				se.Code,
				streamingWillRetryMessage,
			)
			if recoverable {
				sp.logConnectionStarted()
				sp.dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)
				return es.StreamErrorHandlerResult{CloseNow: false}
			}
			sp.dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateOff, errorInfo)
			return es.StreamErrorHandlerResult{CloseNow: true}
		}

		checkIfErrorIsRecoverableAndLog(
			sp.loggers,
			err.Error(),
			streamingErrorContext,
			0,
			streamingWillRetryMessage,
		)
		errorInfo := interfaces.DataSourceErrorInfo{
			Kind:    interfaces.DataSourceErrorKindNetworkError,
			Message: err.Error(),
			Time:    time.Now(),
		}
		sp.dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateInterrupted, errorInfo)
		sp.logConnectionStarted()
		return es.StreamErrorHandlerResult{CloseNow: false}
	}

	stream, err := es.SubscribeWithRequestAndOptions(req,
		es.StreamOptionHTTPClient(sp.client),
		es.StreamOptionReadTimeout(streamReadTimeout),
		es.StreamOptionInitialRetry(initialRetryDelay),
		es.StreamOptionUseBackoff(streamMaxRetryDelay),
		es.StreamOptionUseJitter(streamJitterRatio),
		es.StreamOptionRetryResetInterval(streamRetryResetInterval),
		es.StreamOptionErrorHandler(errorHandler),
		es.StreamOptionCanRetryFirstConnection(-1),
		es.StreamOptionLogger(sp.loggers.ForLevel(ldlog.Info)),
	)

	if err != nil {
		sp.logConnectionResult(false)
		close(closeWhenReady)
		return
	}

	sp.consumeStream(stream, closeWhenReady)
}

func (sp *StreamProcessor) setInitializedAndNotifyClient(success bool, closeWhenReady chan<- struct{}) {
	if success {
		sp.setInitializedOnce.Do(func() {
			sp.loggers.Info("LaunchDarkly streaming is active")
			sp.isInitialized = true
		})
	}
	sp.readyOnce.Do(func() {
		close(closeWhenReady)
	})
}

func (sp *StreamProcessor) logConnectionStarted() {
	sp.connectionAttemptLock.Lock()
	defer sp.connectionAttemptLock.Unlock()
	sp.connectionAttemptStartTime = ldtime.UnixMillisNow()
}

func (sp *StreamProcessor) logConnectionResult(success bool) {
	sp.connectionAttemptLock.Lock()
	startTimeWas := sp.connectionAttemptStartTime
	sp.connectionAttemptStartTime = 0
	sp.connectionAttemptLock.Unlock()

	if startTimeWas > 0 && sp.diagnosticsManager != nil {
		timestamp := ldtime.UnixMillisNow()
		sp.diagnosticsManager.RecordStreamInit(timestamp, !success, uint64(timestamp-startTimeWas))
	}
}

// Close implements interfaces.DataSource.
func (sp *StreamProcessor) Close() error {
	sp.closeOnce.Do(func() {
		sp.loggers.Info("Closing event stream")
		close(sp.halt)
		if sp.storeStatusCh != nil {
			sp.dataSourceUpdates.GetDataStoreStatusProvider().RemoveStatusListener(sp.storeStatusCh)
		}
		sp.dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateOff, interfaces.DataSourceErrorInfo{})
	})
	return nil
}

// GetBaseURI returns the configured streaming base URI, for testing.
func (sp *StreamProcessor) GetBaseURI() string {
	return sp.streamURI
}

// GetInitialReconnectDelay returns the configured reconnect delay, for testing.
func (sp *StreamProcessor) GetInitialReconnectDelay() time.Duration {
	return sp.initialReconnectDelay
}
