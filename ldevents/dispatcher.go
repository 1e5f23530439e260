package ldevents

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

type defaultEventProcessor struct {
	inboxCh       chan eventDispatcherMessage
	inboxFullOnce sync.Once
	closeOnce     sync.Once
	loggers       ldlog.Loggers
}

type eventDispatcher struct {
	config             EventsConfiguration
	outbox             *eventsOutbox
	summarizer         eventSummarizer
	flushCh            chan *flushPayload
	workersGroup       *sync.WaitGroup
	contextKeys        *contextKeyCache
	lastKnownPastTime  ldtime.UnixMillisecondTime
	deduplicatedCtxs   int
	eventsInLastBatch  int
	disabled           bool
	currentTimestampFn func() ldtime.UnixMillisecondTime
	stateLock          sync.Mutex
}

type flushPayload struct {
	diagnosticEvent ldvalue.Value
	events          []Event
	summary         eventSummary
}

// eventDispatcherMessage is the payload type carried on the inbox channel.
type eventDispatcherMessage interface{}

type sendEventMessage struct {
	event Event
}

type flushEventsMessage struct{}

type shutdownEventsMessage struct {
	replyCh chan struct{}
}

type syncEventsMessage struct {
	replyCh chan struct{}
}

// NewDefaultEventProcessor creates the standard asynchronous EventProcessor: a single dispatcher
// goroutine owns all dedup/summarization state, backed by a bounded pool of flush workers that
// perform the actual HTTP delivery so a slow network call never blocks evaluation.
func NewDefaultEventProcessor(config EventsConfiguration) EventProcessor {
	inboxCh := make(chan eventDispatcherMessage, config.Capacity)
	startEventDispatcher(config, inboxCh)
	return &defaultEventProcessor{
		inboxCh: inboxCh,
		loggers: config.Loggers,
	}
}

func (ep *defaultEventProcessor) SendEvent(e Event) {
	ep.postNonBlockingMessageToInbox(sendEventMessage{event: e})
}

func (ep *defaultEventProcessor) Flush() {
	ep.postNonBlockingMessageToInbox(flushEventsMessage{})
}

func (ep *defaultEventProcessor) postNonBlockingMessageToInbox(e eventDispatcherMessage) {
	select {
	case ep.inboxCh <- e:
		return
	default:
	}
	// If the inbox is full, the dispatcher is seriously backed up. Blocking here would risk a
	// serious slowdown of the calling application, so the event is dropped instead; the warning
	// about this is logged only once.
	ep.inboxFullOnce.Do(func() {
		ep.loggers.Warn("Events are being produced faster than they can be processed; some events will be dropped")
	})
}

func (ep *defaultEventProcessor) Close() error {
	ep.closeOnce.Do(func() {
		ep.inboxCh <- flushEventsMessage{}
		m := shutdownEventsMessage{replyCh: make(chan struct{})}
		ep.inboxCh <- m
		<-m.replyCh
	})
	return nil
}

func startEventDispatcher(config EventsConfiguration, inboxCh <-chan eventDispatcherMessage) {
	ed := &eventDispatcher{
		config:             config,
		outbox:             newEventsOutbox(config.Capacity, config.Loggers),
		summarizer:         newEventSummarizer(),
		flushCh:            make(chan *flushPayload, 1),
		workersGroup:       &sync.WaitGroup{},
		contextKeys:        newContextKeyCache(config.ContextKeysCapacity),
		currentTimestampFn: config.currentTimeProvider,
	}
	if ed.currentTimestampFn == nil {
		ed.currentTimestampFn = ldtime.UnixMillisNow
	}

	for i := 0; i < maxFlushWorkers; i++ {
		go runFlushTask(config, ed.flushCh, ed.workersGroup, ed.handleResult)
	}

	if config.DiagnosticsManager != nil {
		ed.sendDiagnosticsEvent(config.DiagnosticsManager.CreateInitEvent())
	}

	go ed.runMainLoop(inboxCh)
}

func (ed *eventDispatcher) runMainLoop(inboxCh <-chan eventDispatcherMessage) {
	defer func() {
		if err := recover(); err != nil {
			ed.config.Loggers.Errorf("Unexpected panic in event processing thread: %+v", err)
		}
	}()

	flushInterval := ed.config.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	contextKeysFlushInterval := ed.config.ContextKeysFlushInterval
	if contextKeysFlushInterval <= 0 {
		contextKeysFlushInterval = DefaultContextKeysFlushInterval
	}
	flushTicker := time.NewTicker(flushInterval)
	contextKeysResetTicker := time.NewTicker(contextKeysFlushInterval)

	var diagnosticsTicker *time.Ticker
	var diagnosticsTickerCh <-chan time.Time
	diagnosticsManager := ed.config.DiagnosticsManager
	if diagnosticsManager != nil {
		interval := ed.config.DiagnosticRecordingInterval
		switch {
		case interval > 0 && interval >= MinimumDiagnosticRecordingInterval:
			// use as configured
		case ed.config.forceDiagnosticRecordingInterval > 0:
			interval = ed.config.forceDiagnosticRecordingInterval
		default:
			interval = DefaultDiagnosticRecordingInterval
		}
		diagnosticsTicker = time.NewTicker(interval)
		diagnosticsTickerCh = diagnosticsTicker.C
	}

	for {
		select {
		case message := <-inboxCh:
			switch m := message.(type) {
			case sendEventMessage:
				ed.processEvent(m.event)
			case flushEventsMessage:
				ed.triggerFlush()
			case syncEventsMessage:
				ed.workersGroup.Wait()
				m.replyCh <- struct{}{}
			case shutdownEventsMessage:
				flushTicker.Stop()
				contextKeysResetTicker.Stop()
				if diagnosticsTicker != nil {
					diagnosticsTicker.Stop()
				}
				ed.workersGroup.Wait()
				close(ed.flushCh)
				m.replyCh <- struct{}{}
				return
			}
		case <-flushTicker.C:
			ed.triggerFlush()
		case <-contextKeysResetTicker.C:
			ed.contextKeys.clear()
		case <-diagnosticsTickerCh:
			if diagnosticsManager == nil {
				break
			}
			dropped := ed.outbox.getAndClearDroppedCount()
			event := diagnosticsManager.CreateStatsEventAndReset(dropped, ed.deduplicatedCtxs, ed.eventsInLastBatch)
			ed.deduplicatedCtxs = 0
			ed.eventsInLastBatch = 0
			ed.sendDiagnosticsEvent(event)
		}
	}
}

// processEvent applies the dedup/tracking/debug rules: every feature-request event
// updates the running summary; a context not seen since the last reset gets a one-time index event
// ahead of it (unless the event will already carry an inline context); a flag evaluation is only
// added to the event payload in full if it has tracking enabled, and a separate debug copy is added
// if the flag's debug window is still open.
func (ed *eventDispatcher) processEvent(evt Event) {
	ed.summarizer.summarizeEvent(evt)

	willAddFullEvent := true
	var debugEvent Event
	inlineContext := ed.config.InlineContextsInEvents

	switch e := evt.(type) {
	case FeatureRequestEvent:
		willAddFullEvent = e.TrackEvents
		if ed.shouldDebugEvent(&e) {
			de := e
			de.Debug = true
			debugEvent = de
		}
	case IdentifyEvent:
		inlineContext = true
	}

	context := evt.GetBase().Context
	alreadySeen := ed.contextKeys.add(context.FullyQualifiedKey())
	if !(willAddFullEvent && inlineContext) {
		if alreadySeen {
			ed.deduplicatedCtxs++
		} else if !allContextKindsAnonymous(context) {
			ed.outbox.addEvent(IndexEvent{BaseEvent{CreationDate: evt.GetBase().CreationDate, Context: context}})
		}
	}
	if willAddFullEvent {
		ed.outbox.addEvent(evt)
	}
	if debugEvent != nil {
		ed.outbox.addEvent(debugEvent)
	}
}

// allContextKindsAnonymous reports whether every individual context in this (possibly multi-kind)
// context is anonymous, in which case no index event is emitted for it.
func allContextKindsAnonymous(c ldcontext.Context) bool {
	for i := 0; i < c.IndividualContextCount(); i++ {
		if single, ok := c.IndividualContextByIndex(i); ok && !single.IsAnonymous() {
			return false
		}
	}
	return true
}

func (ed *eventDispatcher) shouldDebugEvent(evt *FeatureRequestEvent) bool {
	if evt.DebugEventsUntilDate == 0 {
		return false
	}
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	return evt.DebugEventsUntilDate > ed.lastKnownPastTime && evt.DebugEventsUntilDate > ed.currentTimestampFn()
}

func (ed *eventDispatcher) triggerFlush() {
	if ed.isDisabled() {
		ed.outbox.clear()
		ed.summarizer.reset()
		return
	}
	payload := flushPayload{events: ed.outbox.getEvents(), summary: ed.summarizer.snapshot()}
	totalEventCount := len(payload.events)
	if len(payload.summary.counters) > 0 {
		totalEventCount++
	}
	if totalEventCount == 0 {
		ed.eventsInLastBatch = 0
		return
	}
	ed.workersGroup.Add(1)
	select {
	case ed.flushCh <- &payload:
		ed.eventsInLastBatch = totalEventCount
		ed.outbox.clear()
		ed.summarizer.reset()
	default:
		// A flush worker is still draining the last payload; don't clear state, just skip this tick.
		ed.workersGroup.Done()
	}
}

func (ed *eventDispatcher) isDisabled() bool {
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	return ed.disabled
}

func (ed *eventDispatcher) handleResult(result EventSenderResult) {
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	if result.MustShutDown {
		ed.disabled = true
	} else if result.TimeFromServer > 0 {
		ed.lastKnownPastTime = result.TimeFromServer
	}
}

func (ed *eventDispatcher) sendDiagnosticsEvent(event ldvalue.Value) {
	payload := flushPayload{diagnosticEvent: event}
	ed.workersGroup.Add(1)
	select {
	case ed.flushCh <- &payload:
	default:
		// Diagnostics are nonessential; drop rather than apply backpressure.
		ed.workersGroup.Done()
	}
}

func runFlushTask(
	config EventsConfiguration,
	flushCh <-chan *flushPayload,
	workersGroup *sync.WaitGroup,
	resultFn func(EventSenderResult),
) {
	formatter := newEventOutputFormatter(config)
	for payload := range flushCh {
		if !payload.diagnosticEvent.IsNull() {
			data, err := json.Marshal(payload.diagnosticEvent)
			if err != nil {
				config.Loggers.Errorf("Unexpected error marshalling diagnostic event: %+v", err)
			} else {
				_ = config.EventSender.SendEventData(DiagnosticEventDataKind, data, 1)
			}
		} else {
			outputEvents := formatter.makeOutputEvents(payload.events, payload.summary)
			if len(outputEvents) > 0 {
				data, err := json.Marshal(outputEvents)
				if err != nil {
					config.Loggers.Errorf("Unexpected error marshalling event JSON: %+v", err)
				} else {
					resultFn(config.EventSender.SendEventData(AnalyticsEventDataKind, data, len(outputEvents)))
				}
			}
		}
		workersGroup.Done()
	}
}
