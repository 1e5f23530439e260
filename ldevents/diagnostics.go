package ldevents

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

type diagnosticStreamInitInfo struct {
	timestamp      ldtime.UnixMillisecondTime
	failed         bool
	durationMillis uint64
}

// DiagnosticsManager maintains state for diagnostic events and produces their (intentionally
// opaque, subject-to-change) JSON representation. One instance lives for the lifetime of an
// LDClient and is shared with the event dispatcher that actually sends the events it builds.
type DiagnosticsManager struct {
	id            ldvalue.Value
	configData    ldvalue.Value
	sdkData       ldvalue.Value
	startTime     ldtime.UnixMillisecondTime
	dataSinceTime ldtime.UnixMillisecondTime
	streamInits   []diagnosticStreamInitInfo
	lock          sync.Mutex
}

// NewDiagnosticID creates a unique identifier for one SDK instance, combining a random UUID with
// the last six characters of the SDK key so that diagnostic events from the same key can be
// correlated without the full key being transmitted.
func NewDiagnosticID(sdkKey string) ldvalue.Value {
	id, _ := uuid.NewRandom()
	suffix := sdkKey
	if len(sdkKey) > 6 {
		suffix = sdkKey[len(sdkKey)-6:]
	}
	return ldvalue.ObjectBuild().
		Set("diagnosticId", ldvalue.String(id.String())).
		Set("sdkKeySuffix", ldvalue.String(suffix)).
		Build()
}

// NewDiagnosticsManager creates a DiagnosticsManager.
func NewDiagnosticsManager(
	id ldvalue.Value,
	configData ldvalue.Value,
	sdkData ldvalue.Value,
	startTime time.Time,
) *DiagnosticsManager {
	timestamp := ldtime.UnixMillisFromTime(startTime)
	return &DiagnosticsManager{
		id:            id,
		configData:    configData,
		sdkData:       sdkData,
		startTime:     timestamp,
		dataSinceTime: timestamp,
	}
}

// RecordStreamInit is called by the streaming data source whenever a stream connection attempt
// succeeds or fails, so the next periodic event can report on connection reliability.
func (m *DiagnosticsManager) RecordStreamInit(timestamp ldtime.UnixMillisecondTime, failed bool, durationMillis uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.streamInits = append(m.streamInits, diagnosticStreamInitInfo{
		timestamp:      timestamp,
		failed:         failed,
		durationMillis: durationMillis,
	})
}

// CreateInitEvent builds the one-time "diagnostic-init" event sent shortly after client startup.
func (m *DiagnosticsManager) CreateInitEvent() ldvalue.Value {
	platformData := ldvalue.ObjectBuild().
		Set("name", ldvalue.String("Go")).
		Set("goVersion", ldvalue.String(runtime.Version())).
		Set("osName", ldvalue.String(normalizeOSName(runtime.GOOS))).
		Set("osArch", ldvalue.String(runtime.GOARCH)).
		Build()
	return ldvalue.ObjectBuild().
		Set("kind", ldvalue.String("diagnostic-init")).
		Set("id", m.id).
		Set("creationDate", ldvalue.Float64(float64(m.startTime))).
		Set("sdk", m.sdkData).
		Set("configuration", m.configData).
		Set("platform", platformData).
		Build()
}

// CreateStatsEventAndReset builds the periodic "diagnostic" event and resets the counters it
// reports on (stream-init history and the data-since timestamp). The dispatcher owns the dropped-
// event and deduplicated-context counts since it can track them without needing this manager's
// lock on every single event.
func (m *DiagnosticsManager) CreateStatsEventAndReset(droppedEvents int, deduplicatedContexts int, eventsInLastBatch int) ldvalue.Value {
	m.lock.Lock()
	defer m.lock.Unlock()
	timestamp := ldtime.UnixMillisNow()
	streamInitsBuilder := ldvalue.ArrayBuildWithCapacity(len(m.streamInits))
	for _, si := range m.streamInits {
		streamInitsBuilder.Add(ldvalue.ObjectBuild().
			Set("timestamp", ldvalue.Float64(float64(si.timestamp))).
			Set("failed", ldvalue.Bool(si.failed)).
			Set("durationMillis", ldvalue.Float64(float64(si.durationMillis))).
			Build())
	}
	event := ldvalue.ObjectBuild().
		Set("kind", ldvalue.String("diagnostic")).
		Set("id", m.id).
		Set("creationDate", ldvalue.Float64(float64(timestamp))).
		Set("dataSinceDate", ldvalue.Float64(float64(m.dataSinceTime))).
		Set("droppedEvents", ldvalue.Int(droppedEvents)).
		Set("deduplicatedContexts", ldvalue.Int(deduplicatedContexts)).
		Set("eventsInLastBatch", ldvalue.Int(eventsInLastBatch)).
		Set("streamInits", streamInitsBuilder.Build()).
		Build()
	m.streamInits = nil
	m.dataSinceTime = timestamp
	return event
}

func normalizeOSName(osName string) string {
	switch osName {
	case "darwin":
		return "MacOS"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	}
	return osName
}
