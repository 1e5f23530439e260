package ldevents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

func TestOutboxBuffersEventsUpToCapacity(t *testing.T) {
	o := newEventsOutbox(2, ldlog.NewDefaultLoggers())
	o.addEvent(IdentifyEvent{})
	o.addEvent(IdentifyEvent{})
	assert.Len(t, o.getEvents(), 2)
	assert.Equal(t, 0, o.getAndClearDroppedCount())
}

func TestOutboxDropsEventsBeyondCapacity(t *testing.T) {
	o := newEventsOutbox(2, ldlog.NewDefaultLoggers())
	o.addEvent(IdentifyEvent{})
	o.addEvent(IdentifyEvent{})
	o.addEvent(IdentifyEvent{}) // dropped
	o.addEvent(IdentifyEvent{}) // dropped

	assert.Len(t, o.getEvents(), 2)
	assert.Equal(t, 2, o.getAndClearDroppedCount())
}

func TestOutboxDroppedCountResetsAfterRead(t *testing.T) {
	o := newEventsOutbox(1, ldlog.NewDefaultLoggers())
	o.addEvent(IdentifyEvent{})
	o.addEvent(IdentifyEvent{}) // dropped

	assert.Equal(t, 1, o.getAndClearDroppedCount())
	assert.Equal(t, 0, o.getAndClearDroppedCount())
}

func TestOutboxClearEmptiesBufferAndRearmsWarning(t *testing.T) {
	o := newEventsOutbox(1, ldlog.NewDefaultLoggers())
	o.addEvent(IdentifyEvent{})
	o.addEvent(IdentifyEvent{}) // triggers capacity warning
	assert.True(t, o.capacityLog)

	o.clear()
	assert.Empty(t, o.getEvents())
	assert.False(t, o.capacityLog)
}
