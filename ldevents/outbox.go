package ldevents

import "github.com/launchdarkly/go-server-sdk-sub010/ldlog"

// eventsOutbox is a bounded FIFO buffer of not-yet-flushed events. Once it reaches its configured
// capacity, further events are dropped and a single warning is logged per overflow episode (the
// warning resets the next time the buffer successfully drains below capacity).
type eventsOutbox struct {
	capacity     int
	events       []Event
	capacityLog  bool
	loggers      ldlog.Loggers
	droppedCount int
}

func newEventsOutbox(capacity int, loggers ldlog.Loggers) *eventsOutbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &eventsOutbox{
		capacity: capacity,
		events:   make([]Event, 0, capacity),
		loggers:  loggers,
	}
}

func (o *eventsOutbox) addEvent(evt Event) {
	if len(o.events) >= o.capacity {
		o.droppedCount++
		if !o.capacityLog {
			o.loggers.Warnf("Exceeded event queue capacity of %d. Increase capacity to avoid dropping events.", o.capacity)
			o.capacityLog = true
		}
		return
	}
	o.events = append(o.events, evt)
}

// getEvents returns (without clearing) the currently buffered events.
func (o *eventsOutbox) getEvents() []Event {
	return o.events
}

// clear empties the buffer and re-arms the overflow warning.
func (o *eventsOutbox) clear() {
	o.events = make([]Event, 0, o.capacity)
	o.capacityLog = false
}

func (o *eventsOutbox) getAndClearDroppedCount() int {
	n := o.droppedCount
	o.droppedCount = 0
	return n
}
