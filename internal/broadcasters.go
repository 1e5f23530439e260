// Package internal holds the built-in component implementations wired together by the root
// client package: the in-memory and persistent-backed data stores, the streaming/polling data
// sources, the big segment manager, dependency tracking for flag-change notification, and the
// publish-subscribe broadcasters each status provider is built on.
package internal

import (
	"sync"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
)

// subscriberChannelBufferLength is an arbitrary buffer size that makes it unlikely a broadcast
// will block; it is still the consumer's responsibility to drain its channel.
const subscriberChannelBufferLength = 10

// DataStoreStatusBroadcaster implements publish-subscribe for DataStoreStatus values.
type DataStoreStatusBroadcaster struct {
	subscribers []chan interfaces.DataStoreStatus
	lock        sync.Mutex
}

// NewDataStoreStatusBroadcaster creates a DataStoreStatusBroadcaster.
func NewDataStoreStatusBroadcaster() *DataStoreStatusBroadcaster {
	return &DataStoreStatusBroadcaster{}
}

// AddListener creates a new subscriber channel.
func (b *DataStoreStatusBroadcaster) AddListener() <-chan interfaces.DataStoreStatus {
	ch := make(chan interfaces.DataStoreStatus, subscriberChannelBufferLength)
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// RemoveListener unregisters and closes a subscriber channel.
func (b *DataStoreStatusBroadcaster) RemoveListener(ch <-chan interfaces.DataStoreStatus) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(s)
			break
		}
	}
}

// Broadcast sends a value to every current subscriber.
func (b *DataStoreStatusBroadcaster) Broadcast(value interfaces.DataStoreStatus) {
	b.lock.Lock()
	ss := make([]chan interfaces.DataStoreStatus, len(b.subscribers))
	copy(ss, b.subscribers)
	b.lock.Unlock()
	for _, ch := range ss {
		ch <- value
	}
}

// Close closes every currently registered subscriber channel.
func (b *DataStoreStatusBroadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
}

// DataSourceStatusBroadcaster implements publish-subscribe for DataSourceStatus values.
type DataSourceStatusBroadcaster struct {
	subscribers []chan interfaces.DataSourceStatus
	lock        sync.Mutex
}

// NewDataSourceStatusBroadcaster creates a DataSourceStatusBroadcaster.
func NewDataSourceStatusBroadcaster() *DataSourceStatusBroadcaster {
	return &DataSourceStatusBroadcaster{}
}

// AddListener creates a new subscriber channel.
func (b *DataSourceStatusBroadcaster) AddListener() <-chan interfaces.DataSourceStatus {
	ch := make(chan interfaces.DataSourceStatus, subscriberChannelBufferLength)
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// RemoveListener unregisters and closes a subscriber channel.
func (b *DataSourceStatusBroadcaster) RemoveListener(ch <-chan interfaces.DataSourceStatus) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(s)
			break
		}
	}
}

// Broadcast sends a value to every current subscriber.
func (b *DataSourceStatusBroadcaster) Broadcast(value interfaces.DataSourceStatus) {
	b.lock.Lock()
	ss := make([]chan interfaces.DataSourceStatus, len(b.subscribers))
	copy(ss, b.subscribers)
	b.lock.Unlock()
	for _, ch := range ss {
		ch <- value
	}
}

// Close closes every currently registered subscriber channel.
func (b *DataSourceStatusBroadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
}

// FlagChangeEventBroadcaster implements publish-subscribe for FlagChangeEvent values.
type FlagChangeEventBroadcaster struct {
	subscribers []chan interfaces.FlagChangeEvent
	lock        sync.Mutex
}

// NewFlagChangeEventBroadcaster creates a FlagChangeEventBroadcaster.
func NewFlagChangeEventBroadcaster() *FlagChangeEventBroadcaster {
	return &FlagChangeEventBroadcaster{}
}

// AddListener creates a new subscriber channel.
func (b *FlagChangeEventBroadcaster) AddListener() <-chan interfaces.FlagChangeEvent {
	ch := make(chan interfaces.FlagChangeEvent, subscriberChannelBufferLength)
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// RemoveListener unregisters and closes a subscriber channel.
func (b *FlagChangeEventBroadcaster) RemoveListener(ch <-chan interfaces.FlagChangeEvent) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(s)
			break
		}
	}
}

// HasListeners reports whether any listener is currently registered.
func (b *FlagChangeEventBroadcaster) HasListeners() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subscribers) > 0
}

// Broadcast sends a value to every current subscriber.
func (b *FlagChangeEventBroadcaster) Broadcast(value interfaces.FlagChangeEvent) {
	b.lock.Lock()
	ss := make([]chan interfaces.FlagChangeEvent, len(b.subscribers))
	copy(ss, b.subscribers)
	b.lock.Unlock()
	for _, ch := range ss {
		ch <- value
	}
}

// Close closes every currently registered subscriber channel.
func (b *FlagChangeEventBroadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
}

// BigSegmentStoreStatusBroadcaster implements publish-subscribe for BigSegmentsStatus values.
type BigSegmentStoreStatusBroadcaster struct {
	subscribers []chan interfaces.BigSegmentsStatus
	lock        sync.Mutex
}

// NewBigSegmentStoreStatusBroadcaster creates a BigSegmentStoreStatusBroadcaster.
func NewBigSegmentStoreStatusBroadcaster() *BigSegmentStoreStatusBroadcaster {
	return &BigSegmentStoreStatusBroadcaster{}
}

// AddListener creates a new subscriber channel.
func (b *BigSegmentStoreStatusBroadcaster) AddListener() <-chan interfaces.BigSegmentsStatus {
	ch := make(chan interfaces.BigSegmentsStatus, subscriberChannelBufferLength)
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// RemoveListener unregisters and closes a subscriber channel.
func (b *BigSegmentStoreStatusBroadcaster) RemoveListener(ch <-chan interfaces.BigSegmentsStatus) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(s)
			break
		}
	}
}

// Broadcast sends a value to every current subscriber.
func (b *BigSegmentStoreStatusBroadcaster) Broadcast(value interfaces.BigSegmentsStatus) {
	b.lock.Lock()
	ss := make([]chan interfaces.BigSegmentsStatus, len(b.subscribers))
	copy(ss, b.subscribers)
	b.lock.Unlock()
	for _, ch := range ss {
		ch <- value
	}
}

// Close closes every currently registered subscriber channel.
func (b *BigSegmentStoreStatusBroadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
}
