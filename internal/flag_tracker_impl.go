package internal

import (
	"sync"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// flagTrackerImpl is the internal implementation of FlagTracker.
//
// The underlying FlagChangeEventBroadcaster receives notifications of flag changes in general.
// When a value change listener is created with AddFlagValueChangeListener, this is implemented by
// creating a regular FlagChangeEvent channel and starting a goroutine that reads it and posts
// events as appropriate to a FlagValueChangeEvent channel; flagTrackerImpl keeps its own mapping
// from the value-change channel back to the underlying one, which is needed to unregister it.
type flagTrackerImpl struct {
	broadcaster              *FlagChangeEventBroadcaster
	evaluateFn               func(string, ldcontext.Context, ldvalue.Value) ldvalue.Value
	valueChangeSubscriptions map[<-chan interfaces.FlagValueChangeEvent]<-chan interfaces.FlagChangeEvent
	lock                     sync.Mutex
}

// NewFlagTrackerImpl creates the internal implementation of FlagTracker. evaluateFn is normally the
// client's own untracked JSON-variation evaluation path.
func NewFlagTrackerImpl(
	broadcaster *FlagChangeEventBroadcaster,
	evaluateFn func(flagKey string, context ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value,
) interfaces.FlagTracker {
	return &flagTrackerImpl{
		broadcaster:              broadcaster,
		evaluateFn:               evaluateFn,
		valueChangeSubscriptions: make(map[<-chan interfaces.FlagValueChangeEvent]<-chan interfaces.FlagChangeEvent),
	}
}

func (f *flagTrackerImpl) AddFlagChangeListener() <-chan interfaces.FlagChangeEvent {
	return f.broadcaster.AddListener()
}

func (f *flagTrackerImpl) RemoveFlagChangeListener(listener <-chan interfaces.FlagChangeEvent) {
	f.broadcaster.RemoveListener(listener)
}

func (f *flagTrackerImpl) AddFlagValueChangeListener(
	flagKey string,
	context ldcontext.Context,
	defaultValue interface{},
) <-chan interfaces.FlagValueChangeEvent {
	valueCh := make(chan interfaces.FlagValueChangeEvent, subscriberChannelBufferLength)
	flagCh := f.broadcaster.AddListener()
	go runValueChangeListener(flagCh, valueCh, f.evaluateFn, flagKey, context, ldvalue.FromInterface(defaultValue))

	f.lock.Lock()
	f.valueChangeSubscriptions[valueCh] = flagCh
	f.lock.Unlock()

	return valueCh
}

func (f *flagTrackerImpl) RemoveFlagValueChangeListener(listener <-chan interfaces.FlagValueChangeEvent) {
	f.lock.Lock()
	flagCh, ok := f.valueChangeSubscriptions[listener]
	delete(f.valueChangeSubscriptions, listener)
	f.lock.Unlock()

	if ok {
		f.broadcaster.RemoveListener(flagCh)
	}
}

func runValueChangeListener(
	flagCh <-chan interfaces.FlagChangeEvent,
	valueCh chan<- interfaces.FlagValueChangeEvent,
	evaluateFn func(flagKey string, context ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value,
	flagKey string,
	context ldcontext.Context,
	defaultValue ldvalue.Value,
) {
	currentValue := evaluateFn(flagKey, context, defaultValue)
	for {
		flagChange, ok := <-flagCh
		if !ok {
			close(valueCh)
			return
		}
		if flagChange.Key != flagKey {
			continue
		}
		newValue := evaluateFn(flagKey, context, defaultValue)
		if newValue.Equal(currentValue) {
			continue
		}
		event := interfaces.FlagValueChangeEvent{
			Key:      flagKey,
			OldValue: currentValue.AsArbitraryValue(),
			NewValue: newValue.AsArbitraryValue(),
		}
		currentValue = newValue
		valueCh <- event
	}
}
