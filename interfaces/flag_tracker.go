package interfaces

import "github.com/launchdarkly/go-server-sdk-sub010/ldcontext"

// FlagChangeEvent is sent to subscribers of FlagTracker.AddFlagChangeListener whenever a flag's
// configuration has changed in a way that could change its evaluation result, including
// transitive changes via a prerequisite or a referenced segment.
type FlagChangeEvent struct {
	Key string
}

// FlagValueChangeEvent is sent to subscribers registered via
// FlagTracker.AddFlagValueChangeListener whenever the evaluated value of a specific
// (flag, context) pair changes.
type FlagValueChangeEvent struct {
	Key      string
	OldValue interface{}
	NewValue interface{}
}

// FlagTracker is the interface for the object returned by LDClient.GetFlagTracker(), which allows
// application code to request notifications about feature flag changes.
type FlagTracker interface {
	// AddFlagChangeListener subscribes to notification of feature flag changes in general.
	AddFlagChangeListener() <-chan FlagChangeEvent

	// RemoveFlagChangeListener unsubscribes a channel previously returned by
	// AddFlagChangeListener.
	RemoveFlagChangeListener(<-chan FlagChangeEvent)

	// AddFlagValueChangeListener subscribes to notifications of a change in the evaluated value
	// for a specific flag and context. The current value is evaluated immediately on
	// registration (via the eval function supplied at construction) so the first delta reported
	// is relative to that initial value, not to some earlier unseen state.
	AddFlagValueChangeListener(key string, context ldcontext.Context, defaultValue interface{}) <-chan FlagValueChangeEvent

	// RemoveFlagValueChangeListener unsubscribes a channel previously returned by
	// AddFlagValueChangeListener.
	RemoveFlagValueChangeListener(<-chan FlagValueChangeEvent)
}
