package ldcomponents

import (
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
)

// DefaultBigSegmentsContextCacheSize is the default number of contexts whose big segment
// membership state is cached in memory.
const DefaultBigSegmentsContextCacheSize = 1000

// DefaultBigSegmentsContextCacheTime is the default TTL for a cached context's membership state.
const DefaultBigSegmentsContextCacheTime = 5 * time.Second

// DefaultBigSegmentsStatusPollInterval is the default interval for polling the big segment
// store's metadata to detect staleness.
const DefaultBigSegmentsStatusPollInterval = 5 * time.Second

// DefaultBigSegmentsStaleAfter is the default duration after which the big segment store's last
// synchronization time is considered stale.
const DefaultBigSegmentsStaleAfter = 2 * time.Minute

// BigSegmentsConfigurationBuilder configures the SDK's big segments behavior.
//
// Big segments are a specialized type of segment, backed by a separate externally-populated
// store, used for targeting large numbers of contexts. This builder is used in conjunction with
// an interfaces.BigSegmentStoreFactory provided by a database integration:
//
//	config := ld.Config{
//	    BigSegments: ldcomponents.BigSegments(myStoreFactory).StaleAfter(time.Minute),
//	}
type BigSegmentsConfigurationBuilder struct {
	storeFactory       interfaces.BigSegmentStoreFactory
	contextCacheSize   int
	contextCacheTime   time.Duration
	statusPollInterval time.Duration
	staleAfter         time.Duration
}

// BigSegments returns a configurable factory for big segments support.
func BigSegments(storeFactory interfaces.BigSegmentStoreFactory) *BigSegmentsConfigurationBuilder {
	return &BigSegmentsConfigurationBuilder{
		storeFactory:       storeFactory,
		contextCacheSize:   DefaultBigSegmentsContextCacheSize,
		contextCacheTime:   DefaultBigSegmentsContextCacheTime,
		statusPollInterval: DefaultBigSegmentsStatusPollInterval,
		staleAfter:         DefaultBigSegmentsStaleAfter,
	}
}

// ContextCacheSize sets the maximum number of contexts whose big segment state is cached.
func (b *BigSegmentsConfigurationBuilder) ContextCacheSize(size int) *BigSegmentsConfigurationBuilder {
	b.contextCacheSize = size
	return b
}

// ContextCacheTime sets the TTL for a cached context's membership state.
func (b *BigSegmentsConfigurationBuilder) ContextCacheTime(t time.Duration) *BigSegmentsConfigurationBuilder {
	b.contextCacheTime = t
	return b
}

// StatusPollInterval sets how often the SDK polls the store for its overall sync status.
func (b *BigSegmentsConfigurationBuilder) StatusPollInterval(interval time.Duration) *BigSegmentsConfigurationBuilder {
	if interval <= 0 {
		b.statusPollInterval = DefaultBigSegmentsStatusPollInterval
	} else {
		b.statusPollInterval = interval
	}
	return b
}

// StaleAfter sets how long since the last synchronization before the store is considered stale.
func (b *BigSegmentsConfigurationBuilder) StaleAfter(t time.Duration) *BigSegmentsConfigurationBuilder {
	b.staleAfter = t
	return b
}

// CreateBigSegmentsConfiguration is called internally by the SDK.
func (b *BigSegmentsConfigurationBuilder) CreateBigSegmentsConfiguration(
	context interfaces.ClientContext,
) (interfaces.BigSegmentsConfiguration, error) {
	store, err := b.storeFactory.CreateBigSegmentStore(context)
	if err != nil {
		return interfaces.BigSegmentsConfiguration{}, err
	}
	return interfaces.BigSegmentsConfiguration{
		Store:              store,
		ContextCacheSize:   b.contextCacheSize,
		ContextCacheTime:   b.contextCacheTime,
		StatusPollInterval: b.statusPollInterval,
		StaleAfter:         b.staleAfter,
	}, nil
}
