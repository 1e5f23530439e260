package internal

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldeval"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
)

// bigSegmentStoreManager owns the query path to a BigSegmentStore: it hashes context keys,
// caches per-context membership so that repeated evaluations for the same context don't hit the
// store, and polls the store's metadata in the background to detect staleness relative to the
// Relay Proxy's last sync.
//
// It implements ldeval.BigSegmentProvider directly so it can be passed straight to
// ldeval.NewEvaluator.
type bigSegmentStoreManager struct {
	store       interfaces.BigSegmentStore
	cache       *lru.Cache
	cacheTTL    time.Duration
	staleAfter  time.Duration
	broadcaster *BigSegmentStoreStatusBroadcaster
	loggers     ldlog.Loggers
	lastStatus  interfaces.BigSegmentsStatus
	haveStatus  bool
	pollCloser  chan struct{}
	closeOnce   sync.Once
	lock        sync.Mutex
}

type cachedMembership struct {
	membership interfaces.BigSegmentMembership
	expiresAt  time.Time
}

// NewBigSegmentStoreManager creates and starts the manager, including its metadata-polling loop.
// Callers must always Close it when done.
func NewBigSegmentStoreManager(
	config interfaces.BigSegmentsConfiguration,
	broadcaster *BigSegmentStoreStatusBroadcaster,
	loggers ldlog.Loggers,
) *bigSegmentStoreManager {
	cacheSize := config.ContextCacheSize
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	cache, _ := lru.New(cacheSize)

	m := &bigSegmentStoreManager{
		store:       config.Store,
		cache:       cache,
		cacheTTL:    config.ContextCacheTime,
		staleAfter:  config.StaleAfter,
		broadcaster: broadcaster,
		loggers:     loggers,
		pollCloser:  make(chan struct{}),
	}

	pollInterval := config.StatusPollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	go m.pollMetadata(pollInterval)

	return m
}

// GetBigSegmentMembership implements ldeval.BigSegmentProvider.
func (m *bigSegmentStoreManager) GetBigSegmentMembership(
	contextKey string,
) (ldeval.BigSegmentMembership, ldreason.BigSegmentsStatus) {
	if m.store == nil {
		return nil, ldreason.BigSegmentsNotConfigured
	}

	hash := hashForContextKey(contextKey)

	if cached, ok := m.cache.Get(hash); ok {
		entry := cached.(cachedMembership)
		if m.cacheTTL <= 0 || time.Now().Before(entry.expiresAt) {
			return membershipAdapter{entry.membership}, m.currentStatus()
		}
		m.cache.Remove(hash)
	}

	membership, err := m.store.GetMembership(hash)
	if err != nil {
		m.loggers.Errorf("Big segment store query returned error: %s", err)
		return nil, ldreason.BigSegmentsStoreError
	}

	m.cache.Add(hash, cachedMembership{membership: membership, expiresAt: time.Now().Add(m.cacheTTL)})
	return membershipAdapter{membership}, m.currentStatus()
}

// GetStatus returns the last polled availability/staleness status.
func (m *bigSegmentStoreManager) GetStatus() interfaces.BigSegmentsStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.lastStatus
}

// Close stops the polling loop. The underlying BigSegmentStore is owned by its factory, not by
// this manager, so it is not closed here.
func (m *bigSegmentStoreManager) Close() {
	m.closeOnce.Do(func() {
		close(m.pollCloser)
	})
}

func (m *bigSegmentStoreManager) currentStatus() ldreason.BigSegmentsStatus {
	status := m.GetStatus()
	switch {
	case !status.Available:
		return ldreason.BigSegmentsStoreError
	case status.Stale:
		return ldreason.BigSegmentsStale
	default:
		return ldreason.BigSegmentsHealthy
	}
}

func (m *bigSegmentStoreManager) pollMetadata(interval time.Duration) {
	m.updateStatus()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.updateStatus()
		case <-m.pollCloser:
			return
		}
	}
}

func (m *bigSegmentStoreManager) updateStatus() {
	metadata, err := m.store.GetMetadata()
	newStatus := interfaces.BigSegmentsStatus{}
	if err != nil {
		m.loggers.Warnf("Big segment store status query returned error: %s", err)
		newStatus.Available = false
	} else {
		newStatus.Available = true
		newStatus.Stale = m.staleAfter > 0 && time.Since(metadata.LastUpToDate) > m.staleAfter
	}

	m.lock.Lock()
	changed := !m.haveStatus || newStatus != m.lastStatus
	m.lastStatus = newStatus
	m.haveStatus = true
	m.lock.Unlock()

	if changed {
		m.broadcaster.Broadcast(newStatus)
	}
}

func hashForContextKey(contextKey string) string {
	sum := sha256.Sum256([]byte(contextKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// membershipAdapter bridges the store-facing interfaces.BigSegmentMembership (a plain map) to the
// evaluator-facing ldeval.BigSegmentMembership interface.
type membershipAdapter struct {
	raw interfaces.BigSegmentMembership
}

func (a membershipAdapter) CheckMembership(segmentRef string) (bool, bool) {
	if a.raw == nil {
		return false, false
	}
	included, found := a.raw[segmentRef]
	return included, found
}

// bigSegmentStoreStatusProviderImpl is the internal implementation of BigSegmentStoreStatusProvider.
type bigSegmentStoreStatusProviderImpl struct {
	manager     *bigSegmentStoreManager
	broadcaster *BigSegmentStoreStatusBroadcaster
}

// NewBigSegmentStoreStatusProviderImpl creates the internal implementation of
// BigSegmentStoreStatusProvider.
func NewBigSegmentStoreStatusProviderImpl(
	manager *bigSegmentStoreManager,
	broadcaster *BigSegmentStoreStatusBroadcaster,
) interfaces.BigSegmentStoreStatusProvider {
	return &bigSegmentStoreStatusProviderImpl{manager: manager, broadcaster: broadcaster}
}

func (p *bigSegmentStoreStatusProviderImpl) GetStatus() interfaces.BigSegmentsStatus {
	return p.manager.GetStatus()
}

func (p *bigSegmentStoreStatusProviderImpl) AddStatusListener() <-chan interfaces.BigSegmentsStatus {
	return p.broadcaster.AddListener()
}

func (p *bigSegmentStoreStatusProviderImpl) RemoveStatusListener(listener <-chan interfaces.BigSegmentsStatus) {
	p.broadcaster.RemoveListener(listener)
}
