package internal

import (
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

const statusPollInterval = 500 * time.Millisecond

// dataStoreStatusPoller tracks the last-known availability of a persistent data store and, once it
// is detected as unavailable, polls it in the background until it recovers. Used only by
// persistentDataStoreWrapper.
type dataStoreStatusPoller struct {
	statusUpdater     func(interfaces.DataStoreStatus)
	lock              sync.Mutex
	lastAvailable     bool
	pollFn            func() bool
	refreshOnRecovery bool
	pollCloser        chan struct{}
	closeOnce         sync.Once
	loggers           ldlog.Loggers
}

func newDataStoreStatusPoller(
	availableNow bool,
	pollFn func() bool,
	statusUpdater func(interfaces.DataStoreStatus),
	refreshOnRecovery bool,
	loggers ldlog.Loggers,
) *dataStoreStatusPoller {
	return &dataStoreStatusPoller{
		lastAvailable:     availableNow,
		pollFn:            pollFn,
		statusUpdater:     statusUpdater,
		refreshOnRecovery: refreshOnRecovery,
		loggers:           loggers,
	}
}

// UpdateAvailability signals a change in availability; if the state actually changed, a status
// update is pushed, and dropping to unavailable starts the recovery poller.
func (m *dataStoreStatusPoller) UpdateAvailability(available bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if available == m.lastAvailable {
		return
	}
	m.lastAvailable = available
	newStatus := interfaces.DataStoreStatus{Available: available}
	if available {
		m.loggers.Warn("Persistent store is available again")
		newStatus.NeedsRefresh = m.refreshOnRecovery
	}
	m.statusUpdater(newStatus)

	if !available {
		m.loggers.Warn("Detected persistent store unavailability; updates will be cached until it recovers")
		m.pollCloser = m.startStatusPoller()
	}
}

func (m *dataStoreStatusPoller) Close() {
	m.closeOnce.Do(func() {
		if m.pollCloser != nil {
			close(m.pollCloser)
			m.pollCloser = nil
		}
	})
}

func (m *dataStoreStatusPoller) startStatusPoller() chan struct{} {
	closer := make(chan struct{})
	go func() {
		ticker := time.NewTicker(statusPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.pollFn() {
					m.UpdateAvailability(true)
					return
				}
			case <-closer:
				return
			}
		}
	}()
	return closer
}
