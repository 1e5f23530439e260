package internal

import (
	"fmt"
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

// DataSourceUpdatesImpl is the internal implementation of interfaces.DataSourceUpdates. It is
// exported because the actual implementation type, rather than the interface, is required as a
// constructor dependency of the data source implementations.
type DataSourceUpdatesImpl struct {
	store                       interfaces.DataStore
	dataStoreStatusProvider     interfaces.DataStoreStatusProvider
	dataSourceStatusBroadcaster *DataSourceStatusBroadcaster
	flagChangeEventBroadcaster  *FlagChangeEventBroadcaster
	dependencyTracker           *dependencyTracker
	outageTracker               *outageTracker
	loggers                     ldlog.Loggers
	currentStatus               interfaces.DataSourceStatus
	lastStoreUpdateFailed       bool
	lock                        sync.Mutex
}

// NewDataSourceUpdatesImpl creates the internal implementation of DataSourceUpdates.
func NewDataSourceUpdatesImpl(
	store interfaces.DataStore,
	dataStoreStatusProvider interfaces.DataStoreStatusProvider,
	dataSourceStatusBroadcaster *DataSourceStatusBroadcaster,
	flagChangeEventBroadcaster *FlagChangeEventBroadcaster,
	logDataSourceOutageAsErrorAfter time.Duration,
	loggers ldlog.Loggers,
) *DataSourceUpdatesImpl {
	return &DataSourceUpdatesImpl{
		store:                       store,
		dataStoreStatusProvider:     dataStoreStatusProvider,
		dataSourceStatusBroadcaster: dataSourceStatusBroadcaster,
		flagChangeEventBroadcaster:  flagChangeEventBroadcaster,
		dependencyTracker:           newDependencyTracker(),
		outageTracker:               newOutageTracker(logDataSourceOutageAsErrorAfter, loggers),
		loggers:                     loggers,
		currentStatus: interfaces.DataSourceStatus{
			State:      interfaces.DataSourceStateInitializing,
			StateSince: time.Now(),
		},
	}
}

// Init implements interfaces.DataSourceUpdates.
func (d *DataSourceUpdatesImpl) Init(allData []interfaces.StoreCollection) bool {
	var oldData map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor

	if d.flagChangeEventBroadcaster.HasListeners() {
		oldData = make(map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor)
		for _, kind := range interfaces.StoreDataKinds() {
			if items, err := d.store.GetAll(kind); err == nil {
				m := make(map[string]interfaces.StoreItemDescriptor)
				for _, item := range items {
					m[item.Key] = item.Item
				}
				oldData[kind] = m
			}
		}
	}

	err := d.store.Init(sortCollectionsForDataStoreInit(allData))
	updated := d.maybeUpdateError(err)

	if updated {
		d.updateDependencyTrackerFromFullDataSet(allData)

		if oldData != nil {
			d.sendChangeEvents(d.computeChangedItemsForFullDataSet(oldData, fullDataSetToMap(allData)))
		}
	}

	return updated
}

// Upsert implements interfaces.DataSourceUpdates.
func (d *DataSourceUpdatesImpl) Upsert(
	kind interfaces.StoreDataKind,
	key string,
	item interfaces.StoreItemDescriptor,
) bool {
	updated, err := d.store.Upsert(kind, key, item)
	didNotGetError := d.maybeUpdateError(err)

	if updated {
		d.dependencyTracker.updateDependenciesFrom(kind, key, item)
		if d.flagChangeEventBroadcaster.HasListeners() {
			affectedItems := make(kindAndKeySet)
			d.dependencyTracker.addAffectedItems(affectedItems, kindAndKey{kind, key})
			d.sendChangeEvents(affectedItems)
		}
	}

	return didNotGetError
}

func (d *DataSourceUpdatesImpl) maybeUpdateError(err error) bool {
	if err == nil {
		d.lock.Lock()
		d.lastStoreUpdateFailed = false
		d.lock.Unlock()
		return true
	}

	d.UpdateStatus(
		interfaces.DataSourceStateInterrupted,
		interfaces.DataSourceErrorInfo{
			Kind:    interfaces.DataSourceErrorKindStoreError,
			Message: err.Error(),
			Time:    time.Now(),
		},
	)

	d.lock.Lock()
	shouldLog := !d.lastStoreUpdateFailed
	d.lastStoreUpdateFailed = true
	d.lock.Unlock()
	if shouldLog {
		d.loggers.Warnf("Unexpected data store error when trying to store an update received from the data source: %s", err)
	}

	return false
}

// UpdateStatus implements interfaces.DataSourceUpdates.
func (d *DataSourceUpdatesImpl) UpdateStatus(
	newState interfaces.DataSourceState,
	newError interfaces.DataSourceErrorInfo,
) {
	if newState == "" {
		return
	}
	if statusToBroadcast, changed := d.maybeUpdateStatus(newState, newError); changed {
		d.dataSourceStatusBroadcaster.Broadcast(statusToBroadcast)
	}
}

func (d *DataSourceUpdatesImpl) maybeUpdateStatus(
	newState interfaces.DataSourceState,
	newError interfaces.DataSourceErrorInfo,
) (interfaces.DataSourceStatus, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	oldStatus := d.currentStatus

	if newState == interfaces.DataSourceStateInterrupted && oldStatus.State == interfaces.DataSourceStateInitializing {
		// Don't report an interruption before the data source has ever successfully started; the
		// state machine stays in Initializing until the first successful connection.
		newState = interfaces.DataSourceStateInitializing
	}

	if newState == oldStatus.State && newError.Kind == "" {
		return interfaces.DataSourceStatus{}, false
	}

	stateSince := oldStatus.StateSince
	if newState != oldStatus.State {
		stateSince = time.Now()
	}
	lastError := oldStatus.LastError
	if newError.Kind != "" {
		lastError = newError
	}
	d.currentStatus = interfaces.DataSourceStatus{
		State:      newState,
		StateSince: stateSince,
		LastError:  lastError,
	}

	d.outageTracker.trackDataSourceState(newState, newError)

	return d.currentStatus, true
}

// GetStore exposes the underlying data store to components constructed with a DataSourceUpdates,
// such as the external-updates data source whose initialization state is whatever the store's is.
func (d *DataSourceUpdatesImpl) GetStore() interfaces.DataStore {
	return d.store
}

// GetDataStoreStatusProvider implements interfaces.DataSourceUpdates.
func (d *DataSourceUpdatesImpl) GetDataStoreStatusProvider() interfaces.DataStoreStatusProvider {
	return d.dataStoreStatusProvider
}

// GetLastStatus is used internally by the status provider and by WaitFor.
func (d *DataSourceUpdatesImpl) GetLastStatus() interfaces.DataSourceStatus {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.currentStatus
}

func (d *DataSourceUpdatesImpl) waitFor(desiredState interfaces.DataSourceState, timeout time.Duration) bool {
	d.lock.Lock()
	if d.currentStatus.State == desiredState {
		d.lock.Unlock()
		return true
	}
	if d.currentStatus.State == interfaces.DataSourceStateOff {
		d.lock.Unlock()
		return false
	}

	statusCh := d.dataSourceStatusBroadcaster.AddListener()
	defer d.dataSourceStatusBroadcaster.RemoveListener(statusCh)
	d.lock.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		deadline = time.After(timeout)
	}

	for {
		select {
		case newStatus := <-statusCh:
			if newStatus.State == desiredState {
				return true
			}
			if newStatus.State == interfaces.DataSourceStateOff {
				return false
			}
		case <-deadline:
			return false
		}
	}
}

func (d *DataSourceUpdatesImpl) sendChangeEvents(affectedItems kindAndKeySet) {
	for item := range affectedItems {
		if item.kind == interfaces.DataKindFeatures() {
			d.flagChangeEventBroadcaster.Broadcast(interfaces.FlagChangeEvent{Key: item.key})
		}
	}
}

func (d *DataSourceUpdatesImpl) updateDependencyTrackerFromFullDataSet(allData []interfaces.StoreCollection) {
	d.dependencyTracker.reset()
	for _, coll := range allData {
		for _, item := range coll.Items {
			d.dependencyTracker.updateDependenciesFrom(coll.Kind, item.Key, item.Item)
		}
	}
}

func fullDataSetToMap(
	allData []interfaces.StoreCollection,
) map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor {
	ret := make(map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor, len(allData))
	for _, coll := range allData {
		m := make(map[string]interfaces.StoreItemDescriptor, len(coll.Items))
		for _, item := range coll.Items {
			m[item.Key] = item.Item
		}
		ret[coll.Kind] = m
	}
	return ret
}

func (d *DataSourceUpdatesImpl) computeChangedItemsForFullDataSet(
	oldDataMap map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor,
	newDataMap map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor,
) kindAndKeySet {
	affectedItems := make(kindAndKeySet)
	for _, kind := range interfaces.StoreDataKinds() {
		oldItems := oldDataMap[kind]
		newItems := newDataMap[kind]
		allKeys := make([]string, 0, len(oldItems)+len(newItems))
		for key := range oldItems {
			allKeys = append(allKeys, key)
		}
		for key := range newItems {
			if _, found := oldItems[key]; !found {
				allKeys = append(allKeys, key)
			}
		}
		for _, key := range allKeys {
			oldItem, haveOld := oldItems[key]
			newItem, haveNew := newItems[key]
			if haveOld || haveNew {
				if !haveOld || !haveNew || oldItem.Version < newItem.Version {
					d.dependencyTracker.addAffectedItems(affectedItems, kindAndKey{kind, key})
				}
			}
		}
	}
	return affectedItems
}

// outageTracker watches for prolonged data-source outages and logs an elevated message once one
// has lasted longer than outageLoggingTimeout, summarizing the distinct errors seen during it.
type outageTracker struct {
	outageLoggingTimeout time.Duration
	loggers              ldlog.Loggers
	inOutage             bool
	errorCounts          map[interfaces.DataSourceErrorInfo]int
	timeoutCloser        chan struct{}
	lock                 sync.Mutex
}

func newOutageTracker(outageLoggingTimeout time.Duration, loggers ldlog.Loggers) *outageTracker {
	return &outageTracker{
		outageLoggingTimeout: outageLoggingTimeout,
		loggers:              loggers,
	}
}

func (o *outageTracker) trackDataSourceState(newState interfaces.DataSourceState, newError interfaces.DataSourceErrorInfo) {
	if o.outageLoggingTimeout == 0 {
		return
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	if newState == interfaces.DataSourceStateInterrupted || newError.Kind != "" ||
		(newState == interfaces.DataSourceStateInitializing && o.inOutage) {
		if o.inOutage {
			o.recordError(newError)
		} else {
			o.inOutage = true
			o.errorCounts = make(map[interfaces.DataSourceErrorInfo]int)
			o.recordError(newError)
			o.timeoutCloser = make(chan struct{})
			go o.awaitTimeout(o.timeoutCloser)
		}
	} else {
		if o.timeoutCloser != nil {
			close(o.timeoutCloser)
			o.timeoutCloser = nil
		}
		o.inOutage = false
	}
}

func (o *outageTracker) recordError(newError interfaces.DataSourceErrorInfo) {
	basicErrorInfo := interfaces.DataSourceErrorInfo{Kind: newError.Kind, StatusCode: newError.StatusCode}
	o.errorCounts[basicErrorInfo]++
}

func (o *outageTracker) awaitTimeout(closer chan struct{}) {
	select {
	case <-closer:
		return
	case <-time.After(o.outageLoggingTimeout):
	}

	o.lock.Lock()
	if !o.inOutage {
		o.lock.Unlock()
		return
	}
	errorsDesc := o.describeErrors()
	o.timeoutCloser = nil
	o.lock.Unlock()

	o.loggers.Errorf(
		"LaunchDarkly data source outage - updates have been unavailable for at least %s with the following errors: %s",
		o.outageLoggingTimeout,
		errorsDesc,
	)
}

func (o *outageTracker) describeErrors() string {
	ret := ""
	for err, count := range o.errorCounts {
		if ret != "" {
			ret += ", "
		}
		times := "times"
		if count == 1 {
			times = "time"
		}
		ret += fmt.Sprintf("%s (%d %s)", err, count, times)
	}
	return ret
}
