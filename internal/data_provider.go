package internal

import (
	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
)

// dataProviderImpl bridges a DataStore (which deals in StoreItemDescriptor/StoreDataKind) to the
// ldeval.DataProvider seam (which deals directly in *ldmodel.FeatureFlag / *ldmodel.Segment). It
// is the only piece of the evaluation path that touches the data store, so the rest of ldeval
// never needs to know about storage.
type dataProviderImpl struct {
	store interfaces.DataStore
}

// NewDataProvider wraps a DataStore as an ldeval.DataProvider.
func NewDataProvider(store interfaces.DataStore) *dataProviderImpl {
	return &dataProviderImpl{store: store}
}

func (p *dataProviderImpl) GetFeatureFlag(key string) *ldmodel.FeatureFlag {
	item, err := p.store.Get(interfaces.DataKindFeatures(), key)
	if err != nil || item.Item == nil {
		return nil
	}
	flag, ok := item.Item.(*ldmodel.FeatureFlag)
	if !ok {
		return nil
	}
	return flag
}

func (p *dataProviderImpl) GetSegment(key string) *ldmodel.Segment {
	item, err := p.store.Get(interfaces.DataKindSegments(), key)
	if err != nil || item.Item == nil {
		return nil
	}
	segment, ok := item.Item.(*ldmodel.Segment)
	if !ok {
		return nil
	}
	return segment
}
