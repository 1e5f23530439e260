package interfaces

import (
	"strconv"

	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
)

// deletedItemJSON is the tombstone representation used in persistent stores, so that older SDK
// versions reading the same store recognize a deleted item.
func deletedItemJSON(version int) []byte {
	return []byte(`{"version":` + strconv.Itoa(version) + `,"deleted":true}`)
}

// StoreDataKinds returns the list of supported StoreDataKinds: features and segments.
func StoreDataKinds() []StoreDataKind {
	return []StoreDataKind{dataKindFeatures, dataKindSegments}
}

type featureFlagStoreDataKind struct{}

func (fk featureFlagStoreDataKind) GetName() string { return "features" }

func (fk featureFlagStoreDataKind) Serialize(item StoreItemDescriptor) []byte {
	if item.Item == nil {
		return deletedItemJSON(item.Version)
	}
	if flag, ok := item.Item.(*ldmodel.FeatureFlag); ok {
		if b, err := ldmodel.MarshalFeatureFlag(*flag); err == nil {
			return b
		}
	}
	return nil
}

func (fk featureFlagStoreDataKind) Deserialize(data []byte) (StoreItemDescriptor, error) {
	flag, err := ldmodel.UnmarshalFeatureFlag(data)
	if err != nil {
		return StoreItemDescriptor{}, err
	}
	if flag.Deleted {
		return StoreItemDescriptor{Version: flag.Version, Item: nil}, nil
	}
	return StoreItemDescriptor{Version: flag.Version, Item: &flag}, nil
}

func (fk featureFlagStoreDataKind) String() string { return fk.GetName() }

var dataKindFeatures StoreDataKind = featureFlagStoreDataKind{}

// DataKindFeatures returns the StoreDataKind instance corresponding to feature flag data.
func DataKindFeatures() StoreDataKind { return dataKindFeatures }

type segmentStoreDataKind struct{}

func (sk segmentStoreDataKind) GetName() string { return "segments" }

func (sk segmentStoreDataKind) Serialize(item StoreItemDescriptor) []byte {
	if item.Item == nil {
		return deletedItemJSON(item.Version)
	}
	if segment, ok := item.Item.(*ldmodel.Segment); ok {
		if b, err := ldmodel.MarshalSegment(*segment); err == nil {
			return b
		}
	}
	return nil
}

func (sk segmentStoreDataKind) Deserialize(data []byte) (StoreItemDescriptor, error) {
	segment, err := ldmodel.UnmarshalSegment(data)
	if err != nil {
		return StoreItemDescriptor{}, err
	}
	if segment.Deleted {
		return StoreItemDescriptor{Version: segment.Version, Item: nil}, nil
	}
	return StoreItemDescriptor{Version: segment.Version, Item: &segment}, nil
}

func (sk segmentStoreDataKind) String() string { return sk.GetName() }

var dataKindSegments StoreDataKind = segmentStoreDataKind{}

// DataKindSegments returns the StoreDataKind instance corresponding to segment data.
func DataKindSegments() StoreDataKind { return dataKindSegments }
