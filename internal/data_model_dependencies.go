package internal

import (
	"sort"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

type kindAndKey struct {
	kind interfaces.StoreDataKind
	key  string
}

// kindAndKeySet is implemented as a map; only the keys matter.
type kindAndKeySet map[kindAndKey]bool

func (s kindAndKeySet) add(value kindAndKey) { s[value] = true }

func (s kindAndKeySet) contains(value kindAndKey) bool {
	_, ok := s[value]
	return ok
}

// computeDependenciesFrom finds every other data item that, if it changed, would require
// re-evaluating fromItem: a flag's prerequisites, any segment referenced by one of its rules'
// segmentMatch clauses, and (for segments) any other segment referenced the same way.
func computeDependenciesFrom(kind interfaces.StoreDataKind, fromItem interfaces.StoreItemDescriptor) kindAndKeySet {
	switch kind {
	case interfaces.DataKindFeatures():
		flag, ok := fromItem.Item.(*ldmodel.FeatureFlag)
		if !ok || flag == nil {
			return nil
		}
		var ret kindAndKeySet
		if len(flag.Prerequisites) > 0 {
			ret = make(kindAndKeySet, len(flag.Prerequisites))
			for _, p := range flag.Prerequisites {
				ret.add(kindAndKey{interfaces.DataKindFeatures(), p.Key})
			}
		}
		for _, r := range flag.Rules {
			ret = addSegmentClauseDependencies(ret, r.Clauses)
		}
		return ret

	case interfaces.DataKindSegments():
		segment, ok := fromItem.Item.(*ldmodel.Segment)
		if !ok || segment == nil {
			return nil
		}
		var ret kindAndKeySet
		for _, r := range segment.Rules {
			ret = addSegmentClauseDependencies(ret, r.Clauses)
		}
		return ret
	}
	return nil
}

func addSegmentClauseDependencies(ret kindAndKeySet, clauses []ldmodel.Clause) kindAndKeySet {
	for _, c := range clauses {
		if c.Op != ldmodel.OperatorSegmentMatch {
			continue
		}
		for _, v := range c.Values {
			if v.Type() == ldvalue.StringType {
				if ret == nil {
					ret = make(kindAndKeySet)
				}
				ret.add(kindAndKey{interfaces.DataKindSegments(), v.StringValue()})
			}
		}
	}
	return ret
}

// sortCollectionsForDataStoreInit reorders the collections passed to DataStore.Init so that
// segments are written before features, and within the features collection, every prerequisite
// flag is written before the flags that depend on it. This matters for persistent stores that
// might be read from concurrently mid-init.
func sortCollectionsForDataStoreInit(allData []interfaces.StoreCollection) []interfaces.StoreCollection {
	colls := make([]interfaces.StoreCollection, 0, len(allData))
	for _, coll := range allData {
		if coll.Kind == interfaces.DataKindFeatures() {
			itemsOut := make([]interfaces.StoreKeyedItemDescriptor, 0, len(coll.Items))
			addItemsInDependencyOrder(coll.Kind, coll.Items, &itemsOut)
			colls = append(colls, interfaces.StoreCollection{Kind: coll.Kind, Items: itemsOut})
		} else {
			colls = append(colls, coll)
		}
	}
	sort.Slice(colls, func(i, j int) bool {
		return dataKindPriority(colls[i].Kind) < dataKindPriority(colls[j].Kind)
	})
	return colls
}

func addItemsInDependencyOrder(
	kind interfaces.StoreDataKind,
	itemsIn []interfaces.StoreKeyedItemDescriptor,
	out *[]interfaces.StoreKeyedItemDescriptor,
) {
	remainingItems := make(map[string]interfaces.StoreItemDescriptor, len(itemsIn))
	for _, item := range itemsIn {
		remainingItems[item.Key] = item.Item
	}
	for len(remainingItems) > 0 {
		for firstKey := range remainingItems {
			addWithDependenciesFirst(kind, firstKey, remainingItems, out)
			break
		}
	}
}

func addWithDependenciesFirst(
	kind interfaces.StoreDataKind,
	startingKey string,
	remainingItems map[string]interfaces.StoreItemDescriptor,
	out *[]interfaces.StoreKeyedItemDescriptor,
) {
	startItem := remainingItems[startingKey]
	delete(remainingItems, startingKey)
	for dep := range computeDependenciesFrom(kind, startItem) {
		if dep.kind == kind {
			if _, ok := remainingItems[dep.key]; ok {
				addWithDependenciesFirst(kind, dep.key, remainingItems, out)
			}
		}
	}
	*out = append(*out, interfaces.StoreKeyedItemDescriptor{Key: startingKey, Item: startItem})
}

func dataKindPriority(kind interfaces.StoreDataKind) int {
	switch kind.GetName() {
	case "segments":
		return 0
	case "features":
		return 1
	default:
		return len(kind.GetName()) + 2
	}
}

// dependencyTracker maintains a bidirectional graph of which flags/segments reference which
// others, so a single changed item can be expanded into the full set of flags whose evaluation
// result might have changed, for flag-change-listener notification.
type dependencyTracker struct {
	dependenciesFrom map[kindAndKey]kindAndKeySet
	dependenciesTo   map[kindAndKey]kindAndKeySet
}

func newDependencyTracker() *dependencyTracker {
	return &dependencyTracker{
		dependenciesFrom: make(map[kindAndKey]kindAndKeySet),
		dependenciesTo:   make(map[kindAndKey]kindAndKeySet),
	}
}

func (d *dependencyTracker) updateDependenciesFrom(
	kind interfaces.StoreDataKind,
	fromKey string,
	fromItem interfaces.StoreItemDescriptor,
) {
	fromWhat := kindAndKey{kind, fromKey}
	updatedDependencies := computeDependenciesFrom(kind, fromItem)

	for oldDep := range d.dependenciesFrom[fromWhat] {
		if depsToOldDep := d.dependenciesTo[oldDep]; depsToOldDep != nil {
			delete(depsToOldDep, fromWhat)
		}
	}

	d.dependenciesFrom[fromWhat] = updatedDependencies
	for newDep := range updatedDependencies {
		depsToNewDep := d.dependenciesTo[newDep]
		if depsToNewDep == nil {
			depsToNewDep = make(kindAndKeySet)
			d.dependenciesTo[newDep] = depsToNewDep
		}
		depsToNewDep.add(fromWhat)
	}
}

func (d *dependencyTracker) reset() {
	d.dependenciesFrom = make(map[kindAndKey]kindAndKeySet)
	d.dependenciesTo = make(map[kindAndKey]kindAndKeySet)
}

// addAffectedItems adds initialModifiedItem, and every item that (directly or transitively)
// depends on it, to itemsOut.
func (d *dependencyTracker) addAffectedItems(itemsOut kindAndKeySet, initialModifiedItem kindAndKey) {
	if itemsOut.contains(initialModifiedItem) {
		return
	}
	itemsOut.add(initialModifiedItem)
	for affectedItem := range d.dependenciesTo[initialModifiedItem] {
		d.addAffectedItems(itemsOut, affectedItem)
	}
}
