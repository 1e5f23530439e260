package ldevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupCacheAddReturnsFalseForUnseenKey(t *testing.T) {
	c := newContextKeyCache(10)
	assert.False(t, c.add("key1"), "first sighting must not be flagged as already seen")
	assert.True(t, c.add("key1"), "second sighting must be flagged as already seen")
}

func TestDedupCacheEvictsOldestOnOverflow(t *testing.T) {
	c := newContextKeyCache(2)
	c.add("a")
	c.add("b")
	c.add("c") // evicts "a"

	assert.True(t, c.add("b"))
	assert.False(t, c.add("a"), "a should have been evicted and look unseen again")
}

func TestDedupCacheClearForgetsAllKeys(t *testing.T) {
	c := newContextKeyCache(10)
	c.add("key1")
	c.clear()
	assert.False(t, c.add("key1"), "after clear, a previously seen key looks unseen")
}

func TestDedupCacheDefaultsCapacityWhenNonPositive(t *testing.T) {
	c := newContextKeyCache(0)
	assert.Equal(t, DefaultContextKeysCapacity, c.capacity)
}
