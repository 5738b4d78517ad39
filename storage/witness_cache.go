package storage

import (
	"sync/atomic"

	"github.com/colorfulnotion/fvm/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
)

const DefaultWitnessCacheSize = 4096

type witnessKey struct {
	address common.Address
	key     uint256.Int
}

// WitnessCache keeps recently served slot values so repeated partial
// executions against the same account avoid LevelDB reads.
type WitnessCache struct {
	slots  *lru.Cache[witnessKey, uint256.Int]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewWitnessCache returns a cache of at most size slots; size <= 0 uses
// DefaultWitnessCacheSize.
func NewWitnessCache(size int) (*WitnessCache, error) {
	if size <= 0 {
		size = DefaultWitnessCacheSize
	}
	slots, err := lru.New[witnessKey, uint256.Int](size)
	if err != nil {
		return nil, err
	}
	return &WitnessCache{slots: slots}, nil
}

func (c *WitnessCache) Get(address common.Address, key *uint256.Int) (uint256.Int, bool) {
	v, ok := c.slots.Get(witnessKey{address, *key})
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// peek looks key up without touching recency or the hit counters.
func (c *WitnessCache) peek(address common.Address, key *uint256.Int) (uint256.Int, bool) {
	return c.slots.Peek(witnessKey{address, *key})
}

func (c *WitnessCache) Set(address common.Address, key, value *uint256.Int) {
	c.slots.Add(witnessKey{address, *key}, *value)
}

func (c *WitnessCache) Remove(address common.Address, key *uint256.Int) {
	c.slots.Remove(witnessKey{address, *key})
}

func (c *WitnessCache) Len() int {
	return c.slots.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *WitnessCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
