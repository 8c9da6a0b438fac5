package invalidation

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Dedupe remembers the highest version applied per event stream so
// redelivered or out-of-order events are dropped.
type Dedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func NewDedupe(size int) *Dedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &Dedupe{lru: c}
}

// returns true if v is greater than last seen
func (d *Dedupe) ShouldApply(key string, v uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(key); ok {
		if v <= last {
			return false
		}
	}
	d.lru.Add(key, v)
	return true
}
