package main

import (
	"sync"

	"github.com/xor-shift/xoshiro/common"
)

// recentEvents keeps the last len(ring) events, oldest first on read.
type recentEvents struct {
	mu   sync.Mutex
	ring []common.StreamEvent
	next int
	full bool
}

func newRecentEvents(size int) *recentEvents {
	return &recentEvents{ring: make([]common.StreamEvent, size)}
}

func (r *recentEvents) Add(event common.StreamEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = event
	r.next = (r.next + 1) % len(r.ring)

	if r.next == 0 {
		r.full = true
	}
}

func (r *recentEvents) Snapshot() []common.StreamEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		return append([]common.StreamEvent{}, r.ring[:r.next]...)
	}

	out := make([]common.StreamEvent, 0, len(r.ring))
	out = append(out, r.ring[r.next:]...)
	return append(out, r.ring[:r.next]...)
}
