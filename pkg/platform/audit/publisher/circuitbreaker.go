package publisher

import (
	"sync"
	"time"
)

// sinkBreaker stops hammering a failing sink. After threshold consecutive
// failures it opens for cooldown and events for that sink are dropped.
type sinkBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time
	isOpen    bool
	now       func() time.Time
}

func newSinkBreaker(threshold int, cooldown time.Duration) *sinkBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &sinkBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow returns true while closed, and lets a probe through once the cooldown expires.
func (cb *sinkBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.isOpen {
		return true
	}
	if cb.now().After(cb.openUntil) {
		cb.isOpen = false
		cb.failures = cb.threshold - 1
		return true
	}
	return false
}

func (cb *sinkBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.isOpen = false
}

// RecordFailure returns true when this failure opened the circuit.
func (cb *sinkBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if !cb.isOpen && cb.failures >= cb.threshold {
		cb.isOpen = true
		cb.openUntil = cb.now().Add(cb.cooldown)
		return true
	}
	return false
}

func (cb *sinkBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.isOpen
}
