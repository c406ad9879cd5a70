package main

import "sync"

// Battery models the AGV energy store as a percentage level. Drive orders
// drain it, recharge operations fill it back up.
type Battery struct {
	Level         int // percent [0,100]
	DrainPerOrder int // percent consumed per executed drive order
	mu            sync.Mutex
}

// Drain lowers the level by n percent, floored at zero, and returns the
// new level.
func (b *Battery) Drain(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Level -= n
	if b.Level < 0 {
		b.Level = 0
	}
	return b.Level
}

// Charge raises the level by n percent, capped at 100, and returns the
// new level.
func (b *Battery) Charge(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Level += n
	if b.Level > 100 {
		b.Level = 100
	}
	return b.Level
}

// Current returns the level.
func (b *Battery) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Level
}

// Empty reports whether the battery is fully drained.
func (b *Battery) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Level <= 0
}
