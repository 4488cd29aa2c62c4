package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyLoads means every parse slot stayed taken for the limiter's
// whole wait period.
var ErrTooManyLoads = errors.New("all workbook parse slots are busy")

const (
	DefaultMaxConcurrentLoads = 4
	DefaultMaxLoadWait        = 15 * time.Second
)

// LoadLimiter caps how many workbooks are decoded at the same time. A
// decoded workbook is held in memory in full, so the cap bounds peak memory
// rather than CPU.
type LoadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	// idle is closed whenever active is zero.
	idle chan struct{}
}

// NewLoadLimiter returns a limiter with maxConcurrent slots. Zero or
// negative arguments use the defaults.
func NewLoadLimiter(maxConcurrent int, maxWait time.Duration) *LoadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentLoads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxLoadWait
	}
	idle := make(chan struct{})
	close(idle)
	return &LoadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting at most the limiter's maxWait. It returns
// ctx.Err() if ctx ends first. Every nil return must be paired with Release.
func (l *LoadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyLoads
	}

	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
	return nil
}

// Release returns a slot taken by Acquire.
func (l *LoadLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount is the number of loads holding a slot.
func (l *LoadLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Available is the number of free slots.
func (l *LoadLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain returns once no load holds a slot, or with ctx.Err() when ctx
// ends first. Shutdown calls it after the listener stops accepting.
func (l *LoadLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadLimiterStatus is reported on /healthz and as metrics.
type LoadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status snapshots the limiter.
func (l *LoadLimiter) Status() LoadLimiterStatus {
	return LoadLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
