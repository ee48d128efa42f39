// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package workerpool bounds how many table pipelines run at once.
package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPoolExhausted is returned when no slot frees up within the acquire timeout.
var ErrPoolExhausted = errors.New("server is busy. All worker slots are occupied. Please try again later")

// Pool is a counting semaphore with statistics.
type Pool struct {
	maxWorkers     int
	acquireTimeout time.Duration
	sem            chan struct{}
	mu             sync.RWMutex
	activeCount    int
	totalProcessed int64
	totalRejected  int64
}

// NewPool creates a pool. maxWorkers below one is raised to one; a
// non-positive timeout waits until ctx is done.
func NewPool(maxWorkers int, acquireTimeout time.Duration) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{
		maxWorkers:     maxWorkers,
		acquireTimeout: acquireTimeout,
		sem:            make(chan struct{}, maxWorkers),
	}
}

// Acquire takes a slot, or returns ErrPoolExhausted after the acquire timeout.
func (p *Pool) Acquire(ctx context.Context) error {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	select {
	case p.sem <- struct{}{}:
		p.mu.Lock()
		p.activeCount++
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.mu.Lock()
			p.totalRejected++
			p.mu.Unlock()
			return ErrPoolExhausted
		}
		return ctx.Err()
	}
}

// Release returns a slot. Releasing without a held slot is a no-op.
func (p *Pool) Release() {
	select {
	case <-p.sem:
		p.mu.Lock()
		p.activeCount--
		p.totalProcessed++
		p.mu.Unlock()
	default:
	}
}

// TryAcquire takes a slot without waiting.
func (p *Pool) TryAcquire() bool {
	select {
	case p.sem <- struct{}{}:
		p.mu.Lock()
		p.activeCount++
		p.mu.Unlock()
		return true
	default:
		return false
	}
}

// Do runs fn while holding a slot.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.Acquire(ctx); err != nil {
		return err
	}
	defer p.Release()
	return fn(ctx)
}

// Stats is a snapshot of pool usage.
type Stats struct {
	MaxWorkers     int   `json:"max_workers"`
	ActiveWorkers  int   `json:"active_workers"`
	AvailableSlots int   `json:"available_slots"`
	TotalProcessed int64 `json:"total_processed"`
	TotalRejected  int64 `json:"total_rejected"`
}

// Stats returns the current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		MaxWorkers:     p.maxWorkers,
		ActiveWorkers:  p.activeCount,
		AvailableSlots: p.maxWorkers - p.activeCount,
		TotalProcessed: p.totalProcessed,
		TotalRejected:  p.totalRejected,
	}
}

// IsFull reports whether every slot is in use.
func (p *Pool) IsFull() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeCount >= p.maxWorkers
}
