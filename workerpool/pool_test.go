// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAcquireRelease(t *testing.T) {
	p := NewPool(1, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Acquire(ctx))
	assert.True(t, p.IsFull())
	assert.False(t, p.TryAcquire())

	assert.ErrorIs(t, p.Acquire(ctx), ErrPoolExhausted)

	p.Release()
	p.Release()
	stats := p.Stats()
	assert.Equal(t, Stats{MaxWorkers: 1, AvailableSlots: 1, TotalProcessed: 1, TotalRejected: 1}, stats)
}

func TestAcquireCancelled(t *testing.T) {
	p := NewPool(1, time.Second)
	require.True(t, p.TryAcquire())
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Acquire(ctx), context.Canceled)
}

func TestDoBoundsConcurrency(t *testing.T) {
	p := NewPool(2, 0)
	var running, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, int64(8), p.Stats().TotalProcessed)
}

func TestDoReturnsError(t *testing.T) {
	p := NewPool(0, 0)
	boom := errors.New("boom")
	assert.ErrorIs(t, p.Do(context.Background(), func(context.Context) error { return boom }), boom)
	assert.Equal(t, 1, p.Stats().MaxWorkers)
	assert.False(t, p.IsFull())
}
