package interview

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned Handle is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Handle
}

// Handle cancels a scheduled task. Stop is idempotent and safe to call from
// inside the task itself.
type Handle interface {
	Stop()
}

// TickerScheduler runs each task on its own goroutine driven by a time.Ticker.
// Tasks are bound to ctx: cancelling it stops every task.
type TickerScheduler struct {
	ctx context.Context
}

func NewTickerScheduler(ctx context.Context) *TickerScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TickerScheduler{ctx: ctx}
}

func (s *TickerScheduler) Every(interval time.Duration, fn func()) Handle {
	ctx, cancel := context.WithCancel(s.ctx)
	h := &tickerHandle{cancel: cancel}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()
	return h
}

type tickerHandle struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (h *tickerHandle) Stop() { h.once.Do(h.cancel) }
