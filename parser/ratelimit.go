package parser

import (
	"context"
	"time"
)

// Pacer spaces out sequential page fetches.
//
// Example usage:
//
//	pacer := parser.NewPacer(300 * time.Millisecond)
//
//	for _, url := range urls {
//	    if err := pacer.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // ... fetch url ...
//	}
//
// Every Wait sleeps the full interval, however long the previous fetch took.
// A zero interval never blocks, which keeps synthetic crawls in tests fast.
type Pacer struct {
	interval time.Duration
}

// NewPacer creates a pacer that waits interval before each operation.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait sleeps for the interval or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
