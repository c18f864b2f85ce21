package llm

import (
	"context"
	"sync"
	"time"
)

// throttledProvider spaces model calls evenly so a turn with several
// tool rounds cannot burst past the provider's per-minute quota. Calls
// block until their slot arrives or the context is cancelled.
type throttledProvider struct {
	inner    Provider
	interval time.Duration

	mu     sync.Mutex
	nextAt time.Time
}

// Throttle wraps provider so at most rpm completions start per minute.
// A non-positive rpm disables throttling and returns provider as is.
func Throttle(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &throttledProvider{
		inner:    provider,
		interval: time.Minute / time.Duration(rpm),
	}
}

func (t *throttledProvider) Name() string {
	return t.inner.Name()
}

func (t *throttledProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := t.reserve(ctx); err != nil {
		return nil, err
	}
	return t.inner.Complete(ctx, req)
}

// reserve claims the next send slot and sleeps until it opens. Slots
// are handed out in call order under the mutex, so concurrent turns
// queue instead of racing for the same slot.
func (t *throttledProvider) reserve(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	at := t.nextAt
	if at.Before(now) {
		at = now
	}
	t.nextAt = at.Add(t.interval)
	t.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
