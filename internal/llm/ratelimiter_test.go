package llm

import (
	"context"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	p.calls++
	return &CompletionResponse{Content: "ok"}, nil
}

func (p *countingProvider) Name() string { return "counting" }

func TestThrottleDisabled(t *testing.T) {
	inner := &countingProvider{}
	if got := Throttle(inner, 0); got != Provider(inner) {
		t.Error("rpm 0 must return the provider unwrapped")
	}
	if got := Throttle(inner, -5); got != Provider(inner) {
		t.Error("negative rpm must return the provider unwrapped")
	}
}

func TestThrottlePassesThrough(t *testing.T) {
	inner := &countingProvider{}
	p := Throttle(inner, 60000)

	for i := 0; i < 3; i++ {
		resp, err := p.Complete(context.Background(), CompletionRequest{})
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if resp.Content != "ok" {
			t.Errorf("response not forwarded: %q", resp.Content)
		}
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 inner calls, got %d", inner.calls)
	}
	if p.Name() != "counting" {
		t.Errorf("name not forwarded: %q", p.Name())
	}
}

func TestThrottleHonorsCancellation(t *testing.T) {
	inner := &countingProvider{}
	p := Throttle(inner, 1)

	// First call takes the immediate slot.
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}

	// Second slot is a minute out; a cancelled context must not wait.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Complete(ctx, CompletionRequest{}); err == nil {
		t.Fatal("expected context error while throttled")
	}
	if inner.calls != 1 {
		t.Errorf("throttled call reached the provider: %d calls", inner.calls)
	}
}
