package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingBackend struct{}

func (failingBackend) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("backend unreachable")
}

func (failingBackend) Remaining(context.Context, string, int, time.Duration) (int, error) {
	return 0, errors.New("backend unreachable")
}

func (failingBackend) RetryAfter(context.Context, string, time.Duration) (time.Duration, error) {
	return 0, errors.New("backend unreachable")
}

func TestLimiterDecision(t *testing.T) {
	now := time.Now()
	mem := NewMemory()
	mem.now = func() time.Time { return now }
	l := NewLimiter(mem, Rule{Class: ClassLogin, Limit: 2, Window: time.Minute})
	ctx := context.Background()

	d, err := l.Check(ctx, ClassLogin, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !d.Allowed || d.Limit != 2 || d.Remaining != 1 || d.RetryAfter != 0 {
		t.Fatalf("unexpected decision: %+v", d)
	}

	l.Check(ctx, ClassLogin, "1.2.3.4")
	d, err = l.Check(ctx, ClassLogin, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Allowed {
		t.Fatal("request admitted over the limit")
	}
	if d.Remaining != 0 || d.RetryAfter != time.Minute {
		t.Fatalf("unexpected denial decision: %+v", d)
	}

	// Retry-after tracks the oldest recorded event, not the whole window:
	// forty seconds in, the first slot opens in twenty.
	now = now.Add(40 * time.Second)
	d, err = l.Check(ctx, ClassLogin, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Allowed {
		t.Fatal("request admitted over the limit")
	}
	if d.RetryAfter != 20*time.Second {
		t.Fatalf("RetryAfter = %s, want 20s", d.RetryAfter)
	}
}

func TestLimiterUnknownClass(t *testing.T) {
	l := NewLimiter(nil)
	if _, err := l.Check(context.Background(), "bulk_export", "x"); err == nil {
		t.Fatal("expected an error for an unconfigured class")
	}
}

func TestLimiterFallsBackWhenBackendFails(t *testing.T) {
	l := NewLimiter(failingBackend{}, Rule{Class: ClassAPI, Limit: 1, Window: time.Minute})
	ctx := context.Background()

	// Throttling degrades to the local window rather than refusing traffic.
	d, err := l.Check(ctx, ClassAPI, "client")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !d.Allowed {
		t.Fatal("first request denied during fallback")
	}

	d, err = l.Check(ctx, ClassAPI, "client")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Allowed {
		t.Fatal("fallback window did not enforce the limit")
	}
}

func TestDefaultRules(t *testing.T) {
	l := NewLimiter(nil)
	for _, tc := range []struct {
		class  string
		limit  int
		window time.Duration
	}{
		{ClassLogin, 5, 5 * time.Minute},
		{ClassRegister, 3, time.Hour},
		{ClassAPI, 100, time.Hour},
		{ClassPasswordReset, 3, time.Hour},
	} {
		r, ok := l.Rule(tc.class)
		if !ok {
			t.Fatalf("class %s missing", tc.class)
		}
		if r.Limit != tc.limit || r.Window != tc.window {
			t.Fatalf("class %s: got %d/%s", tc.class, r.Limit, r.Window)
		}
	}
}
