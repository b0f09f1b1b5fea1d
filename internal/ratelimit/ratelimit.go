// Package ratelimit implements sliding-window request limiting keyed by
// operation class and client identity. Backends are swappable: the
// process-local implementation is authoritative in single-node setups and
// doubles as the degradation target when a shared backend is unreachable.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Operation classes with independent budgets. Exhausting one class never
// affects another.
const (
	ClassLogin         = "login"
	ClassRegister      = "register"
	ClassAPI           = "api"
	ClassPasswordReset = "password_reset"
)

// Backend counts events in the trailing window. Allow records the event
// only when it is admitted; denied requests are never recorded.
// RetryAfter reports how long until the oldest recorded event leaves the
// window, zero when the window is empty.
type Backend interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
	RetryAfter(ctx context.Context, key string, window time.Duration) (time.Duration, error)
}

// Rule binds an operation class to its budget.
type Rule struct {
	Class  string
	Limit  int
	Window time.Duration
}

// DefaultRules returns the standard per-class budgets.
func DefaultRules() []Rule {
	return []Rule{
		{Class: ClassLogin, Limit: 5, Window: 5 * time.Minute},
		{Class: ClassRegister, Limit: 3, Window: time.Hour},
		{Class: ClassAPI, Limit: 100, Window: time.Hour},
		{Class: ClassPasswordReset, Limit: 3, Window: time.Hour},
	}
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies per-class rules over a backend. When the configured
// backend fails, the limiter degrades to its process-local fallback
// instead of rejecting all traffic.
type Limiter struct {
	backend  Backend
	fallback *Memory
	rules    map[string]Rule
}

// NewLimiter builds a limiter. A nil backend means process-local only.
func NewLimiter(backend Backend, rules ...Rule) *Limiter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	l := &Limiter{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		l.rules[r.Class] = r
	}
	if backend == nil {
		l.backend = NewMemory()
	} else {
		l.backend = backend
		l.fallback = NewMemory()
	}
	return l
}

// Check runs one request through the class budget for the given client.
func (l *Limiter) Check(ctx context.Context, class, clientID string) (Decision, error) {
	rule, ok := l.rules[class]
	if !ok {
		return Decision{}, fmt.Errorf("ratelimit: unknown operation class %q", class)
	}
	key := class + ":" + clientID

	backend := l.backend
	allowed, err := backend.Allow(ctx, key, rule.Limit, rule.Window)
	if err != nil && l.fallback != nil {
		backend = l.fallback
		allowed, err = backend.Allow(ctx, key, rule.Limit, rule.Window)
	}
	if err != nil {
		return Decision{}, err
	}

	remaining, err := backend.Remaining(ctx, key, rule.Limit, rule.Window)
	if err != nil {
		remaining = 0
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: remaining,
	}
	if !allowed {
		// A slot opens as soon as the oldest event slides out; the full
		// window is only the worst case.
		d.RetryAfter = rule.Window
		if ra, err := backend.RetryAfter(ctx, key, rule.Window); err == nil && ra > 0 {
			d.RetryAfter = ra
		}
	}
	return d, nil
}

// Rule returns the configured budget for a class, if any.
func (l *Limiter) Rule(class string) (Rule, bool) {
	r, ok := l.rules[class]
	return r, ok
}
