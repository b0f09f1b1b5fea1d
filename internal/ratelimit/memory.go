package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

var _ Backend = (*Memory)(nil)

// Memory is the process-local sliding-window backend. Keys are sharded so
// unrelated clients never contend on one lock; within a shard the
// evict-check-record cycle runs under the lock, keeping it atomic per key.
type Memory struct {
	shards [shardCount]memoryShard
	now    func() time.Time
}

type memoryShard struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemory constructs an empty backend.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	for i := range m.shards {
		m.shards[i].hits = make(map[string][]time.Time)
	}
	return m
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	shard := m.shardFor(key)
	now := m.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	kept := evict(shard.hits[key], now.Add(-window))
	if len(kept) >= limit {
		shard.hits[key] = kept
		return false, nil
	}
	shard.hits[key] = append(kept, now)
	return true, nil
}

func (m *Memory) Remaining(_ context.Context, key string, limit int, window time.Duration) (int, error) {
	shard := m.shardFor(key)
	now := m.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	kept := evict(shard.hits[key], now.Add(-window))
	if len(kept) == 0 {
		delete(shard.hits, key)
	} else {
		shard.hits[key] = kept
	}
	if remaining := limit - len(kept); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (m *Memory) RetryAfter(_ context.Context, key string, window time.Duration) (time.Duration, error) {
	shard := m.shardFor(key)
	now := m.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	kept := evict(shard.hits[key], now.Add(-window))
	if len(kept) == 0 {
		delete(shard.hits, key)
		return 0, nil
	}
	shard.hits[key] = kept
	return kept[0].Add(window).Sub(now), nil
}

func (m *Memory) shardFor(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}

// evict drops timestamps at or before the cutoff, preserving order.
func evict(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0:0], hits[i:]...)
}
