package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/metrics"
)

// Policy controls a resource's freshness window. Data younger than StaleTime
// is served from cache without a request; entries unused for EvictAfter are
// discarded by the store.
type Policy struct {
	StaleTime  time.Duration
	EvictAfter time.Duration
}

// FetchFunc loads fresh data for one cache key.
type FetchFunc func(ctx context.Context) (interface{}, error)

// record is the stored shape: the payload plus when it was fetched, so
// staleness is judged independently of store eviction.
type record struct {
	FetchedAt time.Time       `json:"fetchedAt"`
	Payload   json.RawMessage `json:"payload"`
}

type flight struct {
	done    chan struct{}
	payload []byte
	err     error
}

// Queries is the resolve layer of the query cache. It serves fresh entries
// from the store, refetches stale or missing ones, and collapses concurrent
// fetches for the same key into a single request. Mutations invalidate
// entries by pattern; stale data is refetched, never patched in place.
type Queries struct {
	store   Store
	metrics *metrics.Recorder
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]*flight
}

// NewQueries constructs the resolve layer over a store.
func NewQueries(store Store, rec *metrics.Recorder, logger *zap.Logger) *Queries {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queries{
		store:    store,
		metrics:  rec,
		logger:   logger,
		inflight: make(map[string]*flight),
	}
}

// Resolve returns the value for key into dest, fetching when the cached
// entry is missing or older than the policy's stale window.
func (q *Queries) Resolve(ctx context.Context, key string, policy Policy, dest interface{}, fetch FetchFunc) error {
	start := time.Now()
	var rec record
	err := q.store.Get(ctx, key, &rec)
	fresh := err == nil && time.Since(rec.FetchedAt) < policy.StaleTime
	q.metrics.RecordCacheLookup(fresh, time.Since(start))

	if err != nil && !errors.Is(err, ErrCacheMiss) {
		q.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if fresh {
		return json.Unmarshal(rec.Payload, dest)
	}

	payload, err := q.fetchShared(ctx, key, policy, fetch)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

// Invalidate removes all entries matching the given patterns. Failures are
// logged and reported but do not stop the fan-out.
func (q *Queries) Invalidate(ctx context.Context, patterns ...string) error {
	var firstErr error
	for _, pattern := range patterns {
		if err := q.store.DeleteByPattern(ctx, pattern); err != nil {
			q.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// fetchShared deduplicates concurrent fetches per key: the first caller runs
// the fetch, later callers wait on the same flight and share its result.
func (q *Queries) fetchShared(ctx context.Context, key string, policy Policy, fetch FetchFunc) ([]byte, error) {
	q.mu.Lock()
	if f, ok := q.inflight[key]; ok {
		q.mu.Unlock()
		select {
		case <-f.done:
			return f.payload, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	q.inflight[key] = f
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.inflight, key)
		q.mu.Unlock()
		close(f.done)
	}()

	value, err := fetch(ctx)
	if err != nil {
		f.err = err
		return nil, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		f.err = fmt.Errorf("marshal fetched value for %s: %w", key, err)
		return nil, f.err
	}

	writeStart := time.Now()
	if err := q.store.Set(ctx, key, record{FetchedAt: time.Now().UTC(), Payload: payload}, policy.EvictAfter); err != nil {
		q.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	q.metrics.ObserveCacheWrite(time.Since(writeStart))

	f.payload = payload
	return payload, nil
}
