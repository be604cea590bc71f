// Package cache provides the two-tier cache used for search payloads,
// per-URL extraction results, and classification decisions. Tier 1 is a
// bounded process-local map; tier 2 is the durable keyed store. Caching is a
// performance optimization, never a correctness dependency: every I/O error
// degrades to a miss.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/store"
)

// Key namespaces. Every cache key is "<namespace><suffix>".
const (
	NSSearch   = "search:"
	NSExtract  = "extract:"
	NSDecision = "decision:"
)

// promoteTTL bounds how long a tier-2 hit promoted into tier 1 may be served
// without revalidating against the durable row, which owns the real expiry.
const promoteTTL = time.Minute

// Service is the cache layer. Construct once at process start and inject
// into every component that needs it.
type Service struct {
	local   *memoryTier
	durable store.KV
}

// New creates a cache Service over the given durable store. memoryCapacity
// bounds the process-local tier.
func New(durable store.KV, memoryCapacity int) *Service {
	return &Service{
		local:   newMemoryTier(memoryCapacity),
		durable: durable,
	}
}

// Get reads a key: tier 1, then tier 2 (promoting hits into tier 1). Any
// store error is logged and treated as a miss.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if payload, ok := s.local.get(key); ok {
		return payload, true
	}

	payload, ok, err := s.durable.Get(ctx, key)
	if err != nil {
		zap.L().Warn("cache: durable get failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	s.local.set(key, payload, promoteTTL)
	return payload, true
}

// Set writes a key to both tiers. Durable-tier failures are logged and
// swallowed — the local tier already has the value for this process.
func (s *Service) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	s.local.set(key, payload, ttl)

	if err := s.durable.Upsert(ctx, key, payload, ttl); err != nil {
		zap.L().Warn("cache: durable set failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Delete removes a key from both tiers.
func (s *Service) Delete(ctx context.Context, key string) {
	s.local.delete(key)
	if err := s.durable.Delete(ctx, key); err != nil {
		zap.L().Warn("cache: durable delete failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Exists reports whether a key currently resolves to a live entry.
func (s *Service) Exists(ctx context.Context, key string) bool {
	_, ok := s.Get(ctx, key)
	return ok
}

// MultiGet resolves a batch of keys, returning a map of the hits.
func (s *Service) MultiGet(ctx context.Context, keys []string) map[string][]byte {
	hits := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if payload, ok := s.Get(ctx, k); ok {
			hits[k] = payload
		}
	}
	return hits
}

// MultiSet writes a batch of entries with a shared TTL.
func (s *Service) MultiSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) {
	for k, v := range entries {
		s.Set(ctx, k, v, ttl)
	}
}

// LocalLen reports the current size of the process-local tier.
func (s *Service) LocalLen() int {
	return s.local.len()
}
