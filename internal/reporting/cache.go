package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/metrics"
	"github.com/nikas17mc/digital-technician-dashboard/internal/store"
)

const (
	// DefaultCacheTTL bounds how stale a cached analysis may get.
	DefaultCacheTTL = 5 * time.Minute

	generationKey = "analysis:generation"
)

// AnalysisCache stores computed analyses per range. Every key embeds a
// generation number, so bumping the generation invalidates all ranges at once.
type AnalysisCache struct {
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewAnalysisCache(kv store.KV, ttl time.Duration, logger *zap.Logger) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &AnalysisCache{kv: kv, ttl: ttl, logger: logger}
}

func (c *AnalysisCache) key(ctx context.Context, rangeKey string) (string, error) {
	gen, err := c.kv.Get(ctx, generationKey)
	if errors.Is(err, store.ErrMiss) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("analysis:%s:%s", gen, rangeKey), nil
}

// Lookup resolves the entry key of rangeKey under the current generation and
// returns the analysis cached there. The key stays valid for Store even if
// the cache is cleared in between; it is empty when the backend is down.
// Backend errors count as misses.
func (c *AnalysisCache) Lookup(ctx context.Context, rangeKey string) (string, *Analysis, bool) {
	key, err := c.key(ctx, rangeKey)
	if err != nil {
		c.logger.Warn("Analysis cache unavailable", zap.Error(err))
		metrics.CacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
		return "", nil, false
	}
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			c.logger.Warn("Analysis cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
		return key, nil, false
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		c.logger.Warn("Discarding malformed cache entry", zap.String("key", key), zap.Error(err))
		metrics.CacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
		return key, nil, false
	}
	metrics.CacheRequests.WithLabelValues(metrics.CacheHit).Inc()
	return key, &a, true
}

// Get returns the cached analysis for rangeKey.
func (c *AnalysisCache) Get(ctx context.Context, rangeKey string) (*Analysis, bool) {
	_, a, ok := c.Lookup(ctx, rangeKey)
	return a, ok
}

// Store writes a under a key returned by Lookup. An analysis computed before
// a Clear therefore lands in the retired generation. Empty keys are ignored.
func (c *AnalysisCache) Store(ctx context.Context, key string, a *Analysis) {
	if key == "" {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		c.logger.Warn("Failed to encode analysis", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
		c.logger.Warn("Analysis cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Set stores a for rangeKey under the current generation.
func (c *AnalysisCache) Set(ctx context.Context, rangeKey string, a *Analysis) {
	key, err := c.key(ctx, rangeKey)
	if err != nil {
		c.logger.Warn("Analysis cache unavailable", zap.Error(err))
		return
	}
	c.Store(ctx, key, a)
}

// Clear invalidates every cached range.
func (c *AnalysisCache) Clear(ctx context.Context) error {
	gen, err := c.kv.Incr(ctx, generationKey)
	if err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	c.logger.Info("Analysis cache cleared", zap.Int64("generation", gen))
	return nil
}
