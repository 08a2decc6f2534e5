package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

const (
	countCacheKey = "pricing:calculations:count"
	countCacheTTL = 30 * time.Second

	detailCacheTTL = 5 * time.Minute
)

func detailCacheKey(id uint) string {
	return fmt.Sprintf("pricing:calculations:detail:%d", id)
}

// historyCache keeps the history row count in Redis for a short TTL, so
// frequent count reads skip the database. Every method is safe on a nil
// receiver, which is how the services run without Redis in tests.
type historyCache struct {
	cache   *cache.RedisCache
	metrics *metrics.Metrics
}

func newHistoryCache(c *cache.RedisCache, m *metrics.Metrics) *historyCache {
	if c == nil {
		return nil
	}
	return &historyCache{cache: c, metrics: m}
}

// GetCount returns the cached count and whether it was present.
func (h *historyCache) GetCount(ctx context.Context) (int64, bool) {
	if h == nil {
		return 0, false
	}

	val, err := h.cache.Get(ctx, countCacheKey)
	if err != nil || val == "" {
		h.metrics.CountCacheMissesTotal.Inc()
		return 0, false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		h.metrics.CountCacheMissesTotal.Inc()
		return 0, false
	}

	h.metrics.CountCacheHitsTotal.Inc()
	return count, true
}

// SetCount caches the count. Failures are logged and swallowed.
func (h *historyCache) SetCount(ctx context.Context, count int64) {
	if h == nil {
		return
	}
	if err := h.cache.Set(ctx, countCacheKey, strconv.FormatInt(count, 10), countCacheTTL); err != nil {
		logger.Warn(ctx, "Failed to cache history count", "error", err)
	}
}

// Invalidate drops the cached count after a write changes the history.
func (h *historyCache) Invalidate(ctx context.Context) {
	if h == nil {
		return
	}
	if err := h.cache.Delete(ctx, countCacheKey); err != nil {
		logger.Warn(ctx, "Failed to invalidate history count cache", "error", err)
	}
}

// GetDetail returns the cached detail for one calculation, keyed by ID.
func (h *historyCache) GetDetail(ctx context.Context, id uint) (*CalculationDetailDTO, bool) {
	if h == nil {
		return nil, false
	}

	var dto CalculationDetailDTO
	if err := h.cache.GetJSON(ctx, detailCacheKey(id), &dto); err != nil {
		return nil, false
	}
	if dto.ID == 0 {
		return nil, false
	}
	return &dto, true
}

// SetDetail caches a calculation detail. Failures are logged and swallowed.
func (h *historyCache) SetDetail(ctx context.Context, dto *CalculationDetailDTO) {
	if h == nil || dto == nil {
		return
	}
	if err := h.cache.SetJSON(ctx, detailCacheKey(dto.ID), dto, detailCacheTTL); err != nil {
		logger.Warn(ctx, "Failed to cache calculation detail", "id", dto.ID, "error", err)
	}
}

// InvalidateDetails drops cached details after their rows are deleted, so a
// read cannot serve a calculation that no longer exists.
func (h *historyCache) InvalidateDetails(ctx context.Context, ids []uint) {
	if h == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = detailCacheKey(id)
	}
	if err := h.cache.Delete(ctx, keys...); err != nil {
		logger.Warn(ctx, "Failed to invalidate calculation detail cache", "error", err)
	}
}
