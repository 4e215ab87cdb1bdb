// internal/cache/kpi_cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmakpi/backend-go/internal/config"
	"github.com/farmakpi/backend-go/internal/domain"
)

const (
	kpiRecordsKeyPrefix = "kpi:records"
	kpiScanBatchSize    = 100
)

// KpiCache caches the finalized record sequence per period. A noop
// implementation is used when caching is disabled.
type KpiCache interface {
	GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, bool, error)
	SetRecords(ctx context.Context, period domain.Period, records []domain.KpiRecord) error
	InvalidateAll(ctx context.Context) error
}

type redisKpiCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopKpiCache struct{}

func NewKpiCache(cfg config.CacheConfig) (KpiCache, error) {
	if !cfg.Enabled {
		return &noopKpiCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisKpiCache{client: client, ttl: ttl}, nil
}

func NewNoopKpiCache() KpiCache {
	return &noopKpiCache{}
}

func (c *redisKpiCache) GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, bool, error) {
	payload, err := c.client.Get(ctx, buildRecordsKey(period)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var records []domain.KpiRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, fmt.Errorf("decode kpi records cache: %w", err)
	}
	return records, true, nil
}

func (c *redisKpiCache) SetRecords(ctx context.Context, period domain.Period, records []domain.KpiRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode kpi records cache: %w", err)
	}
	if err := c.client.Set(ctx, buildRecordsKey(period), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisKpiCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, kpiRecordsKeyPrefix, kpiScanBatchSize)
}

func (n *noopKpiCache) GetRecords(ctx context.Context, period domain.Period) ([]domain.KpiRecord, bool, error) {
	return nil, false, nil
}

func (n *noopKpiCache) SetRecords(ctx context.Context, period domain.Period, records []domain.KpiRecord) error {
	return nil
}

func (n *noopKpiCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRecordsKey(period domain.Period) string {
	h := sha1.Sum([]byte(period.Start.Format("2006-01-02") + ":" + period.End.Format("2006-01-02")))
	return fmt.Sprintf("%s:%s", kpiRecordsKeyPrefix, hex.EncodeToString(h[:]))
}
