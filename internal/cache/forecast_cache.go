package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

const (
	forecastKeyPrefix     = "forecast:"
	forecastLatestPrefix  = forecastKeyPrefix + "latest"
	forecastSummaryKey    = forecastKeyPrefix + "summary"
	forecastScanBatchSize = 100
)

// ForecastCache caches reads of the latest forecast generation. Entries are dropped
// whenever a run writes a new generation.
type ForecastCache interface {
	GetLatest(ctx context.Context, filter domain.ForecastFilter) (*domain.ForecastBatch, bool, error)
	SetLatest(ctx context.Context, filter domain.ForecastFilter, batch *domain.ForecastBatch) error
	GetSummary(ctx context.Context) (*domain.ForecastSummary, bool, error)
	SetSummary(ctx context.Context, summary *domain.ForecastSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache returns a redis backed cache, or a no-op cache when client is nil.
func NewForecastCache(client *redis.Client, ttlSeconds int) ForecastCache {
	if client == nil {
		return &noopForecastCache{}
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttlFromSeconds(ttlSeconds, defaultCacheTTL),
	}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetLatest(ctx context.Context, filter domain.ForecastFilter) (*domain.ForecastBatch, bool, error) {
	var batch domain.ForecastBatch
	found, err := c.getJSON(ctx, buildForecastLatestKey(filter), &batch)
	if err != nil || !found {
		return nil, false, err
	}
	return &batch, true, nil
}

func (c *redisForecastCache) SetLatest(ctx context.Context, filter domain.ForecastFilter, batch *domain.ForecastBatch) error {
	return c.setJSON(ctx, buildForecastLatestKey(filter), batch)
}

func (c *redisForecastCache) GetSummary(ctx context.Context) (*domain.ForecastSummary, bool, error) {
	var summary domain.ForecastSummary
	found, err := c.getJSON(ctx, forecastSummaryKey, &summary)
	if err != nil || !found {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *redisForecastCache) SetSummary(ctx context.Context, summary *domain.ForecastSummary) error {
	return c.setJSON(ctx, forecastSummaryKey, summary)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (c *redisForecastCache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode forecast cache %s: %w", key, err)
	}
	return true, nil
}

func (c *redisForecastCache) setJSON(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode forecast cache %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopForecastCache) GetLatest(context.Context, domain.ForecastFilter) (*domain.ForecastBatch, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetLatest(context.Context, domain.ForecastFilter, *domain.ForecastBatch) error {
	return nil
}

func (n *noopForecastCache) GetSummary(context.Context) (*domain.ForecastSummary, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetSummary(context.Context, *domain.ForecastSummary) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(context.Context) error {
	return nil
}

func buildForecastLatestKey(filter domain.ForecastFilter) string {
	return fmt.Sprintf("%s:%s", forecastLatestPrefix, forecastFilterHash(filter))
}

func forecastFilterHash(filter domain.ForecastFilter) string {
	parts := []string{}

	if len(filter.Categories) > 0 {
		normalized := make([]string, 0, len(filter.Categories))
		for _, v := range filter.Categories {
			if v = strings.TrimSpace(v); v != "" {
				normalized = append(normalized, v)
			}
		}
		if len(normalized) > 0 {
			sort.Strings(normalized)
			parts = append(parts, "categories="+strings.Join(normalized, ","))
		}
	}
	if filter.MaxMonths != nil {
		parts = append(parts, fmt.Sprintf("max_months=%.4f", *filter.MaxMonths))
	}
	if filter.MinConfidence != nil {
		parts = append(parts, fmt.Sprintf("min_confidence=%.4f", *filter.MinConfidence))
	}
	if filter.PageSize > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", filter.Page), fmt.Sprintf("page_size=%d", filter.PageSize))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
