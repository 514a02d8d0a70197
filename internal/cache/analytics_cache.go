package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"round1/internal/model"

	"github.com/redis/go-redis/v9"
)

// RecentClassificationLimit is how many classifications are kept per session
const RecentClassificationLimit = 10

// AnalyticsCache holds the live behavior state of each interview
type AnalyticsCache interface {
	SetSummary(ctx context.Context, sessionID string, summary *model.SignalSummary) error
	GetSummary(ctx context.Context, sessionID string) (*model.SignalSummary, error)

	SetAnalytics(ctx context.Context, sessionID string, analytics *model.CombinedAnalytics) error
	GetAnalytics(ctx context.Context, sessionID string) (*model.CombinedAnalytics, error)

	PushClassification(ctx context.Context, sessionID string, c *model.ImpressionClassification) error
	RecentClassifications(ctx context.Context, sessionID string) ([]model.ImpressionClassification, error)
	ClassificationCounts(ctx context.Context, sessionID string) (map[string]int, error)
}

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new analytics cache
func NewAnalyticsCache(client *redis.Client) AnalyticsCache {
	return &analyticsCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// Key helpers
func (c *analyticsCache) summaryKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:summary", sessionID)
}

func (c *analyticsCache) analyticsKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:analytics", sessionID)
}

func (c *analyticsCache) historyKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:classifications", sessionID)
}

func (c *analyticsCache) countsKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:class_counts", sessionID)
}

func (c *analyticsCache) SetSummary(ctx context.Context, sessionID string, summary *model.SignalSummary) error {
	return c.setJSON(ctx, c.summaryKey(sessionID), summary)
}

func (c *analyticsCache) GetSummary(ctx context.Context, sessionID string) (*model.SignalSummary, error) {
	var summary model.SignalSummary
	ok, err := c.getJSON(ctx, c.summaryKey(sessionID), &summary)
	if !ok || err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *analyticsCache) SetAnalytics(ctx context.Context, sessionID string, analytics *model.CombinedAnalytics) error {
	return c.setJSON(ctx, c.analyticsKey(sessionID), analytics)
}

func (c *analyticsCache) GetAnalytics(ctx context.Context, sessionID string) (*model.CombinedAnalytics, error) {
	var analytics model.CombinedAnalytics
	ok, err := c.getJSON(ctx, c.analyticsKey(sessionID), &analytics)
	if !ok || err != nil {
		return nil, err
	}
	return &analytics, nil
}

// PushClassification prepends to the capped history list and bumps the per-class count
func (c *analyticsCache) PushClassification(ctx context.Context, sessionID string, cl *model.ImpressionClassification) error {
	data, err := json.Marshal(cl)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, c.historyKey(sessionID), data)
	pipe.LTrim(ctx, c.historyKey(sessionID), 0, RecentClassificationLimit-1)
	pipe.Expire(ctx, c.historyKey(sessionID), c.ttl)
	pipe.HIncrBy(ctx, c.countsKey(sessionID), cl.Top, 1)
	pipe.Expire(ctx, c.countsKey(sessionID), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentClassifications returns the retained history oldest first
func (c *analyticsCache) RecentClassifications(ctx context.Context, sessionID string) ([]model.ImpressionClassification, error) {
	items, err := c.client.LRange(ctx, c.historyKey(sessionID), 0, RecentClassificationLimit-1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.ImpressionClassification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var cl model.ImpressionClassification
		if err := json.Unmarshal([]byte(items[i]), &cl); err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, nil
}

func (c *analyticsCache) ClassificationCounts(ctx context.Context, sessionID string) (map[string]int, error) {
	raw, err := c.client.HGetAll(ctx, c.countsKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(raw))
	for class, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("class count %s: %w", class, err)
		}
		counts[class] = n
	}
	return counts, nil
}

func (c *analyticsCache) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// getJSON reports false on a cache miss
func (c *analyticsCache) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(data), v)
}
