package cache

import (
	"context"
	"fmt"

	"round1/internal/model"

	"github.com/redis/go-redis/v9"
)

// RankingCache ranks completed interviews per job with a Redis ZSET
type RankingCache interface {
	UpdateScore(ctx context.Context, jobID, sessionID string, overall float64) error
	GetTop(ctx context.Context, jobID string, limit int) ([]model.RankingEntry, error)
	GetRank(ctx context.Context, jobID, sessionID string) (int64, error)
}

type rankingCache struct {
	client *redis.Client
}

// NewRankingCache creates a new ranking cache
func NewRankingCache(client *redis.Client) RankingCache {
	return &rankingCache{
		client: client,
	}
}

func (c *rankingCache) key(jobID string) string {
	return fmt.Sprintf("job:%s:ranking", jobID)
}

func (c *rankingCache) UpdateScore(ctx context.Context, jobID, sessionID string, overall float64) error {
	return c.client.ZAdd(ctx, c.key(jobID), redis.Z{
		Score:  overall,
		Member: sessionID,
	}).Err()
}

func (c *rankingCache) GetTop(ctx context.Context, jobID string, limit int) ([]model.RankingEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(jobID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.RankingEntry, len(results))
	for i, z := range results {
		entries[i] = model.RankingEntry{
			SessionID: fmt.Sprint(z.Member),
			Overall:   z.Score,
			Rank:      i + 1,
		}
	}
	return entries, nil
}

// GetRank returns the 1-indexed rank, or -1 when the session is not ranked
func (c *rankingCache) GetRank(ctx context.Context, jobID, sessionID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(jobID), sessionID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}
