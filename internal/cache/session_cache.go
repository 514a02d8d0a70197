package cache

import (
	"context"
	"encoding/json"
	"time"

	"round1/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps live interview sessions in Redis
type SessionCache interface {
	Set(ctx context.Context, session *model.InterviewSession) error
	Get(ctx context.Context, id string) (*model.InterviewSession, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    2 * time.Hour,
	}
}

func (c *sessionCache) key(id string) string {
	return "interview-" + id
}

func (c *sessionCache) Set(ctx context.Context, session *model.InterviewSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

// Get returns (nil, nil) on a cache miss
func (c *sessionCache) Get(ctx context.Context, id string) (*model.InterviewSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.InterviewSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
