package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/model"
	"github.com/redis/go-redis/v9"
)

// ProjectCache stores rendered public projects. Only public projects
// belong here: their representation is identical for every reader, so
// a cache hit can never leak anything access control would hide.
type ProjectCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProjectCache(rdb *redis.Client, ttl time.Duration) *ProjectCache {
	return &ProjectCache{rdb: rdb, ttl: ttl}
}

func projectKey(id uuid.UUID) string {
	return fmt.Sprintf("planbox:project:%s", id)
}

// Get returns the cached project, or (nil, nil) on a miss.
func (c *ProjectCache) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	b, err := c.rdb.Get(ctx, projectKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Project
	if err := sonic.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores a public project. Private projects are silently skipped.
func (c *ProjectCache) Set(ctx context.Context, p *model.Project) error {
	if !p.Public {
		return nil
	}
	b, err := sonic.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, projectKey(p.ID), b, c.ttl).Err()
}

// Invalidate drops the cached copy after any write to the project.
func (c *ProjectCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, projectKey(id)).Err()
}
