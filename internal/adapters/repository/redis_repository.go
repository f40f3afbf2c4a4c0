package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/ports"
)

// RedisGuideRepository stores one JSON document per guide and keeps the
// insertion order in a list.
type RedisGuideRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisGuideRepository creates a guide repository on an existing client
func NewRedisGuideRepository(client *redis.Client, prefix string) ports.GuideRepository {
	return &RedisGuideRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisGuideRepository) guideKey(id string) string {
	return r.prefix + "guide:" + id
}

func (r *RedisGuideRepository) indexKey() string {
	return r.prefix + "guides"
}

func (r *RedisGuideRepository) List(ctx context.Context) ([]*entities.Guide, error) {
	ids, err := r.client.LRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list guide ids: %w", err)
	}
	if len(ids) == 0 {
		return []*entities.Guide{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.guideKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load guides: %w", err)
	}

	guides := make([]*entities.Guide, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var g entities.Guide
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, fmt.Errorf("decode guide %s: %w", ids[i], err)
		}
		guides = append(guides, &g)
	}
	return guides, nil
}

func (r *RedisGuideRepository) Get(ctx context.Context, id string) (*entities.Guide, error) {
	raw, err := r.client.Get(ctx, r.guideKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entities.ErrGuideNotFound
		}
		return nil, fmt.Errorf("get guide: %w", err)
	}

	var g entities.Guide
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode guide %s: %w", id, err)
	}
	return &g, nil
}

func (r *RedisGuideRepository) Create(ctx context.Context, guide *entities.Guide) error {
	data, err := json.Marshal(guide)
	if err != nil {
		return fmt.Errorf("encode guide: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.guideKey(guide.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create guide: %w", err)
	}
	if !ok {
		return fmt.Errorf("create guide %s: %w", guide.ID, entities.ErrGuideExists)
	}

	if err := r.client.RPush(ctx, r.indexKey(), guide.ID).Err(); err != nil {
		return fmt.Errorf("index guide: %w", err)
	}
	return nil
}

func (r *RedisGuideRepository) Update(ctx context.Context, guide *entities.Guide) error {
	data, err := json.Marshal(guide)
	if err != nil {
		return fmt.Errorf("encode guide: %w", err)
	}

	ok, err := r.client.SetXX(ctx, r.guideKey(guide.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update guide: %w", err)
	}
	if !ok {
		return entities.ErrGuideNotFound
	}
	return nil
}

func (r *RedisGuideRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
