package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ButyrinIA/spacetraveling/internal/config"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	goredis "github.com/redis/go-redis/v9"
)

type RedisStorage struct {
	client *goredis.Client
	prefix string
}

var _ storage.Storage = (*RedisStorage)(nil)

func New(ctx context.Context, cfg config.RedisConfig) (*RedisStorage, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStorage{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *RedisStorage) key(slug string) string {
	return s.prefix + slug
}

func (s *RedisStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snapshot.Slug, err)
	}
	return s.client.Set(ctx, s.key(snapshot.Slug), raw, 0).Err()
}

func (s *RedisStorage) GetSnapshot(ctx context.Context, slug string) (*models.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key(slug)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", slug, err)
	}
	return &snapshot, nil
}

func (s *RedisStorage) DeleteSnapshot(ctx context.Context, slug string) error {
	return s.client.Del(ctx, s.key(slug)).Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
