package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"lunch-system/internal/domain"
)

const DefaultDocumentKey = "LUNCH_APP_DB"

// RedisStore keeps the document under one key and saves it inside a
// WATCH/MULTI transaction so concurrent gateways cannot overwrite each other.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultDocumentKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Mode() string { return ModeRedis }

func (s *RedisStore) Load(ctx context.Context) (domain.Document, error) {
	return s.get(ctx, s.rdb)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter) (domain.Document, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return emptyDocument(), nil
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeDocument(data)
}

func (s *RedisStore) Save(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	stored, data, err := encodeDocument(doc, expected)
	if err != nil {
		return domain.Document{}, err
	}

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		if current.Revision != expected {
			return ErrRevisionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		return stored, nil
	case errors.Is(err, redis.TxFailedErr):
		return domain.Document{}, ErrRevisionConflict
	default:
		return domain.Document{}, err
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
