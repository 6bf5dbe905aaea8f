package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/sentinel-console/internal/domain"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"go.uber.org/zap"
)

// Store реализует store.DocumentStore поверх Redis.
//
// Раскладка: документ — хэш sentinel:<collection>:<key>, ключи коллекции
// индексируются в Set sentinel:<collection>:keys. Каждая запись публикует
// измененный ключ в канал sentinel:changes:<collection> — на этом строится
// push-модель подписок. Атомарный инкремент — HINCRBY, merge — HSET только
// перечисленных полей.
type Store struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func New(rdb *redis.Client, logger *zap.Logger) *Store {
	return &Store{
		rdb:    rdb,
		logger: logger.Named("redisstore"),
	}
}

// Ping проверяет доступность Redis при старте сервиса.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, collection, key string) (domain.Document, error) {
	fields, err := s.rdb.HGetAll(ctx, infra.DocKey(collection, key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s/%s: %w", collection, key, err)
	}
	if len(fields) == 0 {
		// Пустой хэш и отсутствующий ключ в Redis неразличимы
		return nil, nil
	}
	return domain.Document(fields), nil
}

func (s *Store) List(ctx context.Context, collection string) (map[string]domain.Document, error) {
	keys, err := s.rdb.SMembers(ctx, infra.IndexKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list %s: %w", collection, err)
	}

	docs := make(map[string]domain.Document, len(keys))
	if len(keys) == 0 {
		return docs, nil
	}

	// Pipeline, чтобы не ходить в Redis по одному документу
	pipe := s.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.HGetAll(ctx, infra.DocKey(collection, key))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redisstore: list pipeline %s: %w", collection, err)
	}

	for key, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // документ удален между SMembers и HGetAll
		}
		docs[key] = domain.Document(fields)
	}
	return docs, nil
}

func (s *Store) Merge(ctx context.Context, collection, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}

	// HSET трогает только перечисленные поля, остальные остаются как были —
	// это и есть merge-семантика partial update
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, infra.DocKey(collection, key), args...)
	pipe.SAdd(ctx, infra.IndexKey(collection), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: merge %s/%s: %w", collection, key, err)
	}

	s.notify(ctx, collection, key)
	return nil
}

func (s *Store) Increment(ctx context.Context, collection, key, field string, delta int64) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.HIncrBy(ctx, infra.DocKey(collection, key), field, delta)
	pipe.SAdd(ctx, infra.IndexKey(collection), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redisstore: increment %s/%s.%s: %w", collection, key, field, err)
	}

	s.notify(ctx, collection, key)
	return incr.Val(), nil
}

// notify публикует факт изменения. Доставка at-least-once обеспечивается
// не самим Pub/Sub (он at-most-once), а ресинком подписчика при реконнекте.
func (s *Store) notify(ctx context.Context, collection, key string) {
	if err := s.rdb.Publish(ctx, infra.ChangeChannel(collection), key).Err(); err != nil {
		s.logger.Warn("change notification not delivered",
			zap.String("collection", collection),
			zap.String("key", key),
			zap.Error(err))
	}
}
