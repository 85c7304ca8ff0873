package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// redisStore shares persisted payloads between several client processes,
// e.g. a desktop shell and the hrctl CLI of the same user.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Get implements the Store interface
func (s redisStore) Get(key string, target any) (bool, error) {
	val, err := s.client.Get(context.Background(), key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return false, errors.Wrap(err, "error while obtaining from cache")
		}
		return false, nil
	}
	return true, errors.WithStack(msgpack.Unmarshal(val, target))
}

// Set implements the Store interface
func (s redisStore) Set(key string, value any, expiration time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	if expiration <= 0 {
		expiration = s.ttl
	}
	return errors.WithStack(s.client.Set(context.Background(), key, data, expiration).Err())
}

// Delete implements the Store interface
func (s redisStore) Delete(key string) error {
	return errors.WithStack(s.client.Unlink(context.Background(), key).Err())
}

// Clear implements the Store interface
func (s redisStore) Clear(prefix string) error {
	const batchSize = 500
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	keys := make([]string, 0, batchSize)

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= batchSize {
			if err := s.client.Unlink(ctx, keys...).Err(); err != nil {
				return errors.WithStack(err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.WithStack(err)
	}
	if len(keys) > 0 {
		return errors.WithStack(s.client.Unlink(ctx, keys...).Err())
	}
	return nil
}

// NewRedisStore connects to redis with the passed options and returns a Store
// using it; entries expire after ttl unless Set is called with an explicit
// expiration.
func NewRedisStore(options *redis.Options, ttl time.Duration) (Store, error) {
	rdb := redis.NewClient(options)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "could not connect to redis cache")
	}
	return redisStore{
		client: rdb,
		ttl:    ttl,
	}, nil
}
