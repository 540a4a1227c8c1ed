package audiostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "voice-assistant:audio:"

// RedisStore keeps audio in Redis with the cleanup delay as its TTL, so
// several webhook servers behind one public URL can share it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	return NewRedisStoreWithClient(rdb, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, data []byte) (string, error) {
	name := NewName()
	if err := s.client.Set(ctx, redisKeyPrefix+name, data, s.ttl).Err(); err != nil {
		return "", errors.Wrap(err, "storing audio in redis")
	}
	return name, nil
}

func (s *RedisStore) Open(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	data, err := s.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "loading audio from redis")
	}
	return data, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
