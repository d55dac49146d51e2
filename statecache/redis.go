package statecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"scmcore/store"
)

const (
	statsKey   = "scmcore:statistics"
	rankingKey = "scmcore:suppliers:ranking"
)

// RedisStore keeps derived read models in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) SetStatistics(ctx context.Context, st *store.Statistics) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, statsKey, data, r.ttl).Err()
}

// GetStatistics returns nil, nil on a cache miss.
func (r *RedisStore) GetStatistics(ctx context.Context) (*store.Statistics, error) {
	data, err := r.client.Get(ctx, statsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st store.Statistics
	return &st, json.Unmarshal(data, &st)
}

func (r *RedisStore) SetRanking(ctx context.Context, ranked []*store.Supplier) error {
	data, err := json.Marshal(ranked)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, rankingKey, data, r.ttl).Err()
}

// GetRanking returns nil, nil on a cache miss.
func (r *RedisStore) GetRanking(ctx context.Context) ([]*store.Supplier, error) {
	data, err := r.client.Get(ctx, rankingKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ranked := []*store.Supplier{}
	return ranked, json.Unmarshal(data, &ranked)
}

// Invalidate drops the cached views a write to kind can change.
func (r *RedisStore) Invalidate(ctx context.Context, kind store.Kind) error {
	keys := []string{statsKey}
	if kind == store.KindSupplier {
		keys = append(keys, rankingKey)
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
