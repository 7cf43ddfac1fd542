package simulator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash that holds switch records.
const DefaultRedisKey = "switchyard:switches"

// RedisStore keeps records as JSON values in one Redis hash, one field per
// switch id.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the Redis server at url and pings it. An empty
// key uses DefaultRedisKey.
func NewRedisStore(ctx context.Context, url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(client, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) All(ctx context.Context) (map[string]Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := make(map[string]Record, len(fields))
	for id, raw := range fields {
		rec, err := decodeRecord(id, []byte(raw))
		if err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, bool, error) {
	raw, err := s.client.HGet(ctx, s.key, id).Bytes()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("redis hget: %w", err)
	}
	rec, err := decodeRecord(id, raw)
	return rec, err == nil, err
}

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, rec.Config.ID, data).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func decodeRecord(id string, raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	rec.Config.ID = id
	return rec, nil
}

var _ Store = (*RedisStore)(nil)
