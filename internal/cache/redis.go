package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const recentKey = "exports:recent"

// redisCmdable is the slice of the go-redis API the export store uses.
type redisCmdable interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Close() error
}

type Options struct {
	Password    string
	DB          int
	TTL         time.Duration
	RecentLimit int64
	Logger      *slog.Logger
}

// StoredExport is the envelope kept under each export key.
type StoredExport struct {
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	Data      []byte    `json:"data"`
}

// RedisClient keeps generated exports in Redis with a TTL and a bounded list
// of the most recent keys.
type RedisClient struct {
	client redisCmdable
	ctx    context.Context
	ttl    time.Duration
	limit  int64
	log    *slog.Logger
	now    func() time.Time
}

func NewRedisClient(addr string, opts Options) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return newRedisClient(client, opts), nil
}

func newRedisClient(client redisCmdable, opts Options) *RedisClient {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 100
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
		ttl:    opts.TTL,
		limit:  opts.RecentLimit,
		log:    opts.Logger.With(slog.String("component", "redis_sink")),
		now:    time.Now,
	}
}

// StoreArtifact saves data under a fresh key and records it as most recent.
func (r *RedisClient) StoreArtifact(data []byte, filename string) (string, error) {
	created := r.now()
	key := fmt.Sprintf("export:%s:%d", filename, created.UnixNano())

	payload, err := json.Marshal(StoredExport{Filename: filename, CreatedAt: created, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}

	if err := r.client.Set(r.ctx, key, payload, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store export in Redis: %w", err)
	}

	if err := r.client.LPush(r.ctx, recentKey, key).Err(); err != nil {
		return "", fmt.Errorf("failed to update recent exports list: %w", err)
	}

	if err := r.client.LTrim(r.ctx, recentKey, 0, r.limit-1).Err(); err != nil {
		return "", fmt.Errorf("failed to trim recent exports list: %w", err)
	}

	return key, nil
}

// Write makes RedisClient usable as an export sink.
func (r *RedisClient) Write(data []byte, filename string) {
	key, err := r.StoreArtifact(data, filename)
	if err != nil {
		r.log.Error("store export", slog.String("filename", filename), slog.Any("err", err))
		return
	}
	r.log.Debug("export stored", slog.String("key", key))
}

// RecentExports returns up to count stored exports, newest first. Expired
// or unreadable entries are skipped.
func (r *RedisClient) RecentExports(count int64) ([]StoredExport, error) {
	if count <= 0 {
		return []StoredExport{}, nil
	}

	keys, err := r.client.LRange(r.ctx, recentKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent export keys: %w", err)
	}

	exports := make([]StoredExport, 0, len(keys))
	for _, key := range keys {
		data, err := r.client.Get(r.ctx, key).Result()
		if err != nil {
			continue
		}

		var e StoredExport
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			continue
		}
		exports = append(exports, e)
	}

	return exports, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
