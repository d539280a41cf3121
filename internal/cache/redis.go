package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	publishedKey  = "feed:published"
	generationKey = "feed:published:generation"
)

// Redis хранит ленту одним JSON-значением с TTL и счётчик поколений рядом.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ FeedCache = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Connect принимает redis:// URL или host:port и проверяет соединение.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *Redis) Published(ctx context.Context) ([]*domain.Post, bool, error) {
	raw, err := r.client.Get(ctx, publishedKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var posts []*domain.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false, fmt.Errorf("decode cached feed: %w", err)
	}
	return posts, true, nil
}

func (r *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// StorePublished пишет ленту под WATCH счётчика поколений. Если между чтением
// поколения и записью прошла инвалидация, запись молча пропускается.
func (r *Redis) StorePublished(ctx context.Context, generation int64, posts []*domain.Post) error {
	if posts == nil {
		posts = []*domain.Post{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, publishedKey, raw, r.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate сбрасывает ленту и увеличивает поколение одной транзакцией.
func (r *Redis) Invalidate(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, publishedKey)
		return nil
	})
	return err
}
