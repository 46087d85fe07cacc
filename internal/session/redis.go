package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// RedisStore keeps sessions in Redis so webhook replicas share state.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings to fail fast on bad configuration.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, restaurantID, phone string) (*models.Session, error) {
	data, err := r.client.Get(ctx, key(restaurantID, phone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	// Redis enforces the TTL itself but the timestamp check keeps the
	// behavior identical to the in-memory store.
	if expired(&s, time.Now()) {
		_ = r.client.Del(ctx, key(restaurantID, phone)).Err()
		return nil, nil
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session) error {
	s.LastInteraction = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := r.client.Set(ctx, key(s.RestaurantID, s.Phone), data, TTL).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, restaurantID, phone string) error {
	if err := r.client.Del(ctx, key(restaurantID, phone)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
