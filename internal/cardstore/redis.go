// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package cardstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store on Redis. Cards never expire.
type RedisStore struct {
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("cardstore: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves the card for key.
func (s *RedisStore) Get(ctx context.Context, key string) (*Card, error) {
	raw, err := s.client.Get(ctx, storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	var card Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	return &card, nil
}

// GetOrCreate claims key with SETNX. When another writer got there first
// the stored card is read back instead.
func (s *RedisStore) GetOrCreate(ctx context.Context, key string, newCard func() *Card) (*Card, bool, error) {
	if card, err := s.Get(ctx, key); err == nil {
		return card, false, nil
	} else if !errors.Is(err, ErrCardNotFound) {
		return nil, false, err
	}

	card := newCard()
	data, err := json.Marshal(card)
	if err != nil {
		return nil, false, fmt.Errorf("marshal card: %w", err)
	}
	set, err := s.client.SetNX(ctx, storageKey(key), data, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("store card: %w", err)
	}
	if set {
		return card, true, nil
	}

	stored, err := s.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// Backend returns "redis".
func (s *RedisStore) Backend() string { return "redis" }

// Healthy pings the server.
func (s *RedisStore) Healthy(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
