// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package cardstore keeps the loyalty card issued to each phone hash.
//
// Two backends implement Store: BadgerStore (embedded, the default) and
// RedisStore. Keys are phone hashes; raw phone numbers never reach a store.
package cardstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/loyaltylite/internal/config"
)

// keyPrefix namespaces card records inside a shared keyspace.
const keyPrefix = "card:"

// ErrCardNotFound is returned by Get when no card is stored for a key.
var ErrCardNotFound = errors.New("card not found")

// Card is one issued loyalty card.
type Card struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	PhoneHash string    `json:"phoneHash"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCard issues a card for phoneHash with a random 16 digit number.
func NewCard(phoneHash string, now time.Time) *Card {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8]) % 1e16
	return &Card{
		ID:        id.String(),
		Number:    fmt.Sprintf("%016d", n),
		PhoneHash: phoneHash,
		CreatedAt: now.UTC(),
	}
}

// Store looks up and creates cards.
type Store interface {
	// Get returns the card stored under key or ErrCardNotFound.
	Get(ctx context.Context, key string) (*Card, error)

	// GetOrCreate returns the stored card, or stores newCard() when there
	// is none. created reports which happened. Concurrent callers for the
	// same key all observe the same card.
	GetOrCreate(ctx context.Context, key string, newCard func() *Card) (card *Card, created bool, err error)

	// Healthy returns nil when the store can serve requests.
	Healthy(ctx context.Context) error

	// Backend names the implementation ("badger", "redis").
	Backend() string

	Close() error
}

// New opens the store selected by cfg.CardStore.
func New(ctx context.Context, cfg *config.LoyaltyConfig) (Store, error) {
	switch cfg.CardStore {
	case "", "badger":
		return OpenBadgerStore(cfg.BadgerPath)
	case "redis":
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("cardstore: unknown backend %q", cfg.CardStore)
	}
}

func storageKey(key string) string {
	return keyPrefix + key
}
