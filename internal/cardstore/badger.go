// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package cardstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/loyaltylite/internal/logging"
)

// maxTxnAttempts bounds retries of a create transaction that lost a race.
const maxTxnAttempts = 5

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// OpenBadgerStore opens (or creates) a store at path. An empty path opens
// an in-memory store, which loses its cards on Close.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger card store: %w", err)
	}
	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Card store opened")
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get retrieves the card for key.
func (s *BadgerStore) Get(ctx context.Context, key string) (*Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var card *Card
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		card, err = readCard(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// GetOrCreate reads and, when absent, writes the card in one transaction.
// A transaction that conflicts with a concurrent writer is retried and
// then sees that writer's card.
func (s *BadgerStore) GetOrCreate(ctx context.Context, key string, newCard func() *Card) (*Card, bool, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		var card *Card
		var created bool
		err := s.db.Update(func(txn *badger.Txn) error {
			existing, err := readCard(txn, key)
			if err == nil {
				card = existing
				return nil
			}
			if !errors.Is(err, ErrCardNotFound) {
				return err
			}

			card = newCard()
			data, err := json.Marshal(card)
			if err != nil {
				return fmt.Errorf("marshal card: %w", err)
			}
			created = true
			return txn.Set([]byte(storageKey(key)), data)
		})
		switch {
		case err == nil:
			return card, created, nil
		case errors.Is(err, badger.ErrConflict) && attempt < maxTxnAttempts:
			continue
		default:
			return nil, false, fmt.Errorf("store card: %w", err)
		}
	}
}

// Backend returns "badger".
func (s *BadgerStore) Backend() string { return "badger" }

// Healthy reports whether the database is still open.
func (s *BadgerStore) Healthy(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("cardstore: badger database is closed")
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readCard(txn *badger.Txn, key string) (*Card, error) {
	item, err := txn.Get([]byte(storageKey(key)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	var card Card
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &card)
	}); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	return &card, nil
}
