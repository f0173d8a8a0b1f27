// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package cardstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/loyaltylite/internal/config"
)

func newMemoryStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_GetMissing(t *testing.T) {
	t.Parallel()
	s := newMemoryStore(t)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrCardNotFound) {
		t.Errorf("Get() error = %v, want ErrCardNotFound", err)
	}
}

func TestBadgerStore_GetOrCreate(t *testing.T) {
	t.Parallel()
	s := newMemoryStore(t)
	ctx := context.Background()

	first, created, err := s.GetOrCreate(ctx, "hash-1", func() *Card { return NewCard("hash-1", time.Now()) })
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !created {
		t.Error("first call should create the card")
	}

	second, created, err := s.GetOrCreate(ctx, "hash-1", func() *Card {
		t.Error("newCard called for an existing key")
		return NewCard("hash-1", time.Now())
	})
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	if second.ID != first.ID || second.Number != first.Number {
		t.Errorf("got %+v, want %+v", second, first)
	}

	got, err := s.Get(ctx, "hash-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PhoneHash != "hash-1" {
		t.Errorf("phone hash = %q", got.PhoneHash)
	}
}

func TestBadgerStore_ConcurrentCreateYieldsOneCard(t *testing.T) {
	t.Parallel()
	s := newMemoryStore(t)
	ctx := context.Background()

	const workers = 10
	var created atomic.Int32
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			card, c, err := s.GetOrCreate(ctx, "shared", func() *Card { return NewCard("shared", time.Now()) })
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			if c {
				created.Add(1)
			}
			ids[i] = card.ID
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("created %d cards, want 1", created.Load())
	}
	for i, id := range ids {
		if id != ids[0] {
			t.Errorf("worker %d saw card %s, worker 0 saw %s", i, id, ids[0])
		}
	}
}

func TestBadgerStore_CanceledContext(t *testing.T) {
	t.Parallel()
	s := newMemoryStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.GetOrCreate(ctx, "k", func() *Card { return NewCard("k", time.Now()) }); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	card, _, err := s.GetOrCreate(context.Background(), "k", func() *Card { return NewCard("k", time.Now()) })
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.ID != card.ID {
		t.Errorf("ID = %s, want %s", got.ID, card.ID)
	}
}

func TestNewCard(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	c := NewCard("h", now)
	if len(c.Number) != 16 {
		t.Errorf("number %q is not 16 digits", c.Number)
	}
	for _, r := range c.Number {
		if r < '0' || r > '9' {
			t.Errorf("number %q has non-digit", c.Number)
			break
		}
	}
	if c.CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt not in UTC")
	}
	if NewCard("h", now).ID == c.ID {
		t.Error("card ids repeat")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), &config.LoyaltyConfig{CardStore: "badger"})
	if err != nil {
		t.Fatalf("New(badger) error = %v", err)
	}
	defer s.Close()
	if s.Backend() != "badger" {
		t.Errorf("backend = %q", s.Backend())
	}

	if _, err := New(context.Background(), &config.LoyaltyConfig{CardStore: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := New(context.Background(), &config.LoyaltyConfig{CardStore: "redis"}); err == nil {
		t.Error("expected error for redis without address")
	}
}

func TestBadgerStore_Healthy(t *testing.T) {
	t.Parallel()

	s, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	if err := s.Healthy(context.Background()); err != nil {
		t.Errorf("open store unhealthy: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Healthy(context.Background()); err == nil {
		t.Error("closed store reported healthy")
	}
}
