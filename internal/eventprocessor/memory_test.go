// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryPublisherRoundTrip(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher(nil)
	defer func() { _ = pub.Close() }()

	res, err := pub.PutRecord(context.Background(), Record{
		StreamName:   "workfront-ingress",
		PartitionKey: "T-1",
		DedupID:      "dedup-1",
		Data:         []byte(`{"schema":"x"}`),
	})
	if err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
	if res.MessageID != "dedup-1" || res.PartitionKey != "T-1" || res.StreamName != "workfront-ingress" {
		t.Errorf("unexpected result %+v", res)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := pub.Subscribe(ctx, "workfront-ingress")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	select {
	case msg := <-msgs:
		if string(msg.Payload) != `{"schema":"x"}` {
			t.Errorf("payload = %s", msg.Payload)
		}
		if msg.Metadata.Get(MetadataPartitionKey) != "T-1" {
			t.Errorf("partition key metadata = %q", msg.Metadata.Get(MetadataPartitionKey))
		}
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestMemoryPublisherClosed(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher(nil)
	if err := pub.Healthy(context.Background()); err != nil {
		t.Fatalf("Healthy: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	_, err := pub.PutRecord(context.Background(), Record{StreamName: "s", PartitionKey: "k", Data: []byte("1")})
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("expected ErrPublisherClosed, got %v", err)
	}
	if pub.Healthy(context.Background()) == nil {
		t.Error("closed publisher reported healthy")
	}
}

func TestMemoryPublisherRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher(nil)
	defer func() { _ = pub.Close() }()
	if _, err := pub.PutRecord(context.Background(), Record{StreamName: "s"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}
