// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/loyaltylite/internal/metrics"
)

// MemoryPublisher keeps records in process using Watermill's gochannel. It
// is persistent, so subscribers attached after a publish still receive
// earlier messages. Nothing survives a restart.
type MemoryPublisher struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

var _ StreamPublisher = (*MemoryPublisher)(nil)

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher(logger watermill.LoggerAdapter) *MemoryPublisher {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &MemoryPublisher{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          true,
		}, logger),
	}
}

// PutRecord publishes rec on the topic named by rec.StreamName.
func (p *MemoryPublisher) PutRecord(ctx context.Context, rec Record) (*PutResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}

	msg := message.NewMessage(rec.messageID(), rec.Data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataPartitionKey, rec.PartitionKey)
	msg.Metadata.Set(MetadataContentType, "application/json")

	start := time.Now()
	err := p.pubsub.Publish(rec.StreamName, msg)
	metrics.RecordStreamPublish(p.Backend(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("publish to %s: %w", rec.StreamName, err)
	}
	return &PutResult{StreamName: rec.StreamName, PartitionKey: rec.PartitionKey, MessageID: msg.UUID}, nil
}

// Subscribe returns the messages published on topic. Each message must be
// acked.
func (p *MemoryPublisher) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, topic)
}

// Healthy always succeeds while the publisher is open.
func (p *MemoryPublisher) Healthy(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	return nil
}

// Backend returns "memory".
func (p *MemoryPublisher) Backend() string { return "memory" }

// Close closes the underlying pub/sub.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pubsub.Close()
}
