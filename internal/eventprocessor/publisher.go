// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/loyaltylite/internal/breaker"
	"github.com/tomtom215/loyaltylite/internal/metrics"
)

// NATSPublisher writes records to NATS JetStream through Watermill.
type NATSPublisher struct {
	publisher message.Publisher
	conn      *natsgo.Conn
	streams   *StreamInitializer
	breaker   *breaker.Breaker[struct{}]
	server    *EmbeddedServer
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

var _ StreamPublisher = (*NATSPublisher)(nil)

// natsOptions returns connection options with reconnection handling.
func natsOptions(cfg PublisherConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("loyaltylite-ingress"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// NewNATSPublisher creates a Watermill JetStream publisher. conn is used for
// health checks and may be the connection the stream was initialized on.
func NewNATSPublisher(cfg PublisherConfig, conn *natsgo.Conn, streams *StreamInitializer, logger watermill.LoggerAdapter) (*NATSPublisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // StreamInitializer owns the stream
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	p := &NATSPublisher{
		publisher: pub,
		conn:      conn,
		streams:   streams,
		logger:    logger,
	}
	if cfg.CircuitBreaker {
		p.breaker = breaker.New[struct{}](breaker.DefaultConfig("nats-publisher"))
	}
	return p, nil
}

// PutRecord publishes rec on the subject named by rec.StreamName. The
// message id doubles as Nats-Msg-Id for JetStream deduplication.
func (p *NATSPublisher) PutRecord(ctx context.Context, rec Record) (*PutResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPublisherClosed
	}

	msg := message.NewMessage(rec.messageID(), rec.Data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataPartitionKey, rec.PartitionKey)
	msg.Metadata.Set(MetadataContentType, "application/json")
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	start := time.Now()
	var err error
	if p.breaker != nil {
		_, err = p.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.publisher.Publish(rec.StreamName, msg)
		})
	} else {
		err = p.publisher.Publish(rec.StreamName, msg)
	}
	metrics.RecordStreamPublish(p.Backend(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("publish to %s: %w", rec.StreamName, err)
	}

	return &PutResult{
		StreamName:   rec.StreamName,
		PartitionKey: rec.PartitionKey,
		MessageID:    msg.UUID,
	}, nil
}

// Healthy checks the connection and that the stream exists.
func (p *NATSPublisher) Healthy(ctx context.Context) error {
	if p.conn != nil && !p.conn.IsConnected() {
		return fmt.Errorf("nats connection %s", p.conn.Status())
	}
	if p.streams != nil && !p.streams.IsHealthy(ctx) {
		return fmt.Errorf("jetstream stream %s unavailable", p.streams.Config().Name)
	}
	return nil
}

// Backend returns "nats".
func (p *NATSPublisher) Backend() string { return "nats" }

// Close shuts down the publisher, the health connection and, when one was
// started, the embedded server.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if p.conn != nil {
		p.conn.Close()
	}
	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown embedded server: %w", err))
		}
	}
	return errors.Join(errs...)
}
