// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"context"
	"fmt"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/loyaltylite/internal/config"
	"github.com/tomtom215/loyaltylite/internal/logging"
)

// NewStreamPublisher builds the publisher selected by cfg.Stream.Backend.
// For nats it starts the embedded server when configured and makes sure the
// stream exists; for kafka it makes sure the topic exists.
func NewStreamPublisher(ctx context.Context, cfg *config.Config) (StreamPublisher, error) {
	switch cfg.Stream.Backend {
	case "nats":
		return newNATSStreamPublisher(ctx, cfg)
	case "kafka":
		return newKafkaStreamPublisher(ctx, cfg)
	case "memory":
		logging.Warn().Msg("Using in-memory stream backend; events are not durable")
		return NewMemoryPublisher(logging.NewWatermillLogger()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Stream.Backend)
	}
}

func newNATSStreamPublisher(ctx context.Context, cfg *config.Config) (*NATSPublisher, error) {
	var (
		server  *EmbeddedServer
		natsURL = cfg.NATS.URL
	)
	if cfg.NATS.EmbeddedServer {
		serverCfg := serverConfigFrom(&cfg.NATS)
		s, err := NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		server = s
		natsURL = s.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	shutdown := func() {
		if server != nil {
			_ = server.Shutdown(context.Background())
		}
	}

	wmLogger := logging.NewWatermillLogger()
	pubCfg := DefaultPublisherConfig(natsURL)
	pubCfg.CircuitBreaker = cfg.NATS.CircuitBreaker

	nc, err := natsgo.Connect(natsURL, natsOptions(pubCfg, wmLogger)...)
	if err != nil {
		shutdown()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		shutdown()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := streamConfigFrom(cfg)
	streams, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		nc.Close()
		shutdown()
		return nil, err
	}
	stream, err := streams.EnsureStream(ctx)
	if err != nil {
		nc.Close()
		shutdown()
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	info := stream.CachedInfo()
	logging.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Dur("duplicate_window", info.Config.Duplicates).
		Msg("JetStream stream ready")

	pub, err := NewNATSPublisher(pubCfg, nc, streams, wmLogger)
	if err != nil {
		nc.Close()
		shutdown()
		return nil, err
	}
	pub.server = server
	return pub, nil
}

func newKafkaStreamPublisher(ctx context.Context, cfg *config.Config) (*KafkaPublisher, error) {
	if err := EnsureKafkaTopic(ctx, cfg.Kafka.Brokers, cfg.Stream.Name, 1, 1); err != nil {
		// The topic may be managed elsewhere or auto-created by the broker.
		logging.Warn().Err(err).Str("topic", cfg.Stream.Name).Msg("Could not ensure Kafka topic")
	}
	return NewKafkaPublisher(KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		RequiredAcks: cfg.Kafka.RequiredAcks,
	})
}
