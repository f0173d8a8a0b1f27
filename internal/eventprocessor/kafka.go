// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tomtom215/loyaltylite/internal/breaker"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/metrics"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes records to Kafka. Records are keyed by partition key
// and spread with the hash balancer, so one Workfront object always lands
// on the same partition.
type KafkaPublisher struct {
	writer  messageWriter
	brokers []string
	breaker *breaker.Breaker[struct{}]

	mu     sync.RWMutex
	closed bool
}

var _ StreamPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for brokers. The topic is taken from
// each record's StreamName.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers required", ErrInvalidConfig)
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}
	return newKafkaPublisher(writer, cfg.Brokers), nil
}

func newKafkaPublisher(w messageWriter, brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		brokers: brokers,
		breaker: breaker.New[struct{}](breaker.DefaultConfig("kafka-publisher")),
	}
}

// PutRecord writes rec synchronously and returns once the broker acked it
// according to RequiredAcks.
func (p *KafkaPublisher) PutRecord(ctx context.Context, rec Record) (*PutResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPublisherClosed
	}

	id := rec.messageID()
	msg := kafka.Message{
		Topic: rec.StreamName,
		Key:   []byte(rec.PartitionKey),
		Value: rec.Data,
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(id)},
			{Key: MetadataContentType, Value: []byte("application/json")},
		},
	}

	start := time.Now()
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	metrics.RecordStreamPublish(p.Backend(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("write to kafka topic %s: %w", rec.StreamName, err)
	}

	return &PutResult{StreamName: rec.StreamName, PartitionKey: rec.PartitionKey, MessageID: id}, nil
}

// Healthy dials the first reachable broker.
func (p *KafkaPublisher) Healthy(ctx context.Context) error {
	var lastErr error
	for _, b := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

// Backend returns "kafka".
func (p *KafkaPublisher) Backend() string { return "kafka" }

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// EnsureKafkaTopic creates topic on the controller when it does not exist.
func EnsureKafkaTopic(ctx context.Context, brokers []string, topic string, partitions, replication int) error {
	if len(brokers) == 0 {
		return fmt.Errorf("%w: kafka brokers required", ErrInvalidConfig)
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka %s: %w", brokers[0], err)
	}
	defer func() { _ = conn.Close() }()

	if parts, err := conn.ReadPartitions(topic); err == nil && len(parts) > 0 {
		logging.Debug().Str("topic", topic).Msg("Kafka topic already exists")
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find kafka controller: %w", err)
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial kafka controller: %w", err)
	}
	defer func() { _ = ctrlConn.Close() }()

	if err := ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	}); err != nil {
		return fmt.Errorf("create kafka topic %s: %w", topic, err)
	}
	logging.Info().Str("topic", topic).Int("partitions", partitions).Msg("Kafka topic created")
	return nil
}
