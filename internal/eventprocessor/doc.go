// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package eventprocessor publishes canonical change events onto a durable
// stream.
//
// Three backends implement StreamPublisher:
//
//   - nats: Watermill over NATS JetStream. The stream is created or updated
//     by StreamInitializer before the first publish, and every message
//     carries a Nats-Msg-Id so JetStream drops redeliveries inside the
//     duplicate window. An embedded NATS server can be started for
//     single-instance deployments.
//   - kafka: a segmentio/kafka-go Writer using the hash balancer, so every
//     record with the same partition key lands on the same partition.
//   - memory: Watermill's gochannel, for development and tests.
//
// The stream name is the JetStream stream name, the NATS subject and the
// Kafka topic. The partition key travels as message metadata on NATS and as
// the message key on Kafka.
//
// Publishing is never retried here. A failed publish surfaces as an error and
// the caller answers the webhook with a 500, which makes Workfront deliver
// the event again.
//
// Example:
//
//	pub, err := eventprocessor.NewStreamPublisher(ctx, cfg)
//	if err != nil { ... }
//	defer pub.Close()
//	res, err := pub.PutRecord(ctx, eventprocessor.Record{
//	    StreamName:   cfg.Stream.Name,
//	    PartitionKey: envelope.PartitionKey,
//	    Data:         data,
//	})
package eventprocessor
