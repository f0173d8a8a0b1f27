// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Metadata keys set on every published message.
const (
	MetadataPartitionKey = "partition_key"
	MetadataContentType  = "content_type"
)

// Record is one event to publish.
type Record struct {
	StreamName   string
	PartitionKey string

	// DedupID, when set, becomes the message id. Publishing the same
	// DedupID twice inside the backend's duplicate window stores one
	// message. A random id is used otherwise.
	DedupID string

	Data []byte
}

// Validate checks that the record can be published.
func (r Record) Validate() error {
	switch {
	case r.StreamName == "":
		return fmt.Errorf("%w: stream name is empty", ErrInvalidRecord)
	case r.PartitionKey == "":
		return fmt.Errorf("%w: partition key is empty", ErrInvalidRecord)
	case len(r.Data) == 0:
		return fmt.Errorf("%w: data is empty", ErrInvalidRecord)
	}
	return nil
}

// messageID returns the id the record is published under.
func (r Record) messageID() string {
	if r.DedupID != "" {
		return r.DedupID
	}
	return uuid.New().String()
}

// PutResult describes a stored record. It is the body of a successful
// webhook response.
type PutResult struct {
	StreamName   string `json:"streamName"`
	PartitionKey string `json:"partitionKey"`
	MessageID    string `json:"messageId"`
}

// StreamPublisher writes records to a durable stream.
type StreamPublisher interface {
	// PutRecord stores one record. It does not retry.
	PutRecord(ctx context.Context, rec Record) (*PutResult, error)

	// Healthy returns nil when the backend can accept records.
	Healthy(ctx context.Context) error

	// Backend names the implementation ("nats", "kafka", "memory").
	Backend() string

	Close() error
}
