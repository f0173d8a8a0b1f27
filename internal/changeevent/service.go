// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package changeevent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/eventprocessor"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/metrics"
)

// Publisher is the part of eventprocessor.StreamPublisher the service uses.
type Publisher interface {
	PutRecord(ctx context.Context, rec eventprocessor.Record) (*eventprocessor.PutResult, error)
	Backend() string
}

// Service normalizes one delivery and writes it to the stream.
type Service struct {
	normalizer     *Normalizer
	publisher      Publisher
	streamName     string
	publishTimeout time.Duration
}

// NewService wires a normalizer to a publisher. A zero publishTimeout
// leaves the request context as the only deadline.
func NewService(normalizer *Normalizer, publisher Publisher, streamName string, publishTimeout time.Duration) (*Service, error) {
	if normalizer == nil || publisher == nil {
		return nil, errors.New("changeevent: normalizer and publisher are required")
	}
	if streamName == "" {
		return nil, errors.New("changeevent: stream name is required")
	}
	return &Service{
		normalizer:     normalizer,
		publisher:      publisher,
		streamName:     streamName,
		publishTimeout: publishTimeout,
	}, nil
}

// Ingest handles one webhook body. The result is the stream's acknowledgement;
// errors are apperror values classified as client or integration.
func (s *Service) Ingest(ctx context.Context, raw []byte) (*eventprocessor.PutResult, error) {
	logger := logging.Ctx(ctx)

	env, err := s.normalizer.Normalize(raw)
	if err != nil {
		metrics.ChangeEventsRejected.WithLabelValues(apperror.KindOf(err).String()).Inc()
		logger.Warn().
			Str("error", logging.SanitizeValue(apperror.PublicMessage(err))).
			Msg("Rejected Workfront change event")
		return nil, err
	}
	metrics.ChangeEventsReceived.WithLabelValues(string(env.EventType)).Inc()

	data, err := s.normalizer.Encode(env)
	if err != nil {
		metrics.ChangeEventsRejected.WithLabelValues(apperror.KindOf(err).String()).Inc()
		logger.Error().Err(err).Str("schema", env.DataSchema).Msg("Canonical envelope failed validation")
		return nil, err
	}

	pubCtx := ctx
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}

	result, err := s.publisher.PutRecord(pubCtx, eventprocessor.Record{
		StreamName:   s.streamName,
		PartitionKey: env.PartitionKey,
		DedupID:      DedupID(raw),
		Data:         data,
	})
	if err != nil {
		metrics.ChangeEventsRejected.WithLabelValues(apperror.KindIntegration.String()).Inc()
		logger.Error().Err(err).
			Str("backend", s.publisher.Backend()).
			Str("schema", env.DataSchema).
			Msg("Error writing change event to stream")
		return nil, apperror.Integration(s.publisher.Backend(),
			fmt.Sprintf("Event Handler - %s Integration Error trying to write an event for '%s'",
				backendTitle(s.publisher.Backend()), env.DataSchema),
			err)
	}

	metrics.ChangeEventsPublished.WithLabelValues(env.ObjCode).Inc()
	logger.Info().
		Str("origin", env.Origin).
		Str("partition_key", result.PartitionKey).
		Str("message_id", result.MessageID).
		Msg("Change event written to stream")
	return result, nil
}

// DedupID derives the stream message id from the delivery body, so a
// redelivered webhook lands on the same id.
func DedupID(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func backendTitle(backend string) string {
	switch backend {
	case "nats":
		return "NATS"
	case "":
		return "Stream"
	default:
		return strings.ToUpper(backend[:1]) + backend[1:]
	}
}
