// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import "errors"

// ErrPublisherClosed is returned by PutRecord after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidRecord is returned when a record lacks a stream, key or data.
var ErrInvalidRecord = errors.New("invalid record")

// ErrUnknownBackend is returned by NewStreamPublisher for an unsupported backend.
var ErrUnknownBackend = errors.New("unknown stream backend")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")
