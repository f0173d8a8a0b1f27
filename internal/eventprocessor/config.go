// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package eventprocessor

import (
	"time"

	"github.com/tomtom215/loyaltylite/internal/config"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for the embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 2 << 30,   // 2GB
	}
}

// PublisherConfig holds NATS publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
	CircuitBreaker   bool
}

// DefaultPublisherConfig returns defaults for the NATS publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
		CircuitBreaker:   true,
	}
}

// StreamConfig defines the JetStream stream change events are written to.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the stream configuration for name. The stream
// captures the subject of the same name.
func DefaultStreamConfig(name string) StreamConfig {
	return StreamConfig{
		Name:            name,
		Subjects:        []string{name},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// KafkaConfig holds Kafka writer configuration.
type KafkaConfig struct {
	Brokers      []string
	BatchTimeout time.Duration
	RequiredAcks int
}

// serverConfigFrom maps application config onto the embedded server.
func serverConfigFrom(cfg *config.NATSConfig) ServerConfig {
	sc := DefaultServerConfig()
	if cfg.StoreDir != "" {
		sc.StoreDir = cfg.StoreDir
	}
	if cfg.MaxMemory > 0 {
		sc.JetStreamMaxMem = cfg.MaxMemory
	}
	if cfg.MaxStore > 0 {
		sc.JetStreamMaxStore = cfg.MaxStore
	}
	return sc
}

// streamConfigFrom maps application config onto the JetStream stream.
func streamConfigFrom(cfg *config.Config) StreamConfig {
	sc := DefaultStreamConfig(cfg.Stream.Name)
	if cfg.NATS.RetentionDays > 0 {
		sc.MaxAge = time.Duration(cfg.NATS.RetentionDays) * 24 * time.Hour
	}
	if cfg.NATS.DuplicateWindow > 0 {
		sc.DuplicateWindow = cfg.NATS.DuplicateWindow
	}
	return sc
}
