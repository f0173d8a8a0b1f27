// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package config loads Loyalty Lite configuration with Koanf v2.
//
// Loading order (later layers win):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (CONFIG_PATH, ./config.yaml, /etc/loyaltylite/config.yaml)
//  3. Environment variables, including the legacy deployment names
//     WFAPI_KEY, WFAPI_ENDPOINT, WFOBJ_CODES_EVENT_TYPES and STREAM_NAME
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"strings"
	"time"
)

// CallbackPath is the path Workfront deliveries are posted to. Subscriptions
// are registered for {service_endpoint}{CallbackPath}.
const CallbackPath = "/eventHandler"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Workfront WorkfrontConfig `koanf:"workfront"`
	Stream    StreamConfig    `koanf:"stream"`
	NATS      NATSConfig      `koanf:"nats"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Loyalty   LoyaltyConfig   `koanf:"loyalty"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development staging production"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// WorkfrontConfig holds the event subscription API settings and the
// normalization constants for inbound change events.
//
// Environment Variables:
//   - WFAPI_KEY: API key sent as the Authorization header
//   - WFAPI_ENDPOINT: subscription API base URL
//   - WFOBJ_CODES_EVENT_TYPES: desired pairs, e.g. "TASK-CREATE|TASK-UPDATE"
//   - SERVICE_ENDPOINT: public base URL of this service
//   - WORKFRONT_CALLBACK_URL: explicit callback URL (overrides SERVICE_ENDPOINT)
type WorkfrontConfig struct {
	APIKey           string `koanf:"api_key"`
	SubscriptionsURL string `koanf:"subscriptions_url" validate:"omitempty,url"`
	Pairs            string `koanf:"obj_event_pairs"`
	ServiceEndpoint  string `koanf:"service_endpoint" validate:"omitempty,url"`
	CallbackURL      string `koanf:"callback_url" validate:"omitempty,url"`

	// AuthToken is sent verbatim as the subscription authToken when no
	// AuthTokenSecret is configured.
	AuthToken string `koanf:"auth_token"`

	// AuthTokenSecret signs a JWT used as the subscription authToken.
	AuthTokenSecret string `koanf:"auth_token_secret"`

	// VerifyAuthToken rejects deliveries whose Authorization header does
	// not carry the token we registered.
	VerifyAuthToken bool `koanf:"verify_auth_token"`

	// Source and SchemaVendor are the constants folded into origin strings
	// and schema ids.
	Source       string `koanf:"source" validate:"required"`
	SchemaVendor string `koanf:"schema_vendor" validate:"required"`

	SubscribeOnStart  bool          `koanf:"subscribe_on_start"`
	MaxConcurrency    int           `koanf:"max_concurrency" validate:"min=1,max=64"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`
	CircuitBreaker    bool          `koanf:"circuit_breaker"`
}

// Callback returns the URL subscriptions point at: CallbackURL when set,
// otherwise ServiceEndpoint + CallbackPath, otherwise "".
func (w WorkfrontConfig) Callback() string {
	if w.CallbackURL != "" {
		return w.CallbackURL
	}
	if w.ServiceEndpoint == "" {
		return ""
	}
	return strings.TrimRight(w.ServiceEndpoint, "/") + CallbackPath
}

// StreamConfig selects the durable stream backend.
//
// Environment Variables:
//   - STREAM_BACKEND: nats, kafka, memory (default: nats)
//   - STREAM_NAME: stream / topic name (default: workfront-ingress)
type StreamConfig struct {
	Backend        string        `koanf:"backend" validate:"oneof=nats kafka memory"`
	Name           string        `koanf:"name" validate:"required"`
	PublishTimeout time.Duration `koanf:"publish_timeout" validate:"gt=0"`
}

// NATSConfig configures the NATS JetStream backend.
type NATSConfig struct {
	URL             string        `koanf:"url"`
	EmbeddedServer  bool          `koanf:"embedded_server"`
	StoreDir        string        `koanf:"store_dir"`
	MaxMemory       int64         `koanf:"max_memory"`
	MaxStore        int64         `koanf:"max_store"`
	RetentionDays   int           `koanf:"retention_days" validate:"min=1,max=365"`
	DuplicateWindow time.Duration `koanf:"duplicate_window"`
	CircuitBreaker  bool          `koanf:"circuit_breaker"`
}

// KafkaConfig configures the Kafka backend.
type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
	RequiredAcks int           `koanf:"required_acks" validate:"oneof=-1 0 1"`
}

// LoyaltyConfig configures the SMS loyalty card pipeline.
//
// Environment Variables:
//   - LOYALTY_ENABLED: mount the Twilio webhook (default: false)
//   - LOYALTY_HASH_SECRET / LOYALTY_HASH_SALT: phone hash key material
//   - CARD_STORE: badger or redis (default: badger)
type LoyaltyConfig struct {
	Enabled    bool            `koanf:"enabled"`
	HashSecret string          `koanf:"hash_secret"`
	HashSalt   string          `koanf:"hash_salt"`
	CardStore  string          `koanf:"card_store" validate:"oneof=badger redis"`
	BadgerPath string          `koanf:"badger_path"`
	Redis      RedisConfig     `koanf:"redis"`
	Artifacts  ArtifactsConfig `koanf:"artifacts"`
	MoreInfo   string          `koanf:"more_info"`
}

// RedisConfig configures the Redis card store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// ArtifactsConfig configures object storage for rendered cards.
type ArtifactsConfig struct {
	Endpoint  string        `koanf:"endpoint"`
	AccessKey string        `koanf:"access_key"`
	SecretKey string        `koanf:"secret_key"`
	UseSSL    bool          `koanf:"use_ssl"`
	Bucket    string        `koanf:"bucket"`
	URLExpiry time.Duration `koanf:"url_expiry"`
}

// SecurityConfig holds inbound HTTP protections.
type SecurityConfig struct {
	CORSOrigins          []string      `koanf:"cors_origins"`
	CORSAllowCredentials bool          `koanf:"cors_allow_credentials"`
	RateLimitReqs        int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow      time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled    bool          `koanf:"rate_limit_disabled"`
	MaxBodyBytes         int64         `koanf:"max_body_bytes" validate:"min=1024"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
