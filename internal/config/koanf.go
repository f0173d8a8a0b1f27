// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/loyaltylite/config.yaml",
	"/etc/loyaltylite/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Workfront: WorkfrontConfig{
			Source:            "workfront",
			SchemaVendor:      "com.nordstrom",
			MaxConcurrency:    4,
			RequestsPerSecond: 5,
			RequestTimeout:    15 * time.Second,
			CircuitBreaker:    true,
		},
		Stream: StreamConfig{
			Backend:        "nats",
			Name:           "workfront-ingress",
			PublishTimeout: 10 * time.Second,
		},
		NATS: NATSConfig{
			URL:             "nats://127.0.0.1:4222",
			EmbeddedServer:  true,
			StoreDir:        "/data/nats/jetstream",
			MaxMemory:       256 << 20,
			MaxStore:        2 << 30,
			RetentionDays:   7,
			DuplicateWindow: 2 * time.Minute,
			CircuitBreaker:  true,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		Loyalty: LoyaltyConfig{
			Enabled:    false,
			CardStore:  "badger",
			BadgerPath: "/data/cards",
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
			},
			Artifacts: ArtifactsConfig{
				Bucket:    "loyalty-cards",
				URLExpiry: 24 * time.Hour,
			},
			MoreInfo: "Show this card at checkout to earn points. Reply CARD to see it again.",
		},
		Security: SecurityConfig{
			CORSOrigins:          []string{"*"},
			CORSAllowCredentials: true,
			RateLimitReqs:        300,
			RateLimitWindow:      time.Minute,
			MaxBodyBytes:         1 << 20,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
// defaults, then an optional YAML file, then environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"kafka.brokers",
}

// processSliceFields converts comma-separated strings to slices for the
// known slice paths. YAML lists pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak
// into the configuration.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Workfront (legacy names first)
	"wfapi_key":                     "workfront.api_key",
	"wfapi_endpoint":                "workfront.subscriptions_url",
	"wfobj_codes_event_types":       "workfront.obj_event_pairs",
	"service_endpoint":              "workfront.service_endpoint",
	"workfront_callback_url":        "workfront.callback_url",
	"workfront_auth_token":          "workfront.auth_token",
	"workfront_auth_token_secret":   "workfront.auth_token_secret",
	"workfront_verify_auth_token":   "workfront.verify_auth_token",
	"workfront_source":              "workfront.source",
	"schema_vendor":                 "workfront.schema_vendor",
	"workfront_subscribe_on_start":  "workfront.subscribe_on_start",
	"workfront_max_concurrency":     "workfront.max_concurrency",
	"workfront_requests_per_second": "workfront.requests_per_second",
	"workfront_request_timeout":     "workfront.request_timeout",
	"workfront_circuit_breaker":     "workfront.circuit_breaker",

	// Stream
	"stream_backend":         "stream.backend",
	"stream_name":            "stream.name",
	"stream_publish_timeout": "stream.publish_timeout",

	// NATS
	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_retention_days":   "nats.retention_days",
	"nats_duplicate_window": "nats.duplicate_window",
	"nats_circuit_breaker":  "nats.circuit_breaker",

	// Kafka
	"kafka_brokers":       "kafka.brokers",
	"kafka_batch_timeout": "kafka.batch_timeout",
	"kafka_required_acks": "kafka.required_acks",

	// Loyalty
	"loyalty_enabled":     "loyalty.enabled",
	"loyalty_hash_secret": "loyalty.hash_secret",
	"loyalty_hash_salt":   "loyalty.hash_salt",
	"loyalty_more_info":   "loyalty.more_info",
	"card_store":          "loyalty.card_store",
	"card_store_path":     "loyalty.badger_path",
	"redis_addr":          "loyalty.redis.addr",
	"redis_password":      "loyalty.redis.password",
	"redis_db":            "loyalty.redis.db",
	"minio_endpoint":      "loyalty.artifacts.endpoint",
	"minio_access_key":    "loyalty.artifacts.access_key",
	"minio_secret_key":    "loyalty.artifacts.secret_key",
	"minio_use_ssl":       "loyalty.artifacts.use_ssl",
	"minio_bucket":        "loyalty.artifacts.bucket",
	"artifact_url_expiry": "loyalty.artifacts.url_expiry",

	// Security
	"cors_origins":           "security.cors_origins",
	"cors_allow_credentials": "security.cors_allow_credentials",
	"rate_limit_requests":    "security.rate_limit_reqs",
	"rate_limit_window":      "security.rate_limit_window",
	"disable_rate_limit":     "security.rate_limit_disabled",
	"max_body_bytes":         "security.max_body_bytes",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
// Examples:
//   - WFAPI_KEY -> workfront.api_key
//   - STREAM_NAME -> stream.name
//   - KAFKA_BROKERS -> kafka.brokers
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
