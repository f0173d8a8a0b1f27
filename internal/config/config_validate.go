// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/loyaltylite/internal/validation"
)

// minHashSecretLen is the shortest accepted phone hash secret.
const minHashSecretLen = 16

// Validate checks struct tags first, then the cross-field rules that tags
// cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateErr(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateWorkfront,
		c.validateStream,
		c.validateLoyalty,
		c.validateSecurity,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateWorkfront() error {
	if c.Workfront.VerifyAuthToken && c.Workfront.AuthToken == "" && c.Workfront.AuthTokenSecret == "" {
		return fmt.Errorf("WORKFRONT_VERIFY_AUTH_TOKEN requires WORKFRONT_AUTH_TOKEN or WORKFRONT_AUTH_TOKEN_SECRET")
	}
	if c.Workfront.SubscribeOnStart {
		if c.Workfront.SubscriptionsURL == "" {
			return fmt.Errorf("WFAPI_ENDPOINT is required when WORKFRONT_SUBSCRIBE_ON_START=true")
		}
		if c.Workfront.APIKey == "" {
			return fmt.Errorf("WFAPI_KEY is required when WORKFRONT_SUBSCRIBE_ON_START=true")
		}
	}
	return nil
}

func (c *Config) validateStream() error {
	switch c.Stream.Backend {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when STREAM_BACKEND=kafka")
		}
	case "nats":
		if c.NATS.EmbeddedServer {
			return nil
		}
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLoyalty() error {
	l := c.Loyalty
	if !l.Enabled {
		return nil
	}
	if len(l.HashSecret) < minHashSecretLen {
		return fmt.Errorf("LOYALTY_HASH_SECRET must be at least %d characters", minHashSecretLen)
	}
	switch l.CardStore {
	case "badger":
		if l.BadgerPath == "" {
			return fmt.Errorf("CARD_STORE_PATH is required when CARD_STORE=badger")
		}
	case "redis":
		if l.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CARD_STORE=redis")
		}
	}
	if l.Artifacts.Endpoint == "" || l.Artifacts.Bucket == "" {
		return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required when LOYALTY_ENABLED=true")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must not be empty")
	}
	return nil
}

// validateNATSURL accepts nats://, tls://, ws:// and wss:// URLs with a host.
func validateNATSURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch parsed.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
