// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package config

import (
	"strings"
	"testing"
)

func TestWorkfrontCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  WorkfrontConfig
		want string
	}{
		{"none", WorkfrontConfig{}, ""},
		{"explicit wins", WorkfrontConfig{CallbackURL: "https://a/cb", ServiceEndpoint: "https://b"}, "https://a/cb"},
		{"derived", WorkfrontConfig{ServiceEndpoint: "https://b/dev"}, "https://b/dev/eventHandler"},
		{"trailing slash", WorkfrontConfig{ServiceEndpoint: "https://b/dev/"}, "https://b/dev/eventHandler"},
	}
	for _, tt := range tests {
		if got := tt.cfg.Callback(); got != tt.want {
			t.Errorf("%s: Callback() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "kafka without brokers",
			mutate:  func(c *Config) { c.Stream.Backend = "kafka" },
			wantErr: "KAFKA_BROKERS",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Stream.Backend = "kinesis" },
			wantErr: "Backend",
		},
		{
			name: "external nats with bad url",
			mutate: func(c *Config) {
				c.NATS.EmbeddedServer = false
				c.NATS.URL = "http://nats:4222"
			},
			wantErr: "NATS_URL",
		},
		{
			name: "loyalty with short secret",
			mutate: func(c *Config) {
				c.Loyalty.Enabled = true
				c.Loyalty.HashSecret = "short"
			},
			wantErr: "LOYALTY_HASH_SECRET",
		},
		{
			name: "loyalty without object storage",
			mutate: func(c *Config) {
				c.Loyalty.Enabled = true
				c.Loyalty.HashSecret = strings.Repeat("s", 32)
			},
			wantErr: "MINIO_ENDPOINT",
		},
		{
			name: "loyalty complete",
			mutate: func(c *Config) {
				c.Loyalty.Enabled = true
				c.Loyalty.HashSecret = strings.Repeat("s", 32)
				c.Loyalty.Artifacts.Endpoint = "minio:9000"
			},
		},
		{
			name:    "verify token without token",
			mutate:  func(c *Config) { c.Workfront.VerifyAuthToken = true },
			wantErr: "WORKFRONT_VERIFY_AUTH_TOKEN",
		},
		{
			name:    "subscribe on start without endpoint",
			mutate:  func(c *Config) { c.Workfront.SubscribeOnStart = true },
			wantErr: "WFAPI_ENDPOINT",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "Port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
