// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package main is the loyaltylite server.

It receives Workfront event subscription deliveries on POST /eventHandler,
normalizes each one into a canonical envelope and writes it to a durable
stream (NATS JetStream, Kafka, or an in-memory channel for development).
Optionally it also answers Twilio SMS webhooks on POST /twilio/sms with a
loyalty card for the texting phone number.

# Process Layout

	RootSupervisor ("loyaltylite")
	├── DataSupervisor ("data-layer")
	│   └── card-store (badger or redis, if LOYALTY_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── stream-publisher
	│   └── subscription-reconcile (one-shot, if WORKFRONT_SUBSCRIBE_ON_START)
	└── APISupervisor ("api-layer")
	    └── http-server

Start-up order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Schema registry (embedded JSON Schemas, vendor from SCHEMA_VENDOR)
 4. Workfront subscription setup (pairs, auth token, API client)
 5. Stream publisher (embedded NATS server and stream creation when enabled)
 6. Loyalty pipeline (card store, optional MinIO artifact bucket)
 7. HTTP router and supervisor tree

# Example Usage

Development with the in-memory stream:

	export STREAM_BACKEND=memory
	export LOG_FORMAT=console
	./loyaltylite-server

Production with an external NATS cluster and subscription activation:

	export NATS_EMBEDDED=false
	export NATS_URL=nats://nats:4222
	export WFAPI_ENDPOINT=https://acme.my.workfront.com/attask/eventsubscription/api/v1/subscriptions
	export WFAPI_KEY=...
	export WFOBJ_CODES_EVENT_TYPES="TASK-CREATE|TASK-UPDATE|PROJ-DELETE"
	export SERVICE_ENDPOINT=https://ingress.example.com
	export WORKFRONT_SUBSCRIBE_ON_START=true
	./loyaltylite-server

SIGINT and SIGTERM stop accepting connections, drain in-flight requests for
SHUTDOWN_TIMEOUT and close the stream and card store.
*/
package main
