// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package api serves the two inbound webhooks and the operational endpoints.

Routes:

	POST /eventHandler   Workfront subscription callback
	POST /twilio/sms     Twilio inbound SMS webhook (when loyalty is enabled)
	GET  /health/live    liveness probe
	GET  /health/ready   readiness probe (stream backend reachable)
	GET  /metrics        Prometheus scrape endpoint

Webhook responses keep the plain diagnostics upstream callers already
parse: 200 with a JSON publish result, 400 with validation text, 500 with
integration text. Every response carries CORS headers.
*/
package api
