// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package middleware provides HTTP middleware for the webhook endpoints.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation ids in
    the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge
  - AccessLog: one structured line per request
  - MaxBody: caps inbound webhook bodies

Each middleware has the http.HandlerFunc shape; the api package adapts
them for chi:

	r.Use(chiMiddleware(middleware.PrometheusMetrics))
*/
package middleware
