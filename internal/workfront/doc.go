// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package workfront manages the Workfront event subscriptions that feed the
change ingress endpoint.

It has three parts:

  - PairSet: the desired (objCode, eventType) subscriptions, parsed once at
    start-up from a delimited configuration string such as
    "TASK-CREATE|TASK-UPDATE|PROJ-DELETE". Malformed entries are logged and
    dropped; parsing never fails.
  - Client: a thin REST client for the event subscription API
    (POST {url}, DELETE {url}/{id}, GET {url}/list), optionally wrapped in a
    circuit breaker.
  - Reconciler: converges the subscriptions registered for one callback URL
    towards a PairSet. It only creates what is missing, so running it on
    every deploy never duplicates a subscription.

Example:

	pairs := workfront.ParsePairs(cfg.Workfront.Pairs, registry.HasPayloadSchema)
	client := workfront.NewClient(cfg.Workfront.SubscriptionsURL, cfg.Workfront.APIKey, timeout)
	rec := workfront.NewReconciler(client, workfront.ReconcilerConfig{AuthToken: token})
	report, err := rec.Activate(ctx, cfg.Workfront.Callback(), pairs)
*/
package workfront
