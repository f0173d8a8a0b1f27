// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package changeevent turns Workfront subscription deliveries into canonical
stream envelopes.

A delivery is checked in a fixed order:

 1. The body must match the subscription envelope schema.
 2. For CREATE and UPDATE the newState must match its object schema, when
    one is registered for its object code.
 3. A CREATE without an oldState is a true create and is emitted as is.
 4. Otherwise the oldState is validated the same way, and for UPDATE the
    object code and ID must not change between the two states.

Origins take the form {source}/{objCode}/{eventType}/{categoryID}; a
missing category is written as "none". Updates carry both states with ID
and objCode promoted to the top of the payload. Inputs are never modified.

Usage:

	norm, err := changeevent.NewNormalizer(registry, changeevent.NormalizerConfig{
		Vendor: cfg.Workfront.SchemaVendor,
		Source: cfg.Workfront.Source,
	})
	svc, err := changeevent.NewService(norm, publisher, cfg.Stream.Name, cfg.Stream.PublishTimeout)
	result, err := svc.Ingest(ctx, body)
*/
package changeevent
