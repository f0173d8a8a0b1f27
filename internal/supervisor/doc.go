// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package supervisor runs the long-lived parts of the service under suture v4.

The tree is organized into three layers:

	RootSupervisor ("loyaltylite")
	├── DataSupervisor ("data-layer")
	│   └── ResourceService "card-store" (if LOYALTY_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── ResourceService "stream-publisher"
	│   └── ReconcileService (if WORKFRONT_SUBSCRIBE_ON_START)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog stream via logging.NewSlogLogger.

Services return ctx.Err() on shutdown, an error to be restarted, or
suture.ErrDoNotRestart when they have finished for good, which is how the
one-shot subscription reconciliation leaves the tree.
*/
package supervisor
