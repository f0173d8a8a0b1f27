// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

/*
Package services provides suture.Service wrappers for the service's
long-lived components.

  - HTTPServerService: ListenAndServe/Shutdown translated to Serve, with a
    bounded drain on cancellation.
  - ResourceService: owns a Close-able resource (stream publisher, card
    store), optionally probing its health, and closes it on shutdown.
  - ReconcileService: one-shot subscription activation that retries a
    failed listing with the supervisor's backoff and then leaves the tree
    via suture.ErrDoNotRestart.

Return values follow suture's contract:

	nil / suture.ErrDoNotRestart -> finished, not restarted
	error                        -> crashed, restarted with backoff
	ctx.Err()                    -> shutdown requested

Every wrapper implements fmt.Stringer so suture's event log names it.
*/
package services
