// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Command subscriptions manages the Workfront event subscriptions that point
// at this service's callback URL.
//
//	subscriptions subscribe            # register every configured pair not yet registered
//	subscriptions unsubscribe          # delete every subscription for the callback URL
//	subscriptions list --url https://... # show what is registered for a URL
//
// Configuration comes from the same sources as the server (config.yaml and
// WFAPI_KEY, WFAPI_ENDPOINT, WFOBJ_CODES_EVENT_TYPES, SERVICE_ENDPOINT, ...).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/loyaltylite/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(loadConfig, os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
