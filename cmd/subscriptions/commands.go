// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/loyaltylite/internal/config"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/schema"
	"github.com/tomtom215/loyaltylite/internal/workfront"
)

// configLoader returns the configuration to act on.
type configLoader func() (*config.Config, error)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	return cfg, nil
}

type cliOptions struct {
	url    string
	pretty bool
}

func newRootCmd(load configLoader, out io.Writer) *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "subscriptions",
		Short:         "Manage Workfront event subscriptions for the loyaltylite callback URL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.url, "url", "",
		"callback URL to act on (default: WORKFRONT_CALLBACK_URL or SERVICE_ENDPOINT + /eventHandler)")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")

	root.AddCommand(
		&cobra.Command{
			Use:   "subscribe",
			Short: "Register every configured object/event pair that is not registered yet",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSetup(cmd.Context(), load, opts, func(ctx context.Context, s *workfront.Setup, url string) (any, error) {
					return s.Reconciler.Activate(ctx, url, s.Desired)
				}, out)
			},
		},
		&cobra.Command{
			Use:   "unsubscribe",
			Short: "Delete every subscription registered for the callback URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSetup(cmd.Context(), load, opts, func(ctx context.Context, s *workfront.Setup, url string) (any, error) {
					return s.Reconciler.Deactivate(ctx, url)
				}, out)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the subscriptions registered for the callback URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSetup(cmd.Context(), load, opts, func(ctx context.Context, s *workfront.Setup, url string) (any, error) {
					return s.Reconciler.Existing(ctx, url)
				}, out)
			},
		},
	)
	return root
}

// withSetup resolves the callback URL, builds the reconciler and prints
// the result of run as JSON. A missing URL is not an error.
func withSetup(
	ctx context.Context,
	load configLoader,
	opts *cliOptions,
	run func(ctx context.Context, s *workfront.Setup, url string) (any, error),
	out io.Writer,
) error {
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	vendor := cfg.Workfront.SchemaVendor
	registry := schema.NewRegistry()
	if err := registry.LoadEmbedded(vendor); err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	setup, err := workfront.NewSetup(&cfg.Workfront, registry.PayloadSchemaCheck(vendor))
	if err != nil {
		return err
	}

	url := setup.Callback
	if opts.url != "" {
		url = opts.url
	}
	if url == "" {
		logging.Info().Msg("No endpoint found.  Nothing to do.")
		return nil
	}
	if cfg.Workfront.SubscriptionsURL == "" {
		return fmt.Errorf("WFAPI_ENDPOINT is not configured")
	}

	result, err := run(ctx, setup, url)
	if err != nil {
		return err
	}
	return writeJSON(out, result, opts.pretty)
}

func writeJSON(out io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
