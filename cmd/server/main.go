// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/loyaltylite/internal/api"
	"github.com/tomtom215/loyaltylite/internal/changeevent"
	"github.com/tomtom215/loyaltylite/internal/config"
	"github.com/tomtom215/loyaltylite/internal/eventprocessor"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/schema"
	"github.com/tomtom215/loyaltylite/internal/supervisor"
	"github.com/tomtom215/loyaltylite/internal/supervisor/services"
	"github.com/tomtom215/loyaltylite/internal/workfront"
)

// healthProbeInterval is how often supervised resources are probed.
const healthProbeInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	logging.Info().
		Str("stream_backend", cfg.Stream.Backend).
		Str("stream", cfg.Stream.Name).
		Bool("loyalty_enabled", cfg.Loyalty.Enabled).
		Str("environment", cfg.Server.Environment).
		Msg("Starting loyaltylite with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vendor := cfg.Workfront.SchemaVendor
	registry := schema.NewRegistry()
	if err := registry.LoadEmbedded(vendor); err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	logging.Info().Int("schemas", len(registry.Refs())).Str("vendor", vendor).Msg("Schema registry loaded")

	wf, err := workfront.NewSetup(&cfg.Workfront, registry.PayloadSchemaCheck(vendor))
	if err != nil {
		return fmt.Errorf("workfront setup: %w", err)
	}
	logging.Info().
		Str("callback", wf.Callback).
		Str("pairs", wf.Desired.String()).
		Msg("Workfront subscriptions configured")

	publisher, err := eventprocessor.NewStreamPublisher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("stream publisher: %w", err)
	}

	var checked []string
	if wf.Desired.Len() > 0 {
		checked = wf.Desired.ObjCodes()
	}
	normalizer, err := changeevent.NewNormalizer(registry, changeevent.NormalizerConfig{
		Vendor:          vendor,
		Source:          cfg.Workfront.Source,
		CheckedObjCodes: checked,
	})
	if err != nil {
		_ = publisher.Close()
		return err
	}
	ingest, err := changeevent.NewService(normalizer, publisher, cfg.Stream.Name, cfg.Stream.PublishTimeout)
	if err != nil {
		_ = publisher.Close()
		return err
	}

	opts := []api.HandlerOption{api.WithReadinessCheck("stream", publisher)}
	if cfg.Workfront.VerifyAuthToken {
		opts = append(opts, api.WithTokenVerifier(wf.Tokens))
		logging.Info().Msg("Workfront delivery auth token verification enabled")
	}

	loyaltyParts, err := initLoyalty(ctx, cfg, registry)
	if err != nil {
		_ = publisher.Close()
		return fmt.Errorf("loyalty pipeline: %w", err)
	}
	if loyaltyParts != nil {
		opts = append(opts,
			api.WithSMSPipeline(loyaltyParts.pipeline),
			api.WithReadinessCheck("cardstore", loyaltyParts.cards),
		)
	}

	handler := api.NewHandler(ingest, opts...)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		_ = publisher.Close()
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if loyaltyParts != nil {
		tree.AddDataService(services.NewResourceService("card-store", loyaltyParts.cards,
			loyaltyParts.cards.Healthy, healthProbeInterval))
	}
	tree.AddMessagingService(services.NewResourceService("stream-publisher", publisher,
		publisher.Healthy, healthProbeInterval))
	if cfg.Workfront.SubscribeOnStart {
		tree.AddMessagingService(services.NewReconcileService(wf.Reconciler, wf.Callback, wf.Desired, 5))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if errors.Is(treeErr, context.Canceled) {
		treeErr = nil
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return treeErr
}
