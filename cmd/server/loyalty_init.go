// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/loyaltylite/internal/cardstore"
	"github.com/tomtom215/loyaltylite/internal/config"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/loyalty"
	"github.com/tomtom215/loyaltylite/internal/schema"
	"github.com/tomtom215/loyaltylite/internal/storage"
)

// loyaltyComponents are the pieces of the SMS pipeline main supervises.
type loyaltyComponents struct {
	pipeline *loyalty.Pipeline
	cards    cardstore.Store
}

// initLoyalty builds the SMS loyalty pipeline. It returns nil, nil when the
// pipeline is disabled. The card store is opened here and closed by the
// supervisor on shutdown.
func initLoyalty(ctx context.Context, cfg *config.Config, registry *schema.Registry) (*loyaltyComponents, error) {
	if !cfg.Loyalty.Enabled {
		logging.Info().Msg("Loyalty SMS pipeline disabled (LOYALTY_ENABLED=false)")
		return nil, nil
	}

	hasher, err := loyalty.NewPhoneHasher(cfg.Loyalty.HashSecret, cfg.Loyalty.HashSalt)
	if err != nil {
		return nil, err
	}

	cards, err := cardstore.New(ctx, &cfg.Loyalty)
	if err != nil {
		return nil, fmt.Errorf("open card store: %w", err)
	}
	logging.Info().Str("backend", cards.Backend()).Msg("Card store opened")

	var artifacts loyalty.ArtifactStore
	if cfg.Loyalty.Artifacts.Endpoint != "" {
		store, err := storage.NewMinIOStore(&cfg.Loyalty.Artifacts)
		if err != nil {
			_ = cards.Close()
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			_ = cards.Close()
			return nil, err
		}
		artifacts = store
		logging.Info().
			Str("endpoint", cfg.Loyalty.Artifacts.Endpoint).
			Str("bucket", store.Bucket()).
			Msg("Card artifacts stored in object storage")
	} else {
		logging.Info().Msg("No artifact store configured; card replies carry no media")
	}

	pipeline, err := loyalty.NewPipeline(loyalty.PipelineConfig{
		Registry:  registry,
		Vendor:    cfg.Workfront.SchemaVendor,
		Hasher:    hasher,
		Cards:     cards,
		Renderer:  loyalty.SVGRenderer{},
		Artifacts: artifacts,
		MoreInfo:  cfg.Loyalty.MoreInfo,
	})
	if err != nil {
		_ = cards.Close()
		return nil, err
	}
	return &loyaltyComponents{pipeline: pipeline, cards: cards}, nil
}
