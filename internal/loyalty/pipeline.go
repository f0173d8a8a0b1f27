// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package loyalty

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/cardstore"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/metrics"
	"github.com/tomtom215/loyaltylite/internal/schema"
	"github.com/tomtom215/loyaltylite/internal/storage"
)

// RequestSchemaName is the schema inbound SMS form fields are checked against.
const RequestSchemaName = "loyalty-lite/twilio-incoming-request"

// Command is the keyword a texter sent.
type Command string

// Commands understood by the pipeline.
const (
	CommandCard Command = "card"
	CommandMore Command = "more"
	CommandHelp Command = "help"
)

// HelpText is sent for anything that is not a known command.
const HelpText = "Reply CARD to get your loyalty card or MORE to learn about the program."

// CardStore is the part of cardstore.Store the pipeline needs.
type CardStore interface {
	GetOrCreate(ctx context.Context, key string, newCard func() *cardstore.Card) (*cardstore.Card, bool, error)
}

// ArtifactStore uploads rendered cards.
type ArtifactStore interface {
	Save(ctx context.Context, a storage.Artifact) (string, error)
}

// Pipeline answers one inbound SMS.
type Pipeline struct {
	registry  *schema.Registry
	request   schema.Ref
	hasher    *PhoneHasher
	cards     CardStore
	renderer  Renderer
	artifacts ArtifactStore
	moreInfo  string
	now       func() time.Time
}

// PipelineConfig wires the pipeline's collaborators. Artifacts may be nil,
// in which case card replies carry no media.
type PipelineConfig struct {
	Registry  *schema.Registry
	Vendor    string
	Hasher    *PhoneHasher
	Cards     CardStore
	Renderer  Renderer
	Artifacts ArtifactStore
	MoreInfo  string
}

// NewPipeline checks that the required collaborators are present.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Registry == nil || cfg.Hasher == nil || cfg.Cards == nil {
		return nil, errors.New("loyalty: registry, hasher and card store are required")
	}
	ref := schema.NewRef(cfg.Vendor, RequestSchemaName)
	if !cfg.Registry.Has(ref) {
		return nil, errors.New("loyalty: request schema " + ref.String() + " is not registered")
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = SVGRenderer{}
	}
	return &Pipeline{
		registry:  cfg.Registry,
		request:   ref,
		hasher:    cfg.Hasher,
		cards:     cfg.Cards,
		renderer:  renderer,
		artifacts: cfg.Artifacts,
		moreInfo:  cfg.MoreInfo,
		now:       time.Now,
	}, nil
}

// Handle runs parse, validate, hash, dispatch. Each stage short-circuits
// on error.
func (p *Pipeline) Handle(ctx context.Context, body []byte) (*Reply, error) {
	fields, err := ParseForm(body)
	if err != nil {
		return nil, apperror.Client("Could not parse the request body: "+err.Error(), body)
	}

	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}
	if err := p.registry.Validate(p.request, payload); err != nil {
		return nil, apperror.Client("Could not validate request to the schema provided.  Errors: "+describe(err), body)
	}

	from := fields["From"]
	key := p.hasher.Hash(from)
	cmd := ParseCommand(fields["Body"])

	logging.Ctx(ctx).Debug().
		Str("from", logging.MaskPhone(from)).
		Str("command", string(cmd)).
		Msg("Inbound SMS")

	var reply *Reply
	switch cmd {
	case CommandCard:
		reply, err = p.card(ctx, key)
	case CommandMore:
		reply = &Reply{Command: cmd, Body: p.moreInfo}
	default:
		reply = &Reply{Command: CommandHelp, Body: HelpText}
	}
	if err != nil {
		return nil, err
	}
	metrics.SMSReplies.WithLabelValues(string(reply.Command)).Inc()
	return reply, nil
}

func (p *Pipeline) card(ctx context.Context, key string) (*Reply, error) {
	card, created, err := p.cards.GetOrCreate(ctx, key, func() *cardstore.Card {
		return cardstore.NewCard(key, p.now())
	})
	if err != nil {
		return nil, apperror.Integration("cardstore", "Loyalty Lite - Card Store Integration Error looking up a card", err)
	}
	if created {
		metrics.CardsCreated.Inc()
		logging.Ctx(ctx).Info().Str("card_id", card.ID).Msg("Issued new loyalty card")
	}

	reply := &Reply{Command: CommandCard, Body: "Your loyalty card number is " + card.Number + "."}
	if p.artifacts == nil {
		return reply, nil
	}

	artifact, err := p.renderer.Render(ctx, card)
	if err != nil {
		return nil, apperror.Integration("renderer", "Loyalty Lite - Renderer Integration Error drawing a card", err)
	}
	link, err := p.artifacts.Save(ctx, artifact)
	if err != nil {
		return nil, apperror.Integration("artifacts", "Loyalty Lite - Object Storage Integration Error saving a card", err)
	}
	reply.MediaURL = link
	return reply, nil
}

// ParseCommand maps a message body to a command, ignoring case and
// surrounding whitespace.
func ParseCommand(body string) Command {
	switch strings.ToLower(strings.TrimSpace(body)) {
	case "card":
		return CommandCard
	case "more":
		return CommandMore
	default:
		return CommandHelp
	}
}

func describe(err error) string {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	parts := make([]string, len(verr.Violations))
	for i, v := range verr.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
