// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package loyalty

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"github.com/tomtom215/loyaltylite/internal/cardstore"
	"github.com/tomtom215/loyaltylite/internal/storage"
)

// Renderer draws a card as an uploadable artifact.
type Renderer interface {
	Render(ctx context.Context, card *cardstore.Card) (storage.Artifact, error)
}

// SVGRenderer draws a plain text card.
type SVGRenderer struct {
	Title string
}

// Render returns an SVG showing the title and the grouped card number.
func (r SVGRenderer) Render(_ context.Context, card *cardstore.Card) (storage.Artifact, error) {
	if card == nil || card.Number == "" {
		return storage.Artifact{}, fmt.Errorf("render: card has no number")
	}
	title := r.Title
	if title == "" {
		title = "Loyalty Card"
	}

	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="640" height="400" viewBox="0 0 640 400">`)
	buf.WriteString(`<rect width="640" height="400" rx="24" fill="#1d1d1b"/>`)
	buf.WriteString(`<text x="40" y="80" font-family="Helvetica, Arial, sans-serif" font-size="36" fill="#ffffff">`)
	if err := xml.EscapeText(&buf, []byte(title)); err != nil {
		return storage.Artifact{}, fmt.Errorf("render: %w", err)
	}
	buf.WriteString(`</text>`)
	buf.WriteString(`<text x="40" y="320" font-family="Courier, monospace" font-size="40" fill="#ffffff">`)
	buf.WriteString(groupDigits(card.Number))
	buf.WriteString(`</text></svg>`)

	return storage.Artifact{
		Name:        card.ID + ".svg",
		ContentType: "image/svg+xml",
		Data:        buf.Bytes(),
	}, nil
}

// groupDigits splits a card number into blocks of four.
func groupDigits(number string) string {
	var b bytes.Buffer
	for i, r := range number {
		if r < '0' || r > '9' {
			continue
		}
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
