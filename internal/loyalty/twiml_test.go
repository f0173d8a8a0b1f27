// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package loyalty

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/loyaltylite/internal/cardstore"
)

func TestReplyTwiML(t *testing.T) {
	t.Parallel()

	out, err := (&Reply{Body: "Card <1> & co", MediaURL: "https://x.example/a.svg?a=1&b=2"}).TwiML()
	if err != nil {
		t.Fatalf("TwiML() error = %v", err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<Response><Message><Body>Card &lt;1&gt; &amp; co</Body><Media>https://x.example/a.svg?a=1&amp;b=2</Media></Message></Response>`
	if string(out) != want {
		t.Errorf("TwiML() =\n%s\nwant\n%s", out, want)
	}

	out, err = (&Reply{Body: "help"}).TwiML()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<Media>") {
		t.Errorf("empty media rendered: %s", out)
	}
}

func TestSVGRenderer(t *testing.T) {
	t.Parallel()

	a, err := SVGRenderer{Title: "Rack & Co"}.Render(context.Background(), &cardstore.Card{ID: "c1", Number: "1234567812345678"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if a.Name != "c1.svg" || a.ContentType != "image/svg+xml" {
		t.Errorf("artifact = %s %s", a.Name, a.ContentType)
	}
	svg := string(a.Data)
	if !strings.Contains(svg, "1234 5678 1234 5678") {
		t.Errorf("number not grouped: %s", svg)
	}
	if !strings.Contains(svg, "Rack &amp; Co") {
		t.Errorf("title not escaped: %s", svg)
	}

	if _, err := (SVGRenderer{}).Render(context.Background(), &cardstore.Card{}); err == nil {
		t.Error("expected error for a card without number")
	}
}
