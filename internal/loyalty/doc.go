// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package loyalty answers inbound SMS from Twilio. A texter sends CARD to
// get a loyalty card (issued on first request and keyed by a salted hash of
// their number), MORE for program information, or anything else for help.
// Replies are TwiML.
package loyalty
