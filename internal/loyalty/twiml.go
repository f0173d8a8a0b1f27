// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package loyalty

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// ContentTypeTwiML is the response content type Twilio expects.
const ContentTypeTwiML = "text/xml"

// Reply is the message sent back to the texter.
type Reply struct {
	Command  Command
	Body     string
	MediaURL string
}

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Message twimlMessage `xml:"Message"`
}

type twimlMessage struct {
	Body  string `xml:"Body"`
	Media string `xml:"Media,omitempty"`
}

// TwiML renders r as a TwiML messaging response.
func (r *Reply) TwiML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(twimlResponse{
		Message: twimlMessage{Body: r.Body, Media: r.MediaURL},
	}); err != nil {
		return nil, fmt.Errorf("encode twiml: %w", err)
	}
	return buf.Bytes(), nil
}
