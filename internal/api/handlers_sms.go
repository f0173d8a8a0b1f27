// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package api

import (
	"net/http"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/loyalty"
)

// TwilioSMS answers an inbound SMS with TwiML
// POST /twilio/sms
func (h *Handler) TwilioSMS(w http.ResponseWriter, r *http.Request) {
	if h.sms == nil {
		respondText(w, http.StatusNotFound, "SMS loyalty cards are not enabled")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	reply, err := h.sms.Handle(r.Context(), body)
	if err != nil {
		status := apperror.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logging.Ctx(r.Context()).Error().Err(err).Msg("SMS pipeline failed")
		} else {
			logging.Ctx(r.Context()).Warn().
				Str("error", logging.SanitizeValue(apperror.PublicMessage(err))).
				Msg("Rejected inbound SMS")
		}
		respondText(w, status, apperror.PublicMessage(err))
		return
	}

	twiml, err := reply.TwiML()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to render TwiML")
		respondText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	respondRaw(w, http.StatusOK, loyalty.ContentTypeTwiML, twiml)
}
