// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/logging"
)

// EventHandler receives a Workfront subscription delivery
// POST /eventHandler
//
// Responses:
//   - 200: JSON publish result {streamName, partitionKey, messageId}
//   - 400: validation diagnostic naming every failed constraint and
//     echoing the offending payload
//   - 401: auth token verification is enabled and the header is wrong
//   - 500: the stream backend rejected the write
func (h *Handler) EventHandler(w http.ResponseWriter, r *http.Request) {
	if h.tokens != nil {
		if err := h.tokens.Verify(r.Header.Get("Authorization")); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Rejected Workfront delivery with a bad auth token")
			respondText(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	result, err := h.ingest.Ingest(r.Context(), body)
	if err != nil {
		status := apperror.HTTPStatus(err)
		if status == http.StatusBadRequest {
			respondText(w, status, invalidRequestText(err))
			return
		}
		respondText(w, status, apperror.PublicMessage(err))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// invalidRequestText renders a client error the way Workfront delivery
// logs have always shown it.
func invalidRequestText(err error) string {
	msg := strings.TrimSuffix(apperror.PublicMessage(err), ".")
	var echo []byte
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		echo = appErr.Echo
	}
	return fmt.Sprintf("Event Handler Invalid Request: could not validate request to the schema provided.  %s.  Event: '%s'", msg, echo)
}

// readBody reads the whole request body, answering 413 or 400 itself
// when that fails.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		return body, true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondText(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		return nil, false
	}
	respondText(w, http.StatusBadRequest, "could not read request body")
	return nil, false
}
