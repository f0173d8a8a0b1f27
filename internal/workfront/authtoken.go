// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "loyaltylite"

// ErrInvalidAuthToken is returned when a delivery's Authorization header does
// not carry the token registered with the subscription.
var ErrInvalidAuthToken = errors.New("invalid workfront auth token")

// AuthTokens produces the authToken registered with each subscription and
// verifies it on delivery. Workfront echoes the token back in the
// Authorization header of every event it posts.
//
// With a secret, tokens are HS256 JWTs whose audience is the callback URL.
// Without one, the static token is used verbatim.
type AuthTokens struct {
	secret   []byte
	static   string
	audience string
	now      func() time.Time
}

// NewAuthTokens creates a token source. At least one of secret and static
// must be set.
func NewAuthTokens(secret, static, audience string) (*AuthTokens, error) {
	if secret == "" && static == "" {
		return nil, errors.New("workfront auth token or auth token secret is required")
	}
	return &AuthTokens{
		secret:   []byte(secret),
		static:   static,
		audience: audience,
		now:      time.Now,
	}, nil
}

// Token returns the authToken to register. Minted tokens do not expire: a
// subscription lives until it is deleted.
func (a *AuthTokens) Token() (string, error) {
	if len(a.secret) == 0 {
		return a.static, nil
	}
	claims := jwt.RegisteredClaims{
		Issuer:   tokenIssuer,
		IssuedAt: jwt.NewNumericDate(a.now()),
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign auth token: %w", err)
	}
	return signed, nil
}

// Verify checks an Authorization header value. A "Bearer " prefix is
// tolerated.
func (a *AuthTokens) Verify(header string) error {
	token := strings.TrimSpace(header)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return ErrInvalidAuthToken
	}

	if len(a.secret) == 0 {
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.static)) != 1 {
			return ErrInvalidAuthToken
		}
		return nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidAuthToken, err)
	}
	return nil
}
