// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package loyalty

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo binds the derived key to this use.
const hkdfInfo = "loyaltylite/phone-hash/v1"

// PhoneHasher turns a phone number into the card store key. The HMAC key
// is derived from the configured secret and salt with HKDF-SHA256.
type PhoneHasher struct {
	key []byte
}

// NewPhoneHasher derives the hashing key. secret must not be empty.
func NewPhoneHasher(secret, salt string) (*PhoneHasher, error) {
	if secret == "" {
		return nil, errors.New("loyalty: phone hash secret is required")
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive phone hash key: %w", err)
	}
	return &PhoneHasher{key: key}, nil
}

// Hash returns the hex HMAC-SHA256 of the normalized phone number.
func (h *PhoneHasher) Hash(phone string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(normalizePhone(phone)))
	return hex.EncodeToString(mac.Sum(nil))
}

// normalizePhone drops everything but digits and a leading '+'.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
