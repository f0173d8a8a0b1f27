// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package logging

import (
	"strings"
	"unicode"
)

// maxLoggedValue bounds how much of an untrusted value reaches the log.
const maxLoggedValue = 200

// SanitizeValue makes an untrusted string safe to log: control characters
// (newlines included) are replaced and the result is truncated.
func SanitizeValue(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return truncateString(cleaned, maxLoggedValue)
}

// SanitizeToken masks a secret, keeping only the first and last 4 characters.
// Example: "eyJhbGciOiJIUzI1NiIs..." -> "eyJh...NiIs"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// MaskPhone keeps the last two digits of a phone number.
// Example: "+15555550123" -> "**********23"
func MaskPhone(phone string) string {
	if len(phone) <= 2 {
		return "***"
	}
	return strings.Repeat("*", len(phone)-2) + phone[len(phone)-2:]
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
