// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package loyalty

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseForm decodes an application/x-www-form-urlencoded body. Pairs are
// split on '&' and the first '='; '+' decodes to a space and %XX escapes
// are resolved. When a key repeats, the first value wins. A key without
// '=' maps to "".
func ParseForm(body []byte) (map[string]string, error) {
	fields := make(map[string]string)
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("decode form key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("decode form value for %q: %w", key, err)
		}
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = value
	}
	return fields, nil
}
