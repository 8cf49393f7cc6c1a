// Package credential normalizes bearer-style API keys and builds auth headers.
package credential

import "strings"

const (
	DefaultScheme = "Bearer"
	DefaultHeader = "Authorization"
)

// Sanitize strips a leading "Bearer " from raw. It reports false when nothing is left.
func Sanitize(raw string) (string, bool) {
	return SanitizeScheme(raw, DefaultScheme)
}

// SanitizeScheme strips a leading scheme word followed by a single space,
// compared case-insensitively. An empty scheme never strips.
func SanitizeScheme(raw, scheme string) (string, bool) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", false
	}
	scheme = strings.TrimSpace(scheme)
	if scheme != "" {
		prefix := scheme + " "
		if len(token) >= len(prefix) && strings.EqualFold(token[:len(prefix)], prefix) {
			token = strings.TrimSpace(token[len(prefix):])
		}
	}
	if token == "" {
		return "", false
	}
	return token, true
}

// AuthHeader returns {header: "<scheme> <token>"}, or {header: token} for an
// empty scheme. A blank token or header yields an empty map.
func AuthHeader(token, header, scheme string) map[string]string {
	token = strings.TrimSpace(token)
	header = strings.TrimSpace(header)
	if token == "" || header == "" {
		return map[string]string{}
	}
	scheme = strings.TrimSpace(scheme)
	if scheme == "" {
		return map[string]string{header: token}
	}
	return map[string]string{header: scheme + " " + token}
}

// BearerHeader is AuthHeader with the default header and scheme.
func BearerHeader(token string) map[string]string {
	return AuthHeader(token, DefaultHeader, DefaultScheme)
}

// Mask hides all but the first and last two characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
