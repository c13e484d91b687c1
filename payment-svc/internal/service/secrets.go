package service

import (
	"regexp"
	"strings"
)

const visibleSecretChars = 4

var maskedSecretPattern = regexp.MustCompile(`^\*+.{0,4}$`)

// MaskSecret hides all but the last four characters of a secret. Absent or
// very short secrets are returned as an empty string.
func MaskSecret(secret string) string {
	if len(secret) <= visibleSecretChars {
		return ""
	}
	return strings.Repeat("*", len(secret)-visibleSecretChars) + secret[len(secret)-visibleSecretChars:]
}

// IsMaskedSecret reports whether a submitted secret means "keep the stored
// value": empty, or shaped like MaskSecret output. A real secret made only of
// asterisks is indistinguishable from a mask and is treated as one.
func IsMaskedSecret(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	return maskedSecretPattern.MatchString(trimmed)
}

// mergeSecret picks the value to persist for a secret field.
func mergeSecret(incoming, existing string) string {
	if IsMaskedSecret(incoming) || strings.TrimSpace(incoming) == MaskSecret(existing) {
		return existing
	}
	return strings.TrimSpace(incoming)
}
