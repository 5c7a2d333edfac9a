package core

import (
	"strings"
	"unicode"
)

// MaxNameLength is the longest candidate name accepted for verification.
const MaxNameLength = 200

// ValidateRequest checks a request before any network work begins.
func ValidateRequest(req NameRequest) *VerifyError {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return InvalidInputError("name is required")
	}
	if len(name) > MaxNameLength {
		return InvalidInputError("name exceeds 200 characters")
	}
	if !req.Type.Valid() {
		return InvalidInputError("type must be band or song")
	}
	return nil
}

// CacheKey builds the normalized cache key for a (name, type) pair.
func CacheKey(name string, nameType NameType) string {
	return NormalizeName(name) + ":" + string(nameType)
}

// NormalizeName lowercases a name and collapses interior whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// CanonicalName strips punctuation and whitespace entirely, for
// dedupe identity comparisons across sources.
func CanonicalName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
