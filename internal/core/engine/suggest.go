package engine

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bandradar/bandradar/internal/core"
)

// SuggestAlternatives proposes simple transforms of a taken name.
// Presentation data only; suggestions are not verified.
func SuggestAlternatives(name string, nameType core.NameType) []string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}

	var suggestions []string
	if nameType == core.NameTypeSong {
		suggestions = append(suggestions,
			trimmed+" (Reprise)",
			trimmed+" Revisited",
		)
	} else {
		if !strings.HasPrefix(strings.ToLower(trimmed), "the ") {
			suggestions = append(suggestions, "The "+trimmed)
		}
		suggestions = append(suggestions,
			trimmed+" Collective",
			trimmed+" Official",
		)
	}

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// VerificationLinks builds outbound search links so users can eyeball
// the evidence themselves.
func VerificationLinks(name string, nameType core.NameType) []core.VerificationLink {
	escaped := url.QueryEscape(name)
	qualifier := "band"
	if nameType == core.NameTypeSong {
		qualifier = "song"
	}

	return []core.VerificationLink{
		{
			Name:   "Spotify",
			URL:    "https://open.spotify.com/search/" + url.PathEscape(name),
			Source: "spotify",
		},
		{
			Name:   "Google",
			URL:    fmt.Sprintf("https://www.google.com/search?q=%s+%s", escaped, qualifier),
			Source: "google",
		},
		{
			Name:   "Bandcamp",
			URL:    "https://bandcamp.com/search?q=" + escaped,
			Source: "bandcamp",
		},
	}
}
