package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/ratelimit"
)

const (
	spotifyID          = "spotify"
	spotifyBaseURL     = "https://api.spotify.com/v1"
	spotifySearchLimit = 20
)

// Spotify queries the Spotify Web API search endpoint. Primary
// streaming catalog, reliability 1.0.
type Spotify struct {
	Client  *http.Client
	Limiter *ratelimit.RateLimiter
	BaseURL string
	Token   string
	Weight  float64
	Timeout time.Duration
	Clock   func() time.Time
}

// ID returns the source identifier.
func (s *Spotify) ID() string {
	return spotifyID
}

// Reliability returns the static evidence weight.
func (s *Spotify) Reliability() float64 {
	if s.Weight > 0 {
		return s.Weight
	}
	return 1.0
}

// -- API response types (internal) ------------------------------------------

type spotifySearchResponse struct {
	Artists *spotifyArtistPage `json:"artists"`
	Tracks  *spotifyTrackPage  `json:"tracks"`
}

type spotifyArtistPage struct {
	Items []spotifyArtist `json:"items"`
	Total int             `json:"total"`
}

type spotifyArtist struct {
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
}

type spotifyTrackPage struct {
	Items []spotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type spotifyTrack struct {
	Name       string          `json:"name"`
	Popularity int             `json:"popularity"`
	Artists    []spotifyArtist `json:"artists"`
}

// Verify searches Spotify for artists or tracks matching the name.
func (s *Spotify) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	started := s.now()

	searchType := "artist"
	if nameType == core.NameTypeSong {
		searchType = "track"
	}

	base := s.BaseURL
	if base == "" {
		base = spotifyBaseURL
	}
	endpoint := hostOf(base)

	if verr := s.checkLimit(ctx, endpoint, started); verr != nil {
		return failedEvidence(spotifyID, s.Reliability(), verr, started), nil
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&type=%s&limit=%d",
		strings.TrimSuffix(base, "/"), url.QueryEscape(name), searchType, spotifySearchLimit)

	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}

	ctx, cancel := withTimeout(ctx, s.Timeout, 8*time.Second)
	defer cancel()

	if s.Limiter != nil && endpoint != "" {
		_ = s.Limiter.Record(ctx, endpoint)
	}

	var payload spotifySearchResponse
	if verr := getJSON(ctx, s.Client, spotifyID, searchURL, header, &payload); verr != nil {
		if verr.Code == core.ErrRateLimited && s.Limiter != nil && endpoint != "" {
			_ = s.Limiter.Record429(ctx, endpoint, 30*time.Second)
		}
		return failedEvidence(spotifyID, s.Reliability(), verr, started), nil
	}

	var raws []rawMatch
	total := 0
	if payload.Artists != nil {
		total = payload.Artists.Total
		for _, item := range payload.Artists.Items {
			raws = append(raws, rawMatch{
				name:       item.Name,
				popularity: item.Popularity,
				genres:     item.Genres,
			})
		}
	}
	if payload.Tracks != nil {
		total = payload.Tracks.Total
		for _, item := range payload.Tracks.Items {
			artist := ""
			if len(item.Artists) > 0 {
				artist = item.Artists[0].Name
			}
			raws = append(raws, rawMatch{
				name:       item.Name,
				artist:     artist,
				popularity: item.Popularity,
			})
		}
	}

	return buildEvidence(spotifyID, s.Reliability(), name, raws, total, started), nil
}

func (s *Spotify) checkLimit(ctx context.Context, endpoint string, started time.Time) *core.VerifyError {
	if s.Limiter == nil || endpoint == "" {
		return nil
	}
	allowed, wait, err := s.Limiter.Allow(ctx, endpoint)
	if err != nil {
		return nil
	}
	if !allowed {
		return core.RateLimitedError(spotifyID, fmt.Sprintf("rate limited, retry in %s", wait.Round(time.Second)))
	}
	return nil
}

func (s *Spotify) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// hostOf extracts the hostname used as the rate limit endpoint key.
func hostOf(base string) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// withTimeout applies the adapter timeout, falling back to a default.
func withTimeout(ctx context.Context, timeout, fallback time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = fallback
	}
	return context.WithTimeout(ctx, timeout)
}
