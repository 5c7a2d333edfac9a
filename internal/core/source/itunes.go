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
	itunesID          = "itunes"
	itunesBaseURL     = "https://itunes.apple.com"
	itunesSearchLimit = 25
)

// ITunes queries the Apple iTunes Search API. No auth required;
// reliability 0.9.
type ITunes struct {
	Client  *http.Client
	Limiter *ratelimit.RateLimiter
	BaseURL string
	Weight  float64
	Timeout time.Duration
	Clock   func() time.Time
}

// ID returns the source identifier.
func (a *ITunes) ID() string {
	return itunesID
}

// Reliability returns the static evidence weight.
func (a *ITunes) Reliability() float64 {
	if a.Weight > 0 {
		return a.Weight
	}
	return 0.9
}

type itunesSearchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

type itunesResult struct {
	ArtistName   string `json:"artistName"`
	TrackName    string `json:"trackName"`
	PrimaryGenre string `json:"primaryGenreName"`
	WrapperType  string `json:"wrapperType"`
}

// Verify searches iTunes for artists or songs matching the name.
func (a *ITunes) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	started := a.now()

	entity := "musicArtist"
	if nameType == core.NameTypeSong {
		entity = "song"
	}

	base := a.BaseURL
	if base == "" {
		base = itunesBaseURL
	}
	endpoint := hostOf(base)

	if a.Limiter != nil && endpoint != "" {
		allowed, wait, err := a.Limiter.Allow(ctx, endpoint)
		if err == nil && !allowed {
			verr := core.RateLimitedError(itunesID, fmt.Sprintf("rate limited, retry in %s", wait.Round(time.Second)))
			return failedEvidence(itunesID, a.Reliability(), verr, started), nil
		}
	}

	searchURL := fmt.Sprintf("%s/search?term=%s&media=music&entity=%s&limit=%d",
		strings.TrimSuffix(base, "/"), url.QueryEscape(name), entity, itunesSearchLimit)

	ctx, cancel := withTimeout(ctx, a.Timeout, 10*time.Second)
	defer cancel()

	if a.Limiter != nil && endpoint != "" {
		_ = a.Limiter.Record(ctx, endpoint)
	}

	var payload itunesSearchResponse
	if verr := getJSON(ctx, a.Client, itunesID, searchURL, nil, &payload); verr != nil {
		if verr.Code == core.ErrRateLimited && a.Limiter != nil && endpoint != "" {
			_ = a.Limiter.Record429(ctx, endpoint, time.Minute)
		}
		return failedEvidence(itunesID, a.Reliability(), verr, started), nil
	}

	raws := make([]rawMatch, 0, len(payload.Results))
	for _, item := range payload.Results {
		raw := rawMatch{artist: item.ArtistName}
		if nameType == core.NameTypeSong {
			raw.name = item.TrackName
		} else {
			raw.name = item.ArtistName
			raw.artist = ""
		}
		if item.PrimaryGenre != "" {
			raw.genres = []string{item.PrimaryGenre}
		}
		raws = append(raws, raw)
	}

	return buildEvidence(itunesID, a.Reliability(), name, raws, payload.ResultCount, started), nil
}

func (a *ITunes) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}
