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
	musicbrainzID          = "musicbrainz"
	musicbrainzBaseURL     = "https://musicbrainz.org/ws/2"
	musicbrainzSearchLimit = 25
)

// MusicBrainz queries the open MusicBrainz metadata registry.
// Community-maintained, reliability 0.85.
type MusicBrainz struct {
	Client    *http.Client
	Limiter   *ratelimit.RateLimiter
	BaseURL   string
	UserAgent string
	Weight    float64
	Timeout   time.Duration
	Clock     func() time.Time
}

// ID returns the source identifier.
func (m *MusicBrainz) ID() string {
	return musicbrainzID
}

// Reliability returns the static evidence weight.
func (m *MusicBrainz) Reliability() float64 {
	if m.Weight > 0 {
		return m.Weight
	}
	return 0.85
}

type mbArtistResponse struct {
	Count   int        `json:"count"`
	Artists []mbArtist `json:"artists"`
}

type mbArtist struct {
	Name  string  `json:"name"`
	Score int     `json:"score"`
	Tags  []mbTag `json:"tags"`
}

type mbRecordingResponse struct {
	Count      int           `json:"count"`
	Recordings []mbRecording `json:"recordings"`
}

type mbRecording struct {
	Title        string     `json:"title"`
	Score        int        `json:"score"`
	ArtistCredit []mbCredit `json:"artist-credit"`
}

type mbCredit struct {
	Name string `json:"name"`
}

type mbTag struct {
	Name string `json:"name"`
}

// Verify searches MusicBrainz for artists or recordings matching the name.
func (m *MusicBrainz) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	started := m.now()

	base := m.BaseURL
	if base == "" {
		base = musicbrainzBaseURL
	}
	endpoint := hostOf(base)

	if m.Limiter != nil && endpoint != "" {
		allowed, wait, err := m.Limiter.Allow(ctx, endpoint)
		if err == nil && !allowed {
			verr := core.RateLimitedError(musicbrainzID, fmt.Sprintf("rate limited, retry in %s", wait.Round(time.Second)))
			return failedEvidence(musicbrainzID, m.Reliability(), verr, started), nil
		}
	}

	resource := "artist"
	if nameType == core.NameTypeSong {
		resource = "recording"
	}

	// Lucene-escaped quoted query; MusicBrainz scores results itself.
	query := url.QueryEscape(fmt.Sprintf("%q", name))
	searchURL := fmt.Sprintf("%s/%s?query=%s&fmt=json&limit=%d",
		strings.TrimSuffix(base, "/"), resource, query, musicbrainzSearchLimit)

	header := http.Header{}
	userAgent := m.UserAgent
	if userAgent == "" {
		userAgent = "bandradar/1.0 (name verification)"
	}
	header.Set("User-Agent", userAgent)

	ctx, cancel := withTimeout(ctx, m.Timeout, 15*time.Second)
	defer cancel()

	if m.Limiter != nil && endpoint != "" {
		_ = m.Limiter.Record(ctx, endpoint)
	}

	var raws []rawMatch
	total := 0

	if nameType == core.NameTypeSong {
		var payload mbRecordingResponse
		if verr := getJSON(ctx, m.Client, musicbrainzID, searchURL, header, &payload); verr != nil {
			return failedEvidence(musicbrainzID, m.Reliability(), verr, started), nil
		}
		total = payload.Count
		for _, rec := range payload.Recordings {
			artist := ""
			if len(rec.ArtistCredit) > 0 {
				artist = rec.ArtistCredit[0].Name
			}
			raws = append(raws, rawMatch{
				name:       rec.Title,
				artist:     artist,
				popularity: rec.Score,
			})
		}
	} else {
		var payload mbArtistResponse
		if verr := getJSON(ctx, m.Client, musicbrainzID, searchURL, header, &payload); verr != nil {
			return failedEvidence(musicbrainzID, m.Reliability(), verr, started), nil
		}
		total = payload.Count
		for _, artist := range payload.Artists {
			genres := make([]string, 0, len(artist.Tags))
			for _, tag := range artist.Tags {
				genres = append(genres, tag.Name)
			}
			raws = append(raws, rawMatch{
				name:       artist.Name,
				popularity: artist.Score,
				genres:     genres,
			})
		}
	}

	return buildEvidence(musicbrainzID, m.Reliability(), name, raws, total, started), nil
}

func (m *MusicBrainz) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now().UTC()
}
